// Package month содержит календарные функции биллинга: границы месяца,
// предыдущий месяц и работа с ключами вида YYYY-MM.
package month

import (
	"fmt"
	"time"
)

// KeyLayout формат ключа месяца в отчётах и параметрах запросов.
const KeyLayout = "2006-01"

// DateLayout формат календарной даты в параметрах запросов.
const DateLayout = "2006-01-02"

// Start возвращает первый день месяца, в который попадает t.
func Start(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// End возвращает последний день месяца, в который попадает t.
// Корректно обрабатывает месяцы из 28, 29, 30 и 31 дня.
func End(t time.Time) time.Time {
	return Start(t).AddDate(0, 1, -1)
}

// Date отбрасывает время суток, возвращая календарную дату t в UTC.
// Диапазонные выборки по датам включают последний день месяца только
// при нулевом времени, поэтому даты биллинга нормализуются этой функцией.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Previous возвращает первый день месяца, предшествующего месяцу t.
// Январь переходит в декабрь предыдущего года.
func Previous(t time.Time) time.Time {
	return Start(t).AddDate(0, -1, 0)
}

// Key возвращает ключ месяца в формате YYYY-MM.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// ParseKey разбирает ключ месяца YYYY-MM, возвращая первый день месяца.
func ParseKey(s string) (time.Time, error) {
	t, err := time.Parse(KeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Start(t), nil
}

// ParseDate разбирает календарную дату YYYY-MM-DD в UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

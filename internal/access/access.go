// Package access реализует модель доступа на битовых масках.
//
// Каждый бит маски — отдельная возможность: бит 1 — аутентифицированный
// пользователь, бит 2 — администратор. Администратор носит маску 3 (оба бита).
// Маршруту сопоставляется требуемая маска; доступ разрешён, если маска
// вызывающего содержит все требуемые биты. Схема применяется байт-в-байт и
// на шлюзе, который предварительно аутентифицирует вызовы, поэтому значения
// битов менять нельзя.
package access

import "strings"

// Уровни доступа как битовые маски.
const (
	// LevelPublic — маршрут открыт всем.
	LevelPublic = 0
	// LevelAuthenticated — требуется аутентифицированный вызывающий.
	LevelAuthenticated = 1
	// LevelAdmin — требуется административный бит.
	LevelAdmin = 2
)

// MaskForRole возвращает маску вызывающего по его роли.
// Администратор несёт оба бита, чтобы проходить и пользовательские маршруты.
func MaskForRole(role string) int {
	switch role {
	case "admin":
		return LevelAuthenticated | LevelAdmin
	case "user":
		return LevelAuthenticated
	}
	return LevelPublic
}

// Rule связывает метод и шаблон пути с требуемой маской.
// Сегменты вида {id} считаются подстановочными, замыкающий сегмент `*`
// поглощает любой хвост пути.
type Rule struct {
	Method   string
	Pattern  string
	Required int
}

// rules — таблица уровней доступа для HTTP-поверхности сервиса.
// Порядок не важен: выбирается наиболее специфичное совпадение.
var rules = []Rule{
	{Method: "POST", Pattern: "/auth/login", Required: LevelPublic},
	{Method: "GET", Pattern: "/health", Required: LevelPublic},
	{Method: "GET", Pattern: "/metrics", Required: LevelPublic},
	{Method: "GET", Pattern: "/docs/*", Required: LevelPublic},
	{Method: "POST", Pattern: "/billing/monthly", Required: LevelAdmin},
	{Method: "POST", Pattern: "/bank/payment-updates", Required: LevelAdmin},
	{Method: "GET", Pattern: "/exports/accounting/monthly-invoices", Required: LevelAdmin},
	{Method: "GET", Pattern: "/exports/banking/direct-debits", Required: LevelAdmin},
	{Method: "GET", Pattern: "/reports/revenue/monthly", Required: LevelAdmin},
	{Method: "GET", Pattern: "/invoices", Required: LevelAdmin},
}

// RequiredMask возвращает требуемую маску для пары путь+метод по наиболее
// специфичному совпадению шаблона. Если ни одно правило не подошло,
// возвращает LevelAuthenticated: незнакомый маршрут закрыт, а не открыт.
func RequiredMask(path, method string) int {
	best := -1
	required := LevelAuthenticated
	for _, rule := range rules {
		if rule.Method != method {
			continue
		}
		score, ok := matchPattern(rule.Pattern, path)
		if ok && score > best {
			best = score
			required = rule.Required
		}
	}
	return required
}

// HasPermission сообщает, содержит ли маска вызывающего все требуемые биты.
// Нулевая требуемая маска разрешает вызов всегда.
func HasPermission(callerMask, requiredMask int) bool {
	if requiredMask == 0 {
		return true
	}
	return callerMask&requiredMask == requiredMask
}

// matchPattern сопоставляет путь с шаблоном посегментно и возвращает
// число статически совпавших сегментов. Сегмент {x} совпадает с любым
// непустым значением, но специфичности не добавляет. Замыкающий `*`
// поглощает один и более сегментов, сколь угодно глубоко.
func matchPattern(pattern, path string) (int, bool) {
	pp := splitPath(pattern)
	ps := splitPath(path)

	wildcardTail := len(pp) > 0 && pp[len(pp)-1] == "*"
	if wildcardTail {
		pp = pp[:len(pp)-1]
		if len(ps) <= len(pp) {
			return 0, false
		}
		ps = ps[:len(pp)]
	} else if len(pp) != len(ps) {
		return 0, false
	}

	score := 0
	for i, seg := range pp {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if ps[i] == "" {
				return 0, false
			}
			continue
		}
		if seg != ps[i] {
			return 0, false
		}
		score++
	}
	return score, true
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

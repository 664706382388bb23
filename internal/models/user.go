package models

// UserStatus статус учётной записи.
type UserStatus string

const (
	// UserOK — учётная запись в порядке.
	UserOK UserStatus = "OK"
	// UserSuspended — учётная запись приостановлена после отклонённого списания.
	UserSuspended UserStatus = "SUSPENDED"
	// UserBlocked — учётная запись заблокирована администратором.
	UserBlocked UserStatus = "BLOCKED"
	// UserDeleted — учётная запись удалена.
	UserDeleted UserStatus = "DELETED"
)

// PaymentMethodType тип платёжного инструмента пользователя.
type PaymentMethodType string

const (
	// PaymentMethodCard — банковская карта.
	PaymentMethodCard PaymentMethodType = "CARD"
	// PaymentMethodSepa — SEPA-мандат.
	PaymentMethodSepa PaymentMethodType = "SEPA"
	// PaymentMethodNone — платёжный инструмент не зарегистрирован.
	PaymentMethodNone PaymentMethodType = ""
)

// PaymentMethod описывает платёжный инструмент. Для карты заполняются
// последние четыре цифры, для SEPA — фрагмент IBAN.
type PaymentMethod struct {
	Type       PaymentMethodType `json:"type"`
	CardLast4  string            `json:"card_last4,omitempty"`
	IbanSuffix string            `json:"iban_suffix,omitempty"`
}

// Collectible сообщает, можно ли инициировать списание этим инструментом.
func (m PaymentMethod) Collectible() bool {
	return m.Type == PaymentMethodCard || m.Type == PaymentMethodSepa
}

// User представляет пользователя системы. Биллинг эту модель не создаёт,
// но сверка платежей меняет Status как побочный эффект исхода списания.
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Username      string        `json:"username"`
	PasswordHash  string        `json:"-"`
	Role          string        `json:"role"` // admin или user
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        UserStatus    `json:"status"`
}

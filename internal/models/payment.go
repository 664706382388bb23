package models

// PaymentOutcome исход исполнения платежа, приходящий от банка.
type PaymentOutcome string

const (
	// OutcomeExecuted — списание исполнено.
	OutcomeExecuted PaymentOutcome = "EXECUTED"
	// OutcomeRejected — списание отклонено.
	OutcomeRejected PaymentOutcome = "REJECTED"
	// OutcomePending — банк ещё не определил исход.
	OutcomePending PaymentOutcome = "PENDING"
)

// PaymentUpdate одно обновление из банковской выгрузки.
type PaymentUpdate struct {
	InvoiceID string         `json:"invoiceId"`
	Outcome   PaymentOutcome `json:"status"`
}

// DummyPaymentUpdate используется для приёма обновления из JSON-запроса
// до валидации и преобразования в PaymentUpdate.
type DummyPaymentUpdate struct {
	InvoiceID string `json:"invoiceId" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=EXECUTED REJECTED PENDING"`
}

// DummyBillingRun используется для приёма параметров запуска биллинга из
// JSON-запроса. Дата приходит строкой, пустое значение означает текущую дату.
type DummyBillingRun struct {
	BillingDate string `json:"billingDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UserSuspendedEvent событие приостановки учётной записи для очереди уведомлений.
type UserSuspendedEvent struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	InvoiceRef string `json:"invoice_ref"`
}

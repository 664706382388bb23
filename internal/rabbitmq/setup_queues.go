package rabbitmq

// Exchange имя exchange биллинговых уведомлений.
const Exchange = "billing"

// Имена очередей и ключей маршрутизации уведомлений.
const (
	QueueUserSuspended      = "billing.user_suspended"
	RoutingKeyUserSuspended = "user.suspended"
)

// QueueConfig связка очереди с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые потребляет сервис рассылки.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueUserSuspended, RoutingKey: RoutingKeyUserSuspended},
	}
}

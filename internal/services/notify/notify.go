// Package notify публикует события биллинга в RabbitMQ для сервиса рассылки.
package notify

import (
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/rabbitmq"
)

// Publisher отправляет события в exchange биллинга.
type Publisher struct {
	ch  *amqp.Channel
	log *slog.Logger
}

// NewPublisher создает новый экземпляр Publisher.
func NewPublisher(ch *amqp.Channel, log *slog.Logger) *Publisher {
	return &Publisher{
		ch:  ch,
		log: log,
	}
}

// UserSuspended публикует событие приостановки учётной записи.
func (p *Publisher) UserSuspended(event models.UserSuspendedEvent) error {
	err := rabbitmq.PublishMessage(p.ch, rabbitmq.Exchange, rabbitmq.RoutingKeyUserSuspended, event)
	if err != nil {
		return err
	}
	p.log.Info("published user suspended event", slog.String("username", event.Username))
	return nil
}

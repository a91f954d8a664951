package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tandyr-pos/pkg/logger"
	"tandyr-pos/pkg/models"
	"tandyr-pos/pkg/rabbitmq"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewPublisher(channel *amqp.Channel, log *logger.Logger) *Publisher {
	return &Publisher{channel: channel, logger: log}
}

// OrderCreated publishes the post-commit event. The commit has already
// succeeded by the time this runs; a publish failure is the caller's to
// log, never to surface to the cashier.
func (p *Publisher) OrderCreated(ctx context.Context, requestID string, order models.Order) error {
	event := OrderCreated{
		EventID:   uuid.NewString(),
		RequestID: requestID,
		Order:     order,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		rabbitmq.EventsExchange,  // exchange
		rabbitmq.OrderCreatedKey, // routing key
		false,                    // mandatory
		false,                    // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return err
	}

	p.logger.Debug(requestID, "event_published",
		fmt.Sprintf("Order created event published for %s", order.Number))
	return nil
}

package rabbitmq

import (
	"fmt"

	"tandyr-pos/internal/config"
	"tandyr-pos/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// EventsExchange carries post-commit events out of the order flow.
	EventsExchange = "pos_events"

	OrderCreatedKey   = "order.created"
	OrderCreatedQueue = "order_created_queue"
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Logger  *logger.Logger
}

func ConnectRabbitMQ(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.User, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		EventsExchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = channel.QueueDeclare(
		OrderCreatedQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.QueueBind(
		OrderCreatedQueue, // queue name
		OrderCreatedKey,   // routing key
		EventsExchange,    // exchange
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	log.Info("startup", "rabbitmq_connected", "Connected to RabbitMQ")
	return &RabbitMQ{Conn: conn, Channel: channel, Logger: log}, nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.Conn != nil {
		r.Conn.Close()
	}
}

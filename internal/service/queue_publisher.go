package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/tour-booking/internal/queue"
)

// EventPublisher receives review events after a successful write.
type EventPublisher interface {
	PublishReviewChanged(ctx context.Context, event q.ReviewChangedEvent) error
}

// AMQPPublisher publishes events to RabbitMQ. Each publish dials (2s
// connect timeout), declares the durable queue and sends one persistent
// message. Errors are logged and returned so callers can ignore them.
type AMQPPublisher struct {
	URL    string
	Logger *zap.Logger
}

func NewAMQPPublisher(url string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Logger: logger}
}

func (p *AMQPPublisher) PublishReviewChanged(ctx context.Context, event q.ReviewChangedEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(2 * time.Second),
	})
	if err != nil {
		p.Logger.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		q.ReviewQueueName, // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	); err != nil {
		p.Logger.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ReviewQueueName, false, false, pub); err != nil {
		p.Logger.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}

// NopPublisher drops every event. Used when review events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishReviewChanged(context.Context, q.ReviewChangedEvent) error { return nil }

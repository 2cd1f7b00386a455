// Package queue contains the background consumer that listens to the
// review.changed queue and writes one line per event to logs/reviews.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ReviewConsumer drains review events into a log file.
type ReviewConsumer struct {
	URL    string
	LogDir string
	Logger *zap.Logger
}

// Start connects to RabbitMQ, declares the review queue (durable) and
// consumes messages until ctx is cancelled. Broker failures are retried with
// exponential backoff capped at 30s; malformed messages are rejected without
// requeue so the loop keeps running.
func (rc ReviewConsumer) Start(ctx context.Context) error {
	if rc.LogDir == "" {
		rc.LogDir = "logs"
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(rc.URL)
		if err != nil {
			rc.Logger.Warn("review consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = rc.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rc.Logger.Warn("review consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (rc ReviewConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		rc.Logger.Warn("review consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(ReviewQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, ReviewQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := rc.HandleMessage(d.Body); err != nil {
			rc.Logger.Error("review consumer: handle message failed", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes one event and appends it to reviews.log.
func (rc ReviewConsumer) HandleMessage(body []byte) error {
	var ev ReviewChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.TourID == 0 || ev.Action == "" {
		return errors.New("event missing tour_id or action")
	}
	dir := rc.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "reviews.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Review %s | review_id=%d | tour_id=%d | user_id=%d | rating=%d | ratings_quantity=%d | ratings_average=%.1f\n",
		ev.OccurredAt, ev.Action, ev.ReviewID, ev.TourID, ev.UserID, ev.Rating, ev.RatingsQuantity, ev.RatingsAverage)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

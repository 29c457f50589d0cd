package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// LogSender writes the email to the log instead of a mail relay.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.Log.Info("email delivered",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("notification_id", msg.NotificationID.String()))
	return nil
}

// Consume drains the email queue until ctx is cancelled, reconnecting with
// exponential backoff (capped at 30s) when the broker goes away.
func Consume(ctx context.Context, url, queue string, sender Sender, log *zap.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("email consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, sender, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("email consumer: loop ended, reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, sender Sender, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("email consumer: set QoS failed", zap.Error(err))
	}
	if _, err := declareQueue(ch, queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleDelivery(ctx, d.Body, sender); err != nil {
				log.Error("email consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery decodes one queued message and sends it.
func HandleDelivery(ctx context.Context, body []byte, sender Sender) error {
	var msg EmailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if msg.To == "" {
		return errors.New("message has no recipient")
	}
	return sender.Send(ctx, msg)
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one decoded event.  Returning an error rejects the
// message without requeueing it, so a poison message cannot wedge the queue.
type Handler func(ctx context.Context, ev Envelope) error

// Consume connects to the broker, binds a queue to the broadcast exchange
// and dispatches messages to the handler until ctx is cancelled.  A named
// queue is declared durable and keeps its backlog across restarts (kitchen
// displays); an empty name yields a private server-named queue that is
// dropped on disconnect (device agents, whose polling loop covers anything
// missed while offline).  The loop reconnects with exponential backoff so a
// broker restart only pauses consumption; processing errors are logged and
// the offending message is rejected while the loop keeps running.
func Consume(ctx context.Context, url, queue string, log *zap.Logger, h Handler) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("events: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
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
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(ctx, conn, queue, log, h); err != nil {
			_ = conn.Close()
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Warn("events: consume loop ended", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, log *zap.Logger, h Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("events: set QoS failed", zap.Error(err))
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	var q amqp.Queue
	if queue == "" {
		// Private queue for this consumer only: server-named, exclusive,
		// auto-deleted when the connection drops.
		q, err = ch.QueueDeclare("", false, true, true, false, nil)
	} else {
		q, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	}
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			var ev Envelope
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				log.Warn("events: bad message body", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			if err := h(ctx, ev); err != nil {
				log.Warn("events: handler failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

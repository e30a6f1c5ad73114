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

// ConsumerConfig names the broker objects the audit consumer binds to.
type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// AuditConsumer reads every reservation event from a durable queue bound
// to the reservations exchange and appends it to the audit log.
type AuditConsumer struct {
	cfg   ConsumerConfig
	audit *zap.Logger
	log   *zap.Logger
}

func NewAuditConsumer(cfg ConsumerConfig, audit, log *zap.Logger) *AuditConsumer {
	if audit == nil {
		audit = zap.NewNop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditConsumer{cfg: cfg, audit: audit, log: log.Named("audit-consumer")}
}

// Run keeps a consumer attached to the broker until ctx is cancelled.
// Dial failures back off exponentially up to 30s; a dropped connection is
// re-established after a short pause.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, AuditBinding, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", AuditBinding, err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			c.log.Error("handle message failed", zap.Error(err))
			_ = d.Nack(false, false) // poison message, do not requeue
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *AuditConsumer) handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == 0 {
		return errors.New("event without type or reservation id")
	}
	c.audit.Info(ev.Type,
		zap.String("event_id", ev.EventID),
		zap.Uint64("reservation_id", ev.ReservationID),
		zap.Uint64("user_id", ev.UserID),
		zap.Uint64("actor_id", ev.ActorID),
		zap.Uint64("seat_id", ev.SeatID),
		zap.String("seat_number", ev.SeatNumber),
		zap.String("date", ev.Date),
		zap.String("time_slot", ev.TimeSlot),
		zap.String("status", ev.Status),
		zap.String("occurred_at", ev.OccurredAt),
	)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

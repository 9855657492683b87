package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"barbershop-booking/internal/model"
)

// Channel is the NOTIFY channel written by the appointments trigger.
const Channel = "appointment_changes"

// Listener holds one pooled connection in LISTEN mode and forwards every
// notification to publish. It reconnects after connection loss.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	publish func(model.Change)
	retry   time.Duration
	log     *zap.Logger
}

func NewListener(pool *pgxpool.Pool, publish func(model.Change), log *zap.Logger) *Listener {
	return &Listener{
		pool:    pool,
		channel: Channel,
		publish: publish,
		retry:   2 * time.Second,
		log:     log,
	}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn("change listener disconnected", zap.Error(err), zap.Duration("retry_in", l.retry))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.log.Info("listening for appointment changes", zap.String("channel", l.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		c, err := ParseChange(n.Payload)
		if err != nil {
			l.log.Warn("bad change payload", zap.String("payload", n.Payload), zap.Error(err))
			continue
		}
		l.publish(c)
	}
}

// ParseChange decodes a trigger payload such as
// {"op":"UPDATE","id":"…","at":"2026-10-18T12:00:00.1+00:00"}.
func ParseChange(payload string) (model.Change, error) {
	var c model.Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return c, err
	}
	switch c.Op {
	case model.ChangeInsert, model.ChangeUpdate, model.ChangeDelete:
	default:
		return c, fmt.Errorf("unknown op %q", c.Op)
	}
	if c.ID == "" {
		return c, fmt.Errorf("missing id")
	}
	return c, nil
}

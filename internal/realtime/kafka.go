package realtime

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"barbershop-booking/internal/model"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// KafkaSink republishes appointment changes to a topic, keyed by
// appointment id so changes of one appointment stay ordered.
type KafkaSink struct {
	w   MessageWriter
	log *zap.Logger
}

func NewKafkaSink(w MessageWriter, log *zap.Logger) *KafkaSink {
	return &KafkaSink{w: w, log: log}
}

// Run forwards changes until ch is closed or ctx is done. Write failures
// are logged and the change is skipped.
func (k *KafkaSink) Run(ctx context.Context, ch <-chan model.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			if err := k.Send(ctx, c); err != nil {
				k.log.Error("kafka publish failed", zap.String("id", c.ID), zap.Error(err))
			}
		}
	}
}

func (k *KafkaSink) Send(ctx context.Context, c model.Change) error {
	v, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(c.ID),
		Value: v,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("appointment." + string(c.Op))},
		},
	})
}

package kafka

import (
	"CommandCenter/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// OutcomeEvent 发布结果事件，供下游分析与通知服务消费
type OutcomeEvent struct {
	ContentID      uint64    `json:"content_id"`
	OwnerID        uint64    `json:"owner_id"`
	Platform       string    `json:"platform"`
	Status         string    `json:"status"`
	PlatformPostID string    `json:"platform_post_id,omitempty"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	FailureDetail  string    `json:"failure_detail,omitempty"`
	TraceID        string    `json:"trace_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type OutcomeProducer interface {
	Send(ctx context.Context, event *OutcomeEvent) error
	Close() error
}

type outcomeProducerImpl struct {
	producer sarama.SyncProducer
	topic    string
}

func NewOutcomeProducer(cfg *config.Config) (OutcomeProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return NewOutcomeProducerWith(producer, cfg.KafkaOutcomeProducer.Topic), nil
}

// NewOutcomeProducerWith 复用已有的 SyncProducer
func NewOutcomeProducerWith(producer sarama.SyncProducer, topic string) OutcomeProducer {
	return &outcomeProducerImpl{producer: producer, topic: topic}
}

// Send 以内容ID为 key，保证同一条内容的事件落在同一分区
func (p *outcomeProducerImpl) Send(ctx context.Context, event *OutcomeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outcome event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(event.ContentID, 10)),
		Value: sarama.ByteEncoder(value),
	}
	if event.TraceID != "" {
		msg.Headers = []sarama.RecordHeader{{Key: []byte("trace_id"), Value: []byte(event.TraceID)}}
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	log.DebugContext(ctx, "outcome event sent", "content_id", event.ContentID, "partition", partition, "offset", offset)
	return nil
}

func (p *outcomeProducerImpl) Close() error {
	return p.producer.Close()
}

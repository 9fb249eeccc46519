package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"meela-intake/models"
	"meela-intake/monitoring"
	"meela-intake/utils"
)

// FormIndexMapping задаёт типы полей индекса анкет: email ищется и целиком, и по частям.
const FormIndexMapping = `{
  "mappings": {
    "properties": {
      "user_id":          {"type": "keyword"},
      "form_step":        {"type": "integer"},
      "email":            {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "therapy_for_whom": {"type": "keyword"},
      "therapist_gender": {"type": "keyword"},
      "created_at":       {"type": "date"},
      "updated_at":       {"type": "date"}
    }
  }
}`

// FormConsumer читает события анкет из Kafka и индексирует анкеты в Elasticsearch.
type FormConsumer struct {
	es       utils.ElasticsearchClient
	index    string
	reader   *kafka.Reader
	logger   *zap.Logger
	attempts uint
	shutdown chan struct{}
	done     chan struct{}
}

func NewFormConsumer(broker, topic, groupID string, es utils.ElasticsearchClient, index string, logger *zap.Logger) *FormConsumer {
	return &FormConsumer{
		es:    es,
		index: index,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: []string{broker},
			Topic:   topic,
			GroupID: groupID,
			MaxWait: 10 * time.Second,
		}),
		logger:   logger,
		attempts: 3,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (c *FormConsumer) Start(ctx context.Context) {
	c.logger.Info("starting Kafka consumer", zap.String("topic", c.reader.Config().Topic))

	if err := c.es.EnsureIndex(ctx, c.index, FormIndexMapping); err != nil {
		c.logger.Warn("failed to prepare search index", zap.String("index", c.index), zap.Error(err))
	}

	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.shutdown:
				return
			case <-ctx.Done():
				return
			default:
				c.processMessage(ctx)
			}
		}
	}()
}

func (c *FormConsumer) Stop() {
	close(c.shutdown)
	// Close прерывает ожидающий FetchMessage
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing Kafka reader", zap.Error(err))
	}
	<-c.done
}

func (c *FormConsumer) processMessage(ctx context.Context) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return
		}
		c.logger.Warn("Kafka read error, will retry", zap.Error(err))
		select {
		case <-time.After(5 * time.Second):
		case <-c.shutdown:
		}
		return
	}

	err = retry.New(
		retry.Attempts(c.attempts),
		retry.Delay(time.Second),
		retry.Context(ctx),
	).Do(func() error {
		return c.handleMessage(ctx, msg.Value)
	})
	if err != nil {
		// событие теряется для поиска, но не блокирует партицию
		c.logger.Error("failed to handle form event", zap.ByteString("key", msg.Key), zap.Error(err))
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warn("failed to commit offset", zap.Error(err))
	}
}

func (c *FormConsumer) handleMessage(ctx context.Context, value []byte) error {
	var event models.FormEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.Warn("skipping malformed form event", zap.Error(err))
		return nil
	}

	switch event.Event {
	case models.EventFormCreated, models.EventFormUpdated:
		if err := c.indexForm(ctx, event.Data); err != nil {
			return err
		}
		monitoring.EventsIndexed.WithLabelValues(event.Event).Inc()
		c.logger.Debug("form indexed", zap.String("event", event.Event), zap.String("user_id", event.Data.UserID))
	default:
		c.logger.Warn("unknown form event", zap.String("event", event.Event))
	}
	return nil
}

func (c *FormConsumer) indexForm(ctx context.Context, form models.IntakeForm) error {
	if form.UserID == "" {
		c.logger.Warn("form event without user_id skipped")
		return nil
	}
	return c.es.IndexDocument(ctx, c.index, form.UserID, form)
}

package kafka

import (
	"context"
	"encoding/json"
	"time"

	"ela-checkout/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

type orderEvent struct {
	Type      string       `json:"type"`
	Order     models.Order `json:"order"`
	Timestamp time.Time    `json:"timestamp"`
}

func (p *Producer) publish(eventType string, order models.Order) error {
	msgBytes, err := json.Marshal(orderEvent{
		Type:      eventType,
		Order:     order,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(order.StripePaymentIntentID),
			Value: msgBytes,
		},
	)
}

// PublishOrderCreated streams the order creation event to Kafka
func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish("order.created", order)
}

// PublishOrderStatusChanged streams a payment status change to Kafka
func (p *Producer) PublishOrderStatusChanged(order models.Order) error {
	return p.publish("order.status_changed", order)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

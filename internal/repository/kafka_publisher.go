package repository

import (
	"context"
	"fmt"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/kafka"
	"PriceCast/pkg/util"
)

// ForecastEvent is the wire form of a published forecast.
type ForecastEvent struct {
	SKU              string   `json:"sku"`
	TimeKey          int64    `json:"time_key"`
	PvpIsCompetitorA float64  `json:"pvp_is_competitorA"`
	PvpIsCompetitorB float64  `json:"pvp_is_competitorB"`
	CreatedAt        int64    `json:"created_at"`
	ActualA          *float64 `json:"pvp_is_competitorA_actual,omitempty"`
	ActualB          *float64 `json:"pvp_is_competitorB_actual,omitempty"`
}

// KafkaPublisher emits forecast events keyed by sku, so all events for one
// product land on the same partition in order.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher creates the publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) PublishForecast(ctx context.Context, f *models.Forecast) error {
	ev := ForecastEvent{
		SKU:              f.SKU,
		TimeKey:          util.TimeToDayKey(f.TimeKey),
		PvpIsCompetitorA: f.PvpIsCompetitorA,
		PvpIsCompetitorB: f.PvpIsCompetitorB,
		CreatedAt:        f.CreatedAt.Unix(),
		ActualA:          f.ActualCompetitorA,
		ActualB:          f.ActualCompetitorB,
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(f.SKU), ev); err != nil {
		return fmt.Errorf("publish forecast %s/%d: %w", ev.SKU, ev.TimeKey, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

var _ domrepo.Publisher = (*NopPublisher)(nil)

func (NopPublisher) PublishForecast(context.Context, *models.Forecast) error { return nil }
func (NopPublisher) Close() error                                            { return nil }

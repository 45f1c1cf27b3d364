package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces prediction batches to a Kafka topic, one message per
// location. It implements inference.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the predictions topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes every prediction of the batch and writes them in a
// single WriteMessages call. Messages are keyed by address so a location
// always lands on the same partition.
func (p *Publisher) PublishBatch(ctx context.Context, batch domain.PredictionBatch) error {
	if len(batch.Predictions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(batch.Predictions))
	for i := range batch.Predictions {
		msg, err := serializeToMessage(batch, batch.Predictions[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d predictions: %w", len(msgs), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// predictionMessage is the JSON value of a published prediction.
type predictionMessage struct {
	BatchID     string    `json:"batch_id"`
	PredictedAt time.Time `json:"predicted_at"`
	Location    string    `json:"location"`
	Label       string    `json:"address"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	ExpectRisk  float64   `json:"expect_risk"`
	Weather     string    `json:"openweather"`
}

// serializeToMessage marshals one prediction into a Kafka message.
func serializeToMessage(batch domain.PredictionBatch, pred domain.Prediction) (kafkago.Message, error) {
	data, err := json.Marshal(predictionMessage{
		BatchID:     batch.ID,
		PredictedAt: batch.PredictedAt,
		Location:    pred.ModelKey,
		Label:       pred.Address,
		X:           pred.X,
		Y:           pred.Y,
		ExpectRisk:  pred.ExpectRisk,
		Weather:     pred.OpenWeather,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction: %w", err)
	}
	key := pred.ModelKey
	if key == "" {
		key = pred.Address
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "batch_id", Value: []byte(batch.ID)},
			{Key: "predicted_at", Value: []byte(batch.PredictedAt.Format(time.RFC3339))},
		},
	}, nil
}

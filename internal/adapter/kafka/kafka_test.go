package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch() domain.PredictionBatch {
	return domain.PredictionBatch{
		ID:          "b8f7c3de-4a1e-4c55-9d0c-6a8e1f3b2a10",
		PredictedAt: time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC),
		Predictions: []domain.Prediction{
			{X: 128.59634, Y: 35.87055, Address: "동인동", ExpectRisk: 7.5, OpenWeather: domain.WeatherRain, ModelKey: "대구광역시 중구 동인동"},
			{X: 128.6248, Y: 35.8601, Address: "범어동", ExpectRisk: 4, OpenWeather: domain.WeatherOvercast},
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	batch := testBatch()

	msg, err := serializeToMessage(batch, batch.Predictions[0])
	require.NoError(t, err)

	assert.Equal(t, []byte("대구광역시 중구 동인동"), msg.Key)
	assert.JSONEq(t, `{
		"batch_id": "b8f7c3de-4a1e-4c55-9d0c-6a8e1f3b2a10",
		"predicted_at": "2025-01-15T08:30:00Z",
		"location": "대구광역시 중구 동인동",
		"address": "동인동",
		"x": 128.59634,
		"y": 35.87055,
		"expect_risk": 7.5,
		"openweather": "비"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, kafkago.Header{Key: "batch_id", Value: []byte(batch.ID)}, msg.Headers[0])
	assert.Equal(t, kafkago.Header{Key: "predicted_at", Value: []byte("2025-01-15T08:30:00Z")}, msg.Headers[1])
}

func TestSerializeToMessage_KeyFallsBackToLabel(t *testing.T) {
	batch := testBatch()

	msg, err := serializeToMessage(batch, batch.Predictions[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("범어동"), msg.Key)

	var decoded predictionMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Empty(t, decoded.Location)
}

func TestPublishBatch_Empty(t *testing.T) {
	p := NewPublisher([]string{"localhost:1"}, "risk-predictions", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer p.Close()

	err := p.PublishBatch(context.Background(), domain.PredictionBatch{ID: "empty"})
	require.NoError(t, err)
}

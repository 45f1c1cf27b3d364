package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/observability"
	"github.com/ljjun8453/BLEP-Contest/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	mu    sync.Mutex
	calls int
	size  int
}

func (m *mockSource) Snapshot(_ context.Context) domain.PredictionBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	preds := make([]domain.Prediction, m.size)
	for i := range preds {
		preds[i] = domain.Prediction{Address: "동인동 (중구)", ExpectRisk: float64(i)}
	}
	return domain.PredictionBatch{ID: "batch", Predictions: preds}
}

type mockLoader struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	loaded    []domain.PredictionBatch
	done      chan struct{}
}

func newMockLoader(failFirst int) *mockLoader {
	return &mockLoader{failFirst: failFirst, done: make(chan struct{}, 16)}
}

func (m *mockLoader) PublishBatch(_ context.Context, batch domain.PredictionBatch) error {
	m.mu.Lock()
	defer func() {
		m.mu.Unlock()
		m.done <- struct{}{}
	}()
	m.attempts++
	if m.attempts <= m.failFirst {
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, batch)
	return nil
}

func (m *mockLoader) snapshot() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts, len(m.loaded)
}

func testOptions() pipeline.Options {
	return pipeline.Options{
		Interval:       time.Minute,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for publish")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func run(ctx context.Context, p *pipeline.Pipeline) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	return errCh
}

// --- tests ---

func TestPipeline_PublishesImmediatelyAndOnTick(t *testing.T) {
	src := &mockSource{size: 3}
	ldr := newMockLoader(0)
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := run(ctx, pipeline.New(src, ldr, discardLogger(), metrics, testOptions(), clock))

	waitFor(t, ldr.done)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitFor(t, ldr.done)

	cancel()
	require.NoError(t, <-errCh)

	_, loaded := ldr.snapshot()
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 6.0, counterValue(t, metrics.MessagesPublished))
	assert.Equal(t, 0.0, counterValue(t, metrics.PublishErrors))
}

func TestPipeline_RetriesFailedPublish(t *testing.T) {
	src := &mockSource{size: 2}
	ldr := newMockLoader(2)
	metrics := observability.NewMetricsForTesting()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := run(ctx, pipeline.New(src, ldr, discardLogger(), metrics, testOptions(), clockwork.NewFakeClock()))

	for range 3 {
		waitFor(t, ldr.done)
	}
	cancel()
	require.NoError(t, <-errCh)

	attempts, loaded := ldr.snapshot()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, loaded)
	assert.Equal(t, 2.0, counterValue(t, metrics.PublishErrors))
	assert.Equal(t, 2.0, counterValue(t, metrics.MessagesPublished))
}

func TestPipeline_DropsBatchAfterMaxAttempts(t *testing.T) {
	src := &mockSource{size: 2}
	ldr := newMockLoader(100)
	metrics := observability.NewMetricsForTesting()
	opts := testOptions()
	opts.MaxAttempts = 2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := clockwork.NewFakeClock()
	errCh := run(ctx, pipeline.New(src, ldr, discardLogger(), metrics, opts, clock))

	for range 2 {
		waitFor(t, ldr.done)
	}
	require.Eventually(t, func() bool {
		return counterValue(t, metrics.PublishErrors) == 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	attempts, loaded := ldr.snapshot()
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 0, loaded)
	assert.Equal(t, 2.0, counterValue(t, metrics.PublishErrors))
}

func TestPipeline_SkipsEmptyBatch(t *testing.T) {
	src := &mockSource{size: 0}
	ldr := newMockLoader(0)
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := run(ctx, pipeline.New(src, ldr, discardLogger(), observability.NewMetricsForTesting(), testOptions(), clock))

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	cancel()
	require.NoError(t, <-errCh)

	attempts, _ := ldr.snapshot()
	assert.Equal(t, 0, attempts)
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.calls)
}

func TestPipeline_RunningGauge(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithCancel(context.Background())
	p := pipeline.New(&mockSource{}, newMockLoader(0), discardLogger(), metrics, testOptions(), clock)
	errCh := run(ctx, p)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	var m dto.Metric
	require.NoError(t, metrics.PublisherRunning.Write(&m))
	assert.Equal(t, 1.0, m.GetGauge().GetValue())

	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, metrics.PublisherRunning.Write(&m))
	assert.Equal(t, 0.0, m.GetGauge().GetValue())
}

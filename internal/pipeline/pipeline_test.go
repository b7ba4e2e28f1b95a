package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/gale-audit/internal/domain"
	"github.com/couchcryptid/gale-audit/internal/observability"
	"github.com/couchcryptid/gale-audit/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawJob
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawJob, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type failingExtractor struct {
	calls atomic.Int64
}

func (m *failingExtractor) ExtractBatch(_ context.Context, _ int) ([]domain.RawJob, error) {
	m.calls.Add(1)
	return nil, errors.New("broker unavailable")
}

type mockLoader struct {
	loaded []domain.EventReport
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, reports []domain.EventReport) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, reports...)
	return nil
}

func newClassifier() *pipeline.EventClassifier {
	return pipeline.NewClassifier(domain.DefaultReferenceNetwork(), domain.DefaultThresholds(), slog.Default())
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawJob(t, "ragasa")

	ext := &mockExtractor{batches: [][]domain.RawJob{{raw}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newClassifier(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "ragasa", ldr.loaded[0].EventID)
	assert.Equal(t, domain.TierNoSignal, ldr.loaded[0].Result.Tier)
	assert.NoError(t, p.CheckReadiness(ctx))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, newClassifier(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_PoisonPillSkipped(t *testing.T) {
	committed := map[string]bool{}
	commitFn := func(id string) func(context.Context) error {
		return func(context.Context) error {
			committed[id] = true
			return nil
		}
	}

	bad := domain.RawJob{Value: []byte("not-json{{{"), Commit: commitFn("bad")}
	good := makeRawJob(t, "good")
	good.Commit = commitFn("good")

	ext := &mockExtractor{batches: [][]domain.RawJob{{bad, good}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newClassifier(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "good", ldr.loaded[0].EventID)
	assert.True(t, committed["bad"], "poison pill offset must be committed")
	assert.True(t, committed["good"])
}

func TestPipeline_Run_InvalidEventStillLoaded(t *testing.T) {
	raw := makeRawJobWithWindows(t, "inverted", `{"gale": {"start": "2025-09-24 20:20", "end": "2025-09-23 14:20"}}`)

	ext := &mockExtractor{batches: [][]domain.RawJob{{raw}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newClassifier(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.NotEmpty(t, ldr.loaded[0].Error, "validation failure travels on the report")
	assert.Empty(t, ldr.loaded[0].Result.Tier)
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false
	raw := makeRawJob(t, "ragasa")
	raw.Commit = func(context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawJob{{raw}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newClassifier(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.True(t, commitCalled)
}

func TestPipeline_Run_ExtractorErrorBacksOff(t *testing.T) {
	ext := &failingExtractor{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newClassifier(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	// 200ms + 400ms of backoff fit in the timeout; a tight loop would run thousands of times.
	assert.LessOrEqual(t, int(ext.calls.Load()), 4)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_LoaderError(t *testing.T) {
	raw := makeRawJob(t, "ragasa")

	ext := &mockExtractor{batches: [][]domain.RawJob{{raw}}}
	ldr := &mockLoader{err: errors.New("sink unavailable")}

	p := pipeline.New(ext, newClassifier(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Error(t, p.CheckReadiness(context.Background()), "failed loads never mark the pipeline ready")
}

func TestEventClassifier_Classify(t *testing.T) {
	c := newClassifier()

	t.Run("valid job", func(t *testing.T) {
		rep, err := c.Classify(context.Background(), makeRawJob(t, "ragasa"))
		require.NoError(t, err)
		assert.Equal(t, "ragasa", rep.EventID)
		assert.False(t, rep.GeneratedAt.IsZero())
	})

	t.Run("unparseable job", func(t *testing.T) {
		_, err := c.Classify(context.Background(), domain.RawJob{Value: []byte("nope")})
		assert.Error(t, err)
	})

	t.Run("missing event id", func(t *testing.T) {
		_, err := c.Classify(context.Background(), domain.RawJob{Value: []byte(`{"readings":[]}`)})
		assert.Error(t, err)
	})
}

// --- helpers ---

func makeRawJob(t *testing.T, id string) domain.RawJob {
	return makeRawJobWithWindows(t, id, "{}")
}

func makeRawJobWithWindows(t *testing.T, id, windows string) domain.RawJob {
	t.Helper()
	value := []byte(`{
		"event_id": "` + id + `",
		"readings": [
			{"station": "Cheung Chau", "timestamp": "2025-09-23 14:20", "mean_kmh": 68.5},
			{"station": "Kai Tak", "timestamp": "2025-09-23 14:20", "mean_kmh": 52.0}
		],
		"windows": ` + windows + `
	}`)
	require.True(t, json.Valid(value), "helper produced invalid JSON")
	return domain.RawJob{Key: []byte(id), Value: value}
}

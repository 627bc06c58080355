package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
	"github.com/pocean23/argopy/internal/observability"
	"github.com/pocean23/argopy/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	missing map[int]bool
	broken  map[int]bool
	calls   atomic.Int64
}

func (m *mockExtractor) Load(ctx context.Context, ref domain.FloatRef) (*dataset.Dataset, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.missing[ref.WMO] {
		return nil, &dataset.SourceNotFoundError{Path: fmt.Sprintf("/gdac/%d_prof.nc", ref.WMO)}
	}
	if m.broken[ref.WMO] {
		return nil, errors.New("truncated header")
	}
	ds := dataset.New()
	ds.SetDim(dataset.DimProf, 3)
	ds.Attrs().Set("wmo", ref.WMO)
	return ds, nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := ds.Clone()
	out.SetMode(dataset.Point)
	return out, nil
}

type mockLoader struct {
	mu     sync.Mutex
	stored []domain.FloatRef
	err    error
}

func (m *mockLoader) Store(_ context.Context, ref domain.FloatRef, _ *dataset.Dataset) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, ref)
	return fmt.Sprintf("/out/%d_point.nc", ref.WMO), nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func refs(wmos ...int) []domain.FloatRef {
	out := make([]domain.FloatRef, len(wmos))
	for i, w := range wmos {
		out[i] = domain.FloatRef{Institute: "IF", WMO: w}
	}
	return out
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, slog.Default(), metrics, 2)

	require.Error(t, p.CheckReadiness(context.Background()))

	summary, err := p.Run(context.Background(), refs(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Loaded)
	assert.Equal(t, 3, summary.Written)
	assert.Zero(t, summary.Missing)
	assert.Zero(t, summary.Failed)
	assert.ElementsMatch(t, []string{"/out/1_point.nc", "/out/2_point.nc", "/out/3_point.nc"}, summary.Outputs)
	assert.ElementsMatch(t, refs(1, 2, 3), ldr.stored)
	assert.NoError(t, p.CheckReadiness(context.Background()))

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DatasetsLoaded))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DatasetsWritten))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Progress(t *testing.T) {
	ext := &mockExtractor{missing: map[int]bool{2: true}}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 1)
	assert.Equal(t, pipeline.Summary{}, p.Progress())

	summary, err := p.Run(context.Background(), refs(1, 2))
	require.NoError(t, err)
	assert.Equal(t, summary, p.Progress())

	got := p.Progress()
	got.Outputs[0] = "changed"
	assert.Equal(t, "/out/1_point.nc", p.Progress().Outputs[0])

	_, err = p.Run(context.Background(), refs(3))
	require.NoError(t, err)
	assert.Equal(t, pipeline.Summary{Loaded: 1, Written: 1, Outputs: []string{"/out/3_point.nc"}}, p.Progress(),
		"each run starts from zero")
}

func TestPipeline_Run_MissingSourceSkipped(t *testing.T) {
	ext := &mockExtractor{missing: map[int]bool{2: true}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), metrics, 1)

	summary, err := p.Run(context.Background(), refs(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourcesMissing))
	assert.ElementsMatch(t, refs(1, 3), ldr.stored)
}

func TestPipeline_Run_LoadErrorCounted(t *testing.T) {
	ext := &mockExtractor{broken: map[int]bool{1: true}}
	metrics := newTestMetrics()
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), metrics, 1)

	summary, err := p.Run(context.Background(), refs(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_TransformError(t *testing.T) {
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{}, &mockTransformer{err: errors.New("bad data")}, ldr, slog.Default(), metrics, 2)

	summary, err := p.Run(context.Background(), refs(1, 2))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Loaded)
	assert.Equal(t, 2, summary.Failed)
	assert.Empty(t, ldr.stored)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.NoError(t, p.CheckReadiness(context.Background()), "a completed run is ready even without output")
}

func TestPipeline_Run_SinkErrorAborts(t *testing.T) {
	ldr := &mockLoader{err: errors.New("disk full")}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 1)

	_, err := p.Run(context.Background(), refs(1, 2, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "IF:1")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := p.Run(ctx, refs(1, 2, 3))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.stored)
	assert.Zero(t, ext.calls.Load())
}

func TestPipeline_Run_NoFloats(t *testing.T) {
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 4)

	summary, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Summary{}, summary)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
	"github.com/pocean23/argopy/internal/observability"
)

// Extractor loads the raw dataset of one float.
type Extractor interface {
	Load(ctx context.Context, ref domain.FloatRef) (*dataset.Dataset, error)
}

// Transformer converts a raw float dataset into its output form.
type Transformer interface {
	Transform(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error)
}

// Loader writes a transformed dataset and returns where it went.
type Loader interface {
	Store(ctx context.Context, ref domain.FloatRef, ds *dataset.Dataset) (string, error)
}

// Summary reports what one run did.
type Summary struct {
	Loaded  int `json:"loaded"`
	Written int `json:"written"`
	Missing int `json:"missing"`
	Failed  int `json:"failed"`
	// Outputs lists the written locations in completion order.
	Outputs []string `json:"outputs"`
}

// Pipeline orchestrates extract-transform-load over a list of floats.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	workers     int

	mu       sync.Mutex
	progress Summary
}

// New creates a Pipeline with the given stages and observability. At most
// workers floats are processed at once.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		workers:     max(workers, 1),
	}
}

// CheckReadiness returns nil once the pipeline has written a dataset or
// finished a run.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any floats yet")
	}
	return nil
}

// Progress returns the counts of the current or last run.
func (p *Pipeline) Progress() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.progress
	s.Outputs = slices.Clone(s.Outputs)
	return s
}

// Run processes every float. A missing source or a failed transformation is
// logged and counted and the other floats continue; a sink failure or a
// cancelled context stops the run and is returned.
func (p *Pipeline) Run(ctx context.Context, refs []domain.FloatRef) (Summary, error) {
	p.logger.Info("pipeline started", "floats", len(refs), "workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.mu.Lock()
	p.progress = Summary{}
	p.mu.Unlock()
	record := func(f func(*Summary)) {
		p.mu.Lock()
		f(&p.progress)
		p.mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return p.process(gctx, ref, record)
		})
	}
	err := g.Wait()
	summary := p.Progress()
	if err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"loaded", summary.Loaded,
		"written", summary.Written,
		"missing", summary.Missing,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (p *Pipeline) process(ctx context.Context, ref domain.FloatRef, record func(func(*Summary))) error {
	raw, err := p.extractor.Load(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, dataset.ErrSourceNotFound) {
			p.logger.Warn("source not found, skipping float", "float", ref.String(), "error", err)
			p.metrics.SourcesMissing.Inc()
			record(func(s *Summary) { s.Missing++ })
			return nil
		}
		p.logger.Warn("load failed, skipping float", "float", ref.String(), "error", err)
		p.metrics.TransformErrors.Inc()
		record(func(s *Summary) { s.Failed++ })
		return nil
	}
	p.metrics.DatasetsLoaded.Inc()
	if n, ok := raw.DimLen(dataset.DimProf); ok {
		p.metrics.ProfilesPerDataset.Observe(float64(n))
	}
	record(func(s *Summary) { s.Loaded++ })

	start := time.Now()
	out, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("transform failed, skipping float", "float", ref.String(), "error", err)
		p.metrics.TransformErrors.Inc()
		record(func(s *Summary) { s.Failed++ })
		return nil
	}
	p.metrics.TransformDuration.Observe(time.Since(start).Seconds())

	path, err := p.loader.Store(ctx, ref, out)
	if err != nil {
		p.logger.Error("store failed", "float", ref.String(), "error", err)
		return fmt.Errorf("storing %s: %w", ref, err)
	}
	p.metrics.DatasetsWritten.Inc()
	p.ready.Store(true)
	p.logger.Debug("float written", "float", ref.String(), "path", path)
	record(func(s *Summary) {
		s.Written++
		s.Outputs = append(s.Outputs, path)
	})
	return nil
}

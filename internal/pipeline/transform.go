package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
	"github.com/pocean23/argopy/internal/observability"
)

// ArgoTransformer implements Transformer with the domain operations:
// normalize types, optionally reconcile data modes, then reshape to the
// requested form.
type ArgoTransformer struct {
	form           dataset.Mode
	filterDataMode bool
	keepError      bool
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewTransformer creates an ArgoTransformer producing datasets in form.
// metrics may be nil.
func NewTransformer(form dataset.Mode, filterDataMode, keepError bool, logger *slog.Logger, metrics *observability.Metrics) *ArgoTransformer {
	return &ArgoTransformer{
		form:           form,
		filterDataMode: filterDataMode,
		keepError:      keepError,
		logger:         logger,
		metrics:        metrics,
	}
}

func (t *ArgoTransformer) Transform(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, failures := domain.CastTypes(ds, t.logger)
	if t.metrics != nil && len(failures) > 0 {
		t.metrics.CastFailures.Add(float64(len(failures)))
	}

	if t.filterDataMode {
		var err error
		if out, err = domain.FilterDataMode(out, t.logger, domain.WithKeepError(t.keepError)); err != nil {
			return nil, err
		}
	}

	from := out.Mode()
	if from == dataset.Unknown {
		from = out.InferMode()
	}
	switch {
	case from == t.form:
		return out, nil
	case t.form == dataset.Point && from == dataset.Profile:
		return domain.ProfileToPoint(out, t.logger)
	case t.form == dataset.Profile && from == dataset.Point:
		return domain.PointToProfile(out, t.logger)
	default:
		return nil, fmt.Errorf("cannot reshape %s dataset to %s", from, t.form)
	}
}

package metrics

import (
	"context"
	"time"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// StatusOK labels successful backend requests. Failed requests are labelled
// with their error code.
const StatusOK = "ok"

type instrumentedSearchable struct {
	next search.Searchable
}

// InstrumentSearchable wraps s so every Search call is counted and timed.
func InstrumentSearchable(s search.Searchable) search.Searchable {
	return &instrumentedSearchable{next: s}
}

func (i *instrumentedSearchable) Search(ctx context.Context, q query.Query) (*search.ResultSet, error) {
	op := Operation(q)
	start := time.Now()

	rs, err := i.next.Search(ctx, q)

	BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		BackendRequestsTotal.WithLabelValues(op, status(err)).Inc()
		return nil, err
	}
	BackendRequestsTotal.WithLabelValues(op, StatusOK).Inc()
	BackendHitsTotal.WithLabelValues(op).Add(float64(rs.Len()))
	return rs, nil
}

// Operation names the backend operation q performs.
func Operation(q query.Query) string {
	if q.IsCountOnly() {
		return OperationCount
	}
	if _, _, ok := q.Window(); ok {
		return OperationSlice
	}
	return OperationSearch
}

func status(err error) string {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeSearchFailed
}

type instrumentedTransformer[T any] struct {
	next search.Transformer[T]
}

// InstrumentTransformer wraps t so every transformed hit is counted by
// outcome.
func InstrumentTransformer[T any](t search.Transformer[T]) search.Transformer[T] {
	return &instrumentedTransformer[T]{next: t}
}

func (i *instrumentedTransformer[T]) Transform(ctx context.Context, hits []search.Hit) ([]T, error) {
	objs, err := i.next.Transform(ctx, hits)
	if err != nil {
		TransformEntriesTotal.WithLabelValues(ModeStrict, OutcomeError).Add(float64(len(hits)))
		return nil, err
	}
	TransformEntriesTotal.WithLabelValues(ModeStrict, OutcomeObject).Add(float64(len(objs)))
	TransformEntriesTotal.WithLabelValues(ModeStrict, OutcomeDropped).Add(float64(max(0, len(hits)-len(objs))))
	return objs, nil
}

func (i *instrumentedTransformer[T]) HybridTransform(ctx context.Context, hits []search.Hit) ([]search.Entry[T], error) {
	entries, err := i.next.HybridTransform(ctx, hits)
	if err != nil {
		TransformEntriesTotal.WithLabelValues(ModeHybrid, OutcomeError).Add(float64(len(hits)))
		return nil, err
	}
	var raw int
	for _, e := range entries {
		if e.IsRaw() {
			raw++
		}
	}
	TransformEntriesTotal.WithLabelValues(ModeHybrid, OutcomeObject).Add(float64(len(entries) - raw))
	TransformEntriesTotal.WithLabelValues(ModeHybrid, OutcomeRaw).Add(float64(raw))
	return entries, nil
}

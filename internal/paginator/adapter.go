// Package paginator adapts a search backend and a transformer to the
// count/slice pagination protocol, fetching one window of hits at a time.
package paginator

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// Adapter lazily paginates the hits of one query.
//
// Each Slice call costs one backend round trip and transforms only the hits
// in its window. The total is read once and then fixed for the lifetime of
// the adapter. An Adapter is safe for concurrent use.
type Adapter[T any] struct {
	searchable  search.Searchable
	query       query.Query
	transformer search.Transformer[T]
	logger      *slog.Logger

	// count is set once; racing first reads may each query the backend,
	// the first stored value wins.
	count atomic.Pointer[int]
}

// Option configures an Adapter.
type Option func(*adapterOptions)

type adapterOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger for count and slice events. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *adapterOptions) {
		o.logger = l
	}
}

// New creates an adapter over q. Any limit or window on q is ignored.
func New[T any](s search.Searchable, q query.Query, t search.Transformer[T], opts ...Option) *Adapter[T] {
	o := adapterOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Adapter[T]{
		searchable:  s,
		query:       q,
		transformer: t,
		logger:      o.logger,
	}
}

// Query returns the query the adapter paginates.
func (a *Adapter[T]) Query() query.Query {
	return a.query
}

// Count returns the total number of hits for the query.
func (a *Adapter[T]) Count(ctx context.Context) (int, error) {
	if c := a.count.Load(); c != nil {
		return *c, nil
	}

	rs, err := a.searchable.Search(ctx, a.query.CountOnly())
	if err != nil {
		return 0, errors.AtStage(errors.StageSearch, errors.ErrCodeSearchFailed, err)
	}

	total := rs.TotalHits()
	if !a.count.CompareAndSwap(nil, &total) {
		a.logger.Debug("paginator_count_raced", slog.String("query", a.query.String()))
	}
	a.logger.Debug("paginator_count",
		slog.String("query", a.query.String()),
		slog.Int("total", *a.count.Load()))

	return *a.count.Load(), nil
}

// Slice returns the transformed hits in [offset, offset+length), in backend
// order. Offsets at or past Count yield an empty slice. A negative offset or
// non-positive length fails with errors.ErrInvalidSlice.
func (a *Adapter[T]) Slice(ctx context.Context, offset, length int) ([]T, error) {
	hits, err := a.window(ctx, offset, length)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []T{}, nil
	}

	objs, err := a.transformer.Transform(ctx, hits)
	if err != nil {
		return nil, errors.AtStage(errors.StageTransform, errors.ErrCodeTransformation, err)
	}
	return objs, nil
}

// HybridSlice is Slice with hybrid transformation: hits without a backing
// object are returned as raw entries instead of being dropped.
func (a *Adapter[T]) HybridSlice(ctx context.Context, offset, length int) ([]search.Entry[T], error) {
	hits, err := a.window(ctx, offset, length)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []search.Entry[T]{}, nil
	}

	entries, err := a.transformer.HybridTransform(ctx, hits)
	if err != nil {
		return nil, errors.AtStage(errors.StageTransform, errors.ErrCodeTransformation, err)
	}
	return entries, nil
}

func (a *Adapter[T]) window(ctx context.Context, offset, length int) ([]search.Hit, error) {
	if offset < 0 || length <= 0 {
		return nil, errors.InvalidSlice(offset, length)
	}

	total, err := a.Count(ctx)
	if err != nil {
		return nil, err
	}
	if offset >= total {
		return nil, nil
	}
	// Never ask the backend for more than remains; offset+length must not
	// overflow.
	length = min(length, total-offset)

	rs, err := a.searchable.Search(ctx, a.query.WithWindow(offset, length))
	if err != nil {
		return nil, errors.AtStage(errors.StageSearch, errors.ErrCodeSearchFailed, err)
	}

	a.logger.Debug("paginator_slice",
		slog.String("query", a.query.String()),
		slog.Int("offset", offset),
		slog.Int("length", length),
		slog.Int("hits", rs.Len()))

	return rs.Results(), nil
}

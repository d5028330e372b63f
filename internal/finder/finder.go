// Package finder is the entry point for searching: it builds a query,
// runs it against a search backend and turns the hits into domain objects,
// either eagerly or through a lazy paginator.
package finder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/pager"
	"github.com/Aman-CERP/hitpager/internal/paginator"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// Finder runs queries against one Searchable and maps hits with one
// Transformer. It holds no per-call state and is safe for concurrent use.
type Finder[T any] struct {
	searchable  search.Searchable
	transformer search.Transformer[T]
	builder     *query.Builder
	logger      *slog.Logger

	pageSize  int
	normalize bool
}

// Option configures a Finder.
type Option func(*options)

type options struct {
	builder   *query.Builder
	logger    *slog.Logger
	pageSize  int
	normalize bool
}

// WithBuilder sets the query builder. Defaults to query.NewBuilder().
func WithBuilder(b *query.Builder) Option {
	return func(o *options) {
		o.builder = b
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPageSize sets the page size of pagers returned by FindPaginated.
func WithPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithNormalizeOutOfRange makes pagers clamp out-of-range pages to the last
// page.
func WithNormalizeOutOfRange(normalize bool) Option {
	return func(o *options) {
		o.normalize = normalize
	}
}

// New creates a Finder.
func New[T any](s search.Searchable, t search.Transformer[T], opts ...Option) *Finder[T] {
	o := options{pageSize: pager.DefaultMaxPerPage}
	for _, opt := range opts {
		opt(&o)
	}
	if o.builder == nil {
		o.builder = query.NewBuilder()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.pageSize < 1 {
		o.pageSize = pager.DefaultMaxPerPage
	}

	return &Finder[T]{
		searchable:  s,
		transformer: t,
		builder:     o.builder,
		logger:      o.logger,
		pageSize:    o.pageSize,
		normalize:   o.normalize,
	}
}

// Find returns the domain objects for the hits of in, in backend order.
// A positive limit bounds the number of hits; 0 leaves it to the backend
// default. Hits the transformer cannot map are dropped or fail the call,
// depending on the transformer.
func (f *Finder[T]) Find(ctx context.Context, in query.Input, limit int) ([]T, error) {
	rs, err := f.FindResultSet(ctx, in, limit)
	if err != nil {
		return nil, err
	}
	return f.TransformResultSet(ctx, rs)
}

// FindHybrid is Find without dropping: it returns exactly one entry per hit,
// raw when the hit has no domain object.
func (f *Finder[T]) FindHybrid(ctx context.Context, in query.Input, limit int) ([]search.Entry[T], error) {
	rs, err := f.FindResultSet(ctx, in, limit)
	if err != nil {
		return nil, err
	}
	return f.HybridTransformResultSet(ctx, rs)
}

// FindResultSet runs in and returns the raw result set without
// transformation.
func (f *Finder[T]) FindResultSet(ctx context.Context, in query.Input, limit int) (*search.ResultSet, error) {
	q, err := f.build(in)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, errors.ValidationError(fmt.Sprintf("limit must not be negative, got %d", limit), nil).
			WithStage(errors.StageQueryBuild)
	}
	if limit > 0 {
		q = q.WithLimit(limit)
	}
	return f.Search(ctx, q)
}

// TransformResultSet maps rs to domain objects. It makes no backend call.
func (f *Finder[T]) TransformResultSet(ctx context.Context, rs *search.ResultSet) ([]T, error) {
	if rs == nil || rs.Len() == 0 {
		return []T{}, nil
	}
	objs, err := f.transformer.Transform(ctx, rs.Results())
	if err != nil {
		return nil, errors.AtStage(errors.StageTransform, errors.ErrCodeTransformation, err)
	}
	return objs, nil
}

// HybridTransformResultSet maps rs to entries, one per hit. It makes no
// backend call.
func (f *Finder[T]) HybridTransformResultSet(ctx context.Context, rs *search.ResultSet) ([]search.Entry[T], error) {
	if rs == nil || rs.Len() == 0 {
		return []search.Entry[T]{}, nil
	}
	entries, err := f.transformer.HybridTransform(ctx, rs.Results())
	if err != nil {
		return nil, errors.AtStage(errors.StageTransform, errors.ErrCodeTransformation, err)
	}
	return entries, nil
}

// FindPaginated returns a pager over every hit of in. Nothing is fetched
// until the pager is read.
func (f *Finder[T]) FindPaginated(in query.Input) (*pager.Pager[T], error) {
	a, err := f.CreatePaginatorAdapter(in)
	if err != nil {
		return nil, err
	}
	p := pager.New[T](a).SetNormalizeOutOfRange(f.normalize)
	if err := p.SetMaxPerPage(f.pageSize); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePaginatorAdapter returns a lazy count/slice adapter over every hit
// of in.
func (f *Finder[T]) CreatePaginatorAdapter(in query.Input) (*paginator.Adapter[T], error) {
	q, err := f.build(in)
	if err != nil {
		return nil, err
	}
	return paginator.New(f.searchable, q, f.transformer, paginator.WithLogger(f.logger)), nil
}

// Search runs q with exactly one backend round trip.
func (f *Finder[T]) Search(ctx context.Context, q query.Query) (*search.ResultSet, error) {
	start := time.Now()
	rs, err := f.searchable.Search(ctx, q)
	if err != nil {
		err = errors.AtStage(errors.StageSearch, errors.ErrCodeSearchFailed, err)
		f.logger.Debug("finder_search_failed",
			slog.String("query", q.String()),
			slog.Any("error", errors.FormatForLog(err)))
		return nil, err
	}

	limit, _ := q.Limit()
	f.logger.Debug("finder_search",
		slog.String("kind", string(q.Kind())),
		slog.Int("limit", limit),
		slog.Int("total", rs.TotalHits()),
		slog.Int("hits", rs.Len()),
		slog.Duration("duration", time.Since(start)))

	return rs, nil
}

func (f *Finder[T]) build(in query.Input) (query.Query, error) {
	q, err := f.builder.Create(in)
	if err != nil {
		return query.Query{}, errors.AtStage(errors.StageQueryBuild, errors.ErrCodeMalformedQuery, err)
	}
	return q, nil
}

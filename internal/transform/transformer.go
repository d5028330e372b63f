// Package transform maps search hits to domain objects loaded from a
// repository.
package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// Repository loads domain objects by identifier. IDs with no object are
// absent from the returned map.
type Repository[T any] interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]T, error)
}

// RepositoryFunc adapts a function to Repository.
type RepositoryFunc[T any] func(ctx context.Context, ids []string) (map[string]T, error)

// FindByIDs calls f.
func (f RepositoryFunc[T]) FindByIDs(ctx context.Context, ids []string) (map[string]T, error) {
	return f(ctx, ids)
}

// ModelTransformer implements search.Transformer by batch-loading the
// objects behind a window of hits from a Repository, in hit order.
type ModelTransformer[T any] struct {
	repo          Repository[T]
	ignoreMissing bool
	idField       string
	logger        *slog.Logger
}

// Option configures a ModelTransformer.
type Option func(*config)

type config struct {
	ignoreMissing bool
	idField       string
	logger        *slog.Logger
}

// WithIgnoreMissing controls whether Transform skips hits without an object
// (true, the default) or fails with errors.ErrTransformation.
func WithIgnoreMissing(ignore bool) Option {
	return func(c *config) {
		c.ignoreMissing = ignore
	}
}

// WithIdentifierField reads the object identifier from the named source
// field instead of the hit ID.
func WithIdentifierField(field string) Option {
	return func(c *config) {
		c.idField = field
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// New creates a ModelTransformer over repo.
func New[T any](repo Repository[T], opts ...Option) *ModelTransformer[T] {
	c := config{ignoreMissing: true}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return &ModelTransformer[T]{
		repo:          repo,
		ignoreMissing: c.ignoreMissing,
		idField:       c.idField,
		logger:        c.logger,
	}
}

// Transform returns the objects behind hits, in hit order.
func (t *ModelTransformer[T]) Transform(ctx context.Context, hits []search.Hit) ([]T, error) {
	ids, objects, err := t.load(ctx, hits)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(hits))
	for i, id := range ids {
		obj, ok := objects[id]
		if !ok {
			if !t.ignoreMissing {
				return nil, errors.Transformation(fmt.Sprintf("no object for hit %q", hits[i].ID), nil).
					WithDetail("hit_id", hits[i].ID)
			}
			t.logger.Debug("transform_missing_skipped", slog.String("hit_id", hits[i].ID))
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

// HybridTransform returns one entry per hit: the object when it exists,
// the raw hit otherwise.
func (t *ModelTransformer[T]) HybridTransform(ctx context.Context, hits []search.Hit) ([]search.Entry[T], error) {
	ids, objects, err := t.load(ctx, hits)
	if err != nil {
		return nil, err
	}

	out := make([]search.Entry[T], len(hits))
	for i, id := range ids {
		if obj, ok := objects[id]; ok {
			out[i] = search.ObjectEntry(obj)
		} else {
			out[i] = search.RawEntry[T](hits[i])
		}
	}
	return out, nil
}

func (t *ModelTransformer[T]) load(ctx context.Context, hits []search.Hit) ([]string, map[string]T, error) {
	if len(hits) == 0 {
		return nil, nil, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = t.identifier(h)
	}

	objects, err := t.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, errors.Transformation(fmt.Sprintf("loading objects for %d hits", len(hits)), err).
			WithDetail("hit_id", hits[0].ID)
	}
	return ids, objects, nil
}

func (t *ModelTransformer[T]) identifier(h search.Hit) string {
	if t.idField == "" {
		return h.ID
	}
	if v, ok := h.Source[t.idField]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return h.ID
}

var _ search.Transformer[struct{}] = (*ModelTransformer[struct{}])(nil)

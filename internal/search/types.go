// Package search defines the contracts between the finder core and its
// collaborators: the hits a search backend returns, the result set that
// carries them, and the backend and transformer interfaces.
package search

import (
	"context"
	"time"

	"github.com/Aman-CERP/hitpager/internal/query"
)

// Hit is a single ranked match returned by the search backend.
type Hit struct {
	ID     string
	Score  float64
	Source map[string]any
}

// ResultSet is the response to one search execution. It is immutable and
// belongs to the caller that obtained it.
type ResultSet struct {
	totalHits int
	hits      []Hit
	maxScore  float64
	took      time.Duration
}

// NewResultSet creates a result set. hits is copied.
func NewResultSet(totalHits int, hits []Hit, maxScore float64, took time.Duration) *ResultSet {
	return &ResultSet{
		totalHits: totalHits,
		hits:      append([]Hit(nil), hits...),
		maxScore:  maxScore,
		took:      took,
	}
}

// TotalHits is the number of documents matching the query, independent of
// any limit or window applied to this execution.
func (r *ResultSet) TotalHits() int {
	return r.totalHits
}

// Results returns the hits in backend ranking order.
func (r *ResultSet) Results() []Hit {
	return append([]Hit(nil), r.hits...)
}

// Len returns the number of hits loaded in this result set.
func (r *ResultSet) Len() int {
	return len(r.hits)
}

// MaxScore returns the highest relevance score across all matches.
func (r *ResultSet) MaxScore() float64 {
	return r.maxScore
}

// Took returns how long the backend spent executing the search.
func (r *ResultSet) Took() time.Duration {
	return r.took
}

// Searchable executes queries against a search backend.
//
// Implementations report transport failures as errors.ErrBackendUnavailable
// or errors.ErrBackendTimeout. Cancellation and timeouts are theirs to honor.
type Searchable interface {
	Search(ctx context.Context, q query.Query) (*ResultSet, error)
}

// SearchableFunc adapts a function to the Searchable interface.
type SearchableFunc func(ctx context.Context, q query.Query) (*ResultSet, error)

// Search calls f(ctx, q).
func (f SearchableFunc) Search(ctx context.Context, q query.Query) (*ResultSet, error) {
	return f(ctx, q)
}

// Transformer maps hits to domain objects of type T, preserving hit order.
type Transformer[T any] interface {
	// Transform drops hits without a backing object, or fails with
	// errors.ErrTransformation when configured not to skip them.
	Transform(ctx context.Context, hits []Hit) ([]T, error)

	// HybridTransform never drops: hits without a backing object are kept
	// as raw entries, so the result has the same length as hits.
	HybridTransform(ctx context.Context, hits []Hit) ([]Entry[T], error)
}

// Package searchtest provides in-memory collaborators for testing code that
// depends on search.Searchable and search.Transformer.
package searchtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// DefaultSize mirrors the bleve default page size.
const DefaultSize = 10

// Searchable serves a fixed, ranked list of hits for every query and
// records each call. Raw queries of the form "field:value" filter hits on
// Source[field] == value.
type Searchable struct {
	hits  []search.Hit
	calls atomic.Int64

	mu      sync.Mutex
	queries []query.Query

	// Err, when set, is returned by every Search call.
	Err error
}

// NewSearchable creates a Searchable over hits, in rank order.
func NewSearchable(hits ...search.Hit) *Searchable {
	return &Searchable{hits: hits}
}

// Hits builds n hits with IDs "doc-1".."doc-n" and descending scores.
// Source carries "status": status.
func Hits(n int, status string) []search.Hit {
	hits := make([]search.Hit, n)
	for i := range hits {
		hits[i] = search.Hit{
			ID:     fmt.Sprintf("doc-%d", i+1),
			Score:  float64(n - i),
			Source: map[string]any{"status": status},
		}
	}
	return hits
}

// Search implements search.Searchable.
func (s *Searchable) Search(ctx context.Context, q query.Query) (*search.ResultSet, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		if err == context.DeadlineExceeded {
			return nil, errors.BackendTimeout("search timed out", err)
		}
		return nil, errors.New(errors.ErrCodeSearchFailed, "search cancelled", err)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	matched := s.filter(q)
	from, size := q.Bounds(DefaultSize)

	var window []search.Hit
	if from < len(matched) {
		end := min(from+size, len(matched))
		window = matched[from:end]
	}

	maxScore := 0.0
	if len(matched) > 0 {
		maxScore = matched[0].Score
	}
	return search.NewResultSet(len(matched), window, maxScore, 0), nil
}

func (s *Searchable) filter(q query.Query) []search.Hit {
	field, value, ok := strings.Cut(q.Text(), ":")
	if q.Kind() != query.KindRaw || !ok {
		return s.hits
	}
	var out []search.Hit
	for _, h := range s.hits {
		if fmt.Sprint(h.Source[field]) == value {
			out = append(out, h)
		}
	}
	return out
}

// Calls returns how many times Search ran.
func (s *Searchable) Calls() int {
	return int(s.calls.Load())
}

// Queries returns the queries Search received, in call order.
func (s *Searchable) Queries() []query.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]query.Query(nil), s.queries...)
}

// Object is the domain object produced by Transformer.
type Object struct {
	ID    string
	Score float64
}

// Transformer maps hits to Objects, treating IDs in Missing as having no
// backing object.
type Transformer struct {
	// Missing lists hit IDs without a backing object.
	Missing map[string]bool
	// Strict makes Transform fail on missing objects instead of skipping.
	Strict bool
	// Err, when set, is returned by every call.
	Err error

	calls atomic.Int64
}

// Calls returns how many transform calls ran.
func (t *Transformer) Calls() int {
	return int(t.calls.Load())
}

// Transform implements search.Transformer.
func (t *Transformer) Transform(_ context.Context, hits []search.Hit) ([]Object, error) {
	t.calls.Add(1)
	if t.Err != nil {
		return nil, t.Err
	}
	out := make([]Object, 0, len(hits))
	for _, h := range hits {
		if t.Missing[h.ID] {
			if t.Strict {
				return nil, errors.Transformation(fmt.Sprintf("no object for hit %s", h.ID), nil)
			}
			continue
		}
		out = append(out, Object{ID: h.ID, Score: h.Score})
	}
	return out, nil
}

// HybridTransform implements search.Transformer.
func (t *Transformer) HybridTransform(_ context.Context, hits []search.Hit) ([]search.Entry[Object], error) {
	t.calls.Add(1)
	if t.Err != nil {
		return nil, t.Err
	}
	out := make([]search.Entry[Object], len(hits))
	for i, h := range hits {
		if t.Missing[h.ID] {
			out[i] = search.RawEntry[Object](h)
			continue
		}
		out[i] = search.ObjectEntry(Object{ID: h.ID, Score: h.Score})
	}
	return out, nil
}

var (
	_ search.Searchable          = (*Searchable)(nil)
	_ search.Transformer[Object] = (*Transformer)(nil)
)

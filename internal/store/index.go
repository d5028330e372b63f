// Package store is the bleve-backed search index. Index implements
// search.Searchable.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/char/asciifolding"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// FoldedAnalyzerName is the default analyzer: unicode tokens, accents
// folded, lowercased.
const FoldedAnalyzerName = "folded"

// maxWindow bounds from+size of a single request.
const maxWindow = math.MaxInt32

// DefaultSize is the number of hits returned for queries without a limit.
const DefaultSize = 10

// DefaultSort orders hits by relevance, then by ID for a stable order
// across pages.
var DefaultSort = []string{"-_score", "_id"}

// Config configures an Index.
type Config struct {
	// DefaultSize bounds queries without a limit. Zero means DefaultSize.
	DefaultSize int
	// ReadOnly opens an existing index without write access.
	ReadOnly bool
}

// Index wraps a bleve index.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	config Config
	closed bool
}

var _ search.Searchable = (*Index)(nil)

// Open opens the index at path, creating it if it does not exist. An empty
// path creates an in-memory index.
func Open(path string, cfg Config) (*Index, error) {
	if cfg.DefaultSize <= 0 {
		cfg.DefaultSize = DefaultSize
	}

	indexMapping, err := NewMapping()
	if err != nil {
		return nil, errors.New(errors.ErrCodeIndexOpen, "failed to create index mapping", err)
	}

	var idx bleve.Index
	switch {
	case path == "":
		idx, err = bleve.NewMemOnly(indexMapping)
	case cfg.ReadOnly:
		idx, err = bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.New(errors.ErrCodeIndexOpen,
				fmt.Sprintf("failed to create directory for %s", path), err)
		}
		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("store_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, errors.New(errors.ErrCodeIndexOpen,
					fmt.Sprintf("index corrupted at %s and cannot remove", path), removeErr)
			}
			slog.Info("store_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}

		idx, err = bleve.Open(path)
		if stderrors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeIndexOpen, fmt.Sprintf("failed to open index %q", path), err).
			WithSuggestion("run 'hitpager index' to build the index")
	}

	return &Index{
		index:  idx,
		path:   path,
		config: cfg,
	}, nil
}

// NewMapping returns the index mapping for catalog documents.
func NewMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(FoldedAnalyzerName, map[string]interface{}{
		"type":         custom.Name,
		"char_filters": []string{asciifolding.Name},
		"tokenizer":    unicode.Name,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = FoldedAnalyzerName

	indexMapping.DefaultMapping.AddFieldMappingsAt("status", bleve.NewKeywordFieldMapping())

	indexMapping.DefaultMapping.AddFieldMappingsAt("title", bleve.NewTextFieldMapping())
	indexMapping.DefaultMapping.AddFieldMappingsAt("body", bleve.NewTextFieldMapping())
	indexMapping.DefaultMapping.AddFieldMappingsAt("updated_at", bleve.NewDateTimeFieldMapping())

	return indexMapping, nil
}

// validateIndexIntegrity reports a missing or unreadable index_meta.json in
// an existing index directory.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(path, "index_meta.json"))
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("index_meta.json is empty")
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// Path returns the index path, empty for in-memory indexes.
func (i *Index) Path() string {
	return i.path
}

// Index adds or replaces documents keyed by ID in one batch.
func (i *Index) Index(ctx context.Context, docs map[string]map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return errIndexClosed()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := i.index.NewBatch()
	for id, doc := range docs {
		if err := batch.Index(id, doc); err != nil {
			return errors.New(errors.ErrCodeIndexFailed, fmt.Sprintf("failed to index document %s", id), err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return errors.New(errors.ErrCodeIndexFailed, "failed to execute batch", err)
	}
	return nil
}

// Delete removes documents from the index.
func (i *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return errIndexClosed()
	}

	batch := i.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := i.index.Batch(batch); err != nil {
		return errors.New(errors.ErrCodeIndexFailed, "failed to delete documents", err)
	}
	return nil
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0, errIndexClosed()
	}

	n, err := i.index.DocCount()
	if err != nil {
		return 0, errors.BackendUnavailable("failed to count documents", err)
	}
	return int(n), nil
}

// Search runs q. The window, limit or count-only flag on q decides how
// many hits are loaded; TotalHits always reports every match.
func (i *Index) Search(ctx context.Context, q query.Query) (*search.ResultSet, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, errIndexClosed()
	}

	from, size := q.Bounds(i.config.DefaultSize)
	// bleve sizes its collector from from+size.
	size = max(0, min(size, maxWindow-from))
	req := bleve.NewSearchRequestOptions(q.Bleve(), size, from, false)
	if size > 0 {
		req.Fields = q.Fields()
	}
	sortBy := q.Sort()
	if len(sortBy) == 0 {
		sortBy = DefaultSort
	}
	req.SortBy(sortBy)

	start := time.Now()
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		slog.Debug("store_search_failed",
			slog.String("query", q.String()),
			slog.String("error", err.Error()))
		return nil, classify(err)
	}

	hits := make([]search.Hit, len(res.Hits))
	for n, h := range res.Hits {
		hits[n] = search.Hit{
			ID:     h.ID,
			Score:  h.Score,
			Source: h.Fields,
		}
	}

	slog.Debug("store_search",
		slog.String("query", q.String()),
		slog.Int("from", from),
		slog.Int("size", size),
		slog.Uint64("total", res.Total),
		slog.Duration("duration", time.Since(start)))

	return search.NewResultSet(int(res.Total), hits, res.MaxScore, res.Took), nil
}

// Close closes the index. It is safe to call more than once.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.index.Close()
}

func classify(err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.BackendTimeout("search did not complete in time", err)
	case stderrors.Is(err, context.Canceled):
		return errors.New(errors.ErrCodeSearchFailed, "search cancelled", err)
	case stderrors.Is(err, bleve.ErrorIndexClosed):
		return errors.BackendUnavailable("index is closed", err)
	default:
		return errors.New(errors.ErrCodeSearchFailed, "search failed", err)
	}
}

func errIndexClosed() error {
	return errors.BackendUnavailable("index is closed", nil).
		WithSuggestion("reopen the index")
}

package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Aman-CERP/hitpager/internal/catalog"
	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/finder"
	"github.com/Aman-CERP/hitpager/internal/metrics"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/internal/search"
	"github.com/Aman-CERP/hitpager/internal/store"
	"github.com/Aman-CERP/hitpager/internal/transform"
)

// session is the read side of one invocation: the index, the record store
// and the finder wired over them.
type session struct {
	index   *store.Index
	records *catalog.Store
	finder  *finder.Finder[catalog.Record]
}

// openSession opens the index read-only and the record store, then wires
// the finder with the configured limits, timeouts and metrics.
func (a *app) openSession() (*session, error) {
	cfg := a.cfg

	if _, err := os.Stat(cfg.Index.Path); os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeIndexOpen, "no index found at "+cfg.Index.Path, err).
			WithSuggestion("run 'hitpager index <records.ndjson>' first")
	}

	idx, err := store.Open(cfg.Index.Path, store.Config{
		DefaultSize: cfg.Search.DefaultSize,
		ReadOnly:    true,
	})
	if err != nil {
		return nil, err
	}

	records, err := catalog.Open(cfg.Store.Path, catalog.Options{BusyTimeout: cfg.Store.BusyTimeout})
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	var searchable search.Searchable = withTimeout(idx, cfg.Search.Timeout)
	var transformer search.Transformer[catalog.Record] = transform.New[catalog.Record](records,
		transform.WithIgnoreMissing(cfg.Transform.IgnoreMissing),
		transform.WithIdentifierField(cfg.Transform.IdentifierField),
	)
	if cfg.Metrics.Enabled {
		metrics.Register(nil)
		searchable = metrics.InstrumentSearchable(searchable)
		transformer = metrics.InstrumentTransformer(transformer)
	}

	f := finder.New(searchable, transformer,
		finder.WithBuilder(query.NewBuilder(query.WithParseCacheSize(cfg.Search.QueryCacheSize))),
		finder.WithPageSize(cfg.Search.PageSize),
		finder.WithNormalizeOutOfRange(cfg.Search.NormalizeOutOfRange),
		finder.WithLogger(slog.Default()),
	)

	return &session{index: idx, records: records, finder: f}, nil
}

// Close releases the index and the record store.
func (s *session) Close() error {
	var firstErr error
	if err := s.records.Close(); err != nil {
		firstErr = err
	}
	if err := s.index.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// withTimeout bounds every round trip to s by d. Zero disables the bound.
func withTimeout(s search.Searchable, d time.Duration) search.Searchable {
	if d <= 0 {
		return s
	}
	return search.SearchableFunc(func(ctx context.Context, q query.Query) (*search.ResultSet, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return s.Search(ctx, q)
	})
}

// retryConfig returns the retry policy for transient backend errors.
func (a *app) retryConfig() errors.RetryConfig {
	rc := errors.DefaultRetryConfig()
	rc.MaxRetries = a.cfg.Search.Retries
	return rc
}

// inputFor builds the query input for the CLI arguments. A status filter
// turns the text into a structured query.
func inputFor(args []string, status string, sort []string) query.Input {
	text := strings.Join(args, " ")
	if status == "" && len(sort) == 0 {
		return query.Raw(text)
	}
	in := query.Structured{Text: text, Sort: sort}
	if status != "" {
		in.Terms = map[string]string{"status": status}
	}
	return in
}

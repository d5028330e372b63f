package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/hitpager/internal/catalog"
	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/output"
	"github.com/Aman-CERP/hitpager/internal/store"
)

// DefaultBatchSize is the number of records written per batch.
const DefaultBatchSize = 500

// maxLineSize bounds one NDJSON line.
const maxLineSize = 4 * 1024 * 1024

type indexOptions struct {
	batchSize int
	reset     bool
	strict    bool
}

// indexStats summarizes one index run.
type indexStats struct {
	Indexed int
	Skipped int
}

func newIndexCmd(a *app) *cobra.Command {
	opts := indexOptions{}

	cmd := &cobra.Command{
		Use:   "index [records.ndjson]",
		Short: "Index newline-delimited JSON records",
		Long: `Index reads one JSON record per line from a file, or from stdin when the
file is omitted or "-", and writes every record to both the record store and
the search index.

Each record needs an "id" and a "title"; "status", "body" and "updated_at"
are optional. Records that already exist are replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			size := int64(0)
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open records: %w", err)
				}
				defer func() { _ = f.Close() }()
				if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
					size = info.Size()
				}
				in = f
			}
			return runIndex(cmd.Context(), cmd, a, in, size, opts)
		},
	}

	cmd.Flags().IntVar(&opts.batchSize, "batch-size", DefaultBatchSize, "Records written per batch")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "Remove the existing index and record store first")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on the first malformed line instead of skipping it")

	return cmd
}

// runIndex ingests in. A positive size is the input length in bytes and
// enables the progress bar.
func runIndex(ctx context.Context, cmd *cobra.Command, a *app, in io.Reader, size int64, opts indexOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.batchSize <= 0 {
		return errors.ValidationError("--batch-size must be positive", nil)
	}
	out := output.New(cmd.OutOrStdout())
	cfg := a.cfg

	dataDir := filepath.Dir(cfg.Index.Path)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIndexOpen, err)
	}
	lock := store.NewDirLock(dataDir)
	if err := lock.TryLock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if opts.reset {
		out.Status("🗑", "Removing existing index and record store")
		if err := os.RemoveAll(cfg.Index.Path); err != nil {
			return errors.Wrap(errors.ErrCodeIndexOpen, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(cfg.Store.Path + suffix); err != nil && !os.IsNotExist(err) {
				return errors.Wrap(errors.ErrCodeStoreOpen, err)
			}
		}
	}

	idx, err := store.Open(cfg.Index.Path, store.Config{DefaultSize: cfg.Search.DefaultSize})
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	records, err := catalog.Open(cfg.Store.Path, catalog.Options{BusyTimeout: cfg.Store.BusyTimeout})
	if err != nil {
		return err
	}
	defer func() { _ = records.Close() }()

	counter := &countingReader{r: in}
	indexed := 0
	stats, err := ingest(ctx, counter, opts, func(batch []catalog.Record) error {
		if err := writeBatch(ctx, records, idx, batch); err != nil {
			return err
		}
		indexed += len(batch)
		if size > 0 {
			out.Progress(int(min(counter.n, size)), int(size), fmt.Sprintf("%d records", indexed))
		}
		return nil
	}, func(line int, err error) {
		out.Warningf("line %d skipped: %v", line, err)
	})
	if err != nil {
		return err
	}

	total, err := idx.DocCount()
	if err != nil {
		return err
	}

	slog.Info("index_complete",
		slog.Int("indexed", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("documents", total))
	out.Successf("Indexed %d records (%d skipped, %d total)", stats.Indexed, stats.Skipped, total)
	return nil
}

// ingest decodes NDJSON records from in and hands them to flush in batches.
// Blank lines are ignored. Malformed lines are reported to skip, or fail
// the run in strict mode.
func ingest(ctx context.Context, in io.Reader, opts indexOptions, flush func([]catalog.Record) error, skip func(int, error)) (indexStats, error) {
	var stats indexStats
	batch := make([]catalog.Record, 0, opts.batchSize)

	doFlush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := flush(batch); err != nil {
			return err
		}
		stats.Indexed += len(batch)
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		rec, err := decodeRecord(raw)
		if err != nil {
			corrupt := errors.New(errors.ErrCodeCorruptLine, err.Error(), err).
				WithDetail("line", strconv.Itoa(line))
			if opts.strict {
				return stats, corrupt
			}
			stats.Skipped++
			skip(line, err)
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= opts.batchSize {
			if err := doFlush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, errors.Wrap(errors.ErrCodeCorruptLine, err)
	}
	return stats, doFlush()
}

func decodeRecord(raw []byte) (catalog.Record, error) {
	var rec catalog.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return catalog.Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return catalog.Record{}, err
	}
	return rec, nil
}

// writeBatch writes batch to the record store and the index concurrently.
func writeBatch(ctx context.Context, records *catalog.Store, idx *store.Index, batch []catalog.Record) error {
	docs := make(map[string]map[string]any, len(batch))
	for _, r := range batch {
		docs[r.ID] = r.Document()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return records.Upsert(gctx, batch...)
	})
	g.Go(func() error {
		return idx.Index(gctx, docs)
	})
	return g.Wait()
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

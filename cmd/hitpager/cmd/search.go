package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/output"
	"github.com/Aman-CERP/hitpager/internal/search"
)

type searchOptions struct {
	limit  int
	hybrid bool
	raw    bool
	status string
	sort   []string
	format string
	stats  bool
}

func newSearchCmd(a *app) *cobra.Command {
	opts := searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the index and print matching records",
		Long: `Search runs one query and prints the matching records in rank order.

The query uses the bleve query string syntax. With no query every record
matches. Hits whose record is missing from the store are skipped unless
--hybrid is set, in which case they are printed as unresolved placeholders.`,
		Example: `  hitpager search report
  hitpager search 'status:active +title:quarterly' --limit 5
  hitpager search invoice --status archived --sort=-updated_at --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, a, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 uses search.default_size)")
	cmd.Flags().BoolVar(&opts.hybrid, "hybrid", false, "Keep hits without a stored record as placeholders")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print raw hits without resolving records")
	cmd.Flags().StringVar(&opts.status, "status", "", "Only match records with this exact status")
	cmd.Flags().StringSliceVar(&opts.sort, "sort", nil, "Sort fields, e.g. -updated_at,title (default relevance)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", FormatText, "Output format: text, json")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print backend and transform metrics after the results")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, a *app, args []string, opts searchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateFormat(opts.format); err != nil {
		return err
	}
	if opts.limit < 0 {
		return errors.ValidationError(fmt.Sprintf("--limit must be >= 0, got %d", opts.limit), nil)
	}

	sess, err := a.openSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	in := inputFor(args, opts.status, opts.sort)
	rs, err := errors.Retry(ctx, a.retryConfig(), func() (*search.ResultSet, error) {
		return sess.finder.FindResultSet(ctx, in, opts.limit)
	})
	if err != nil {
		return err
	}

	var entries []entryJSON
	switch {
	case opts.raw:
		entries = hitEntries(rs.Results())
	case opts.hybrid:
		hybrid, err := sess.finder.HybridTransformResultSet(ctx, rs)
		if err != nil {
			return err
		}
		entries = hybridEntries(hybrid)
	default:
		recs, err := sess.finder.TransformResultSet(ctx, rs)
		if err != nil {
			return err
		}
		entries = recordEntries(recs)
	}

	w := cmd.OutOrStdout()
	if opts.format == FormatJSON {
		if err := writeJSON(w, resultJSON{
			Query:   strings.Join(args, " "),
			Total:   rs.TotalHits(),
			Results: entries,
		}); err != nil {
			return err
		}
	} else {
		out := output.New(w)
		if len(entries) == 0 {
			out.Status("🔍", "No results.")
		} else {
			writeEntries(out, 1, entries)
			out.Newline()
			out.Statusf("🔍", "%d of %d matches in %s", len(entries), rs.TotalHits(), rs.Took().Round(time.Microsecond))
		}
	}

	if opts.stats {
		return writeStats(w)
	}
	return nil
}

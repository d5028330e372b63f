package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hitpager/internal/catalog"
	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/output"
	"github.com/Aman-CERP/hitpager/internal/pager"
	"github.com/Aman-CERP/hitpager/internal/paginator"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// DefaultWindow is the number of page links shown around the current page.
const DefaultWindow = 5

type pageOptions struct {
	page    int
	perPage int
	window  int
	hybrid  bool
	all     bool
	status  string
	sort    []string
	format  string
	stats   bool
}

// hybridAdapter pages entries instead of records, keeping hits without a
// stored record as placeholders.
type hybridAdapter struct {
	*paginator.Adapter[catalog.Record]
}

func (h hybridAdapter) Slice(ctx context.Context, offset, length int) ([]search.Entry[catalog.Record], error) {
	return h.HybridSlice(ctx, offset, length)
}

func newPageCmd(a *app) *cobra.Command {
	opts := pageOptions{}

	cmd := &cobra.Command{
		Use:   "page [query...]",
		Short: "Print one page of search results",
		Long: `Page runs a query lazily: it counts the matches once and then fetches
only the hits of the requested page.

Pages are numbered from 1. A page past the end is an error unless
search.normalize_out_of_range is set, in which case the last page is shown.`,
		Example: `  hitpager page report --page 2
  hitpager page 'status:active' --per-page 25 --format json
  hitpager page --all --per-page 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPage(cmd.Context(), cmd, a, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&opts.perPage, "per-page", 0, "Results per page (0 uses search.page_size)")
	cmd.Flags().IntVar(&opts.window, "window", DefaultWindow, "Number of page links to show")
	cmd.Flags().BoolVar(&opts.hybrid, "hybrid", false, "Keep hits without a stored record as placeholders")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Print every page in turn instead of one page")
	cmd.Flags().StringVar(&opts.status, "status", "", "Only match records with this exact status")
	cmd.Flags().StringSliceVar(&opts.sort, "sort", nil, "Sort fields, e.g. -updated_at,title (default relevance)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", FormatText, "Output format: text, json")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print backend and transform metrics after the results")

	return cmd
}

func runPage(ctx context.Context, cmd *cobra.Command, a *app, args []string, opts pageOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateFormat(opts.format); err != nil {
		return err
	}

	sess, err := a.openSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	in := inputFor(args, opts.status, opts.sort)
	text := strings.Join(args, " ")

	if opts.hybrid {
		adapter, err := sess.finder.CreatePaginatorAdapter(in)
		if err != nil {
			return err
		}
		p := pager.New[search.Entry[catalog.Record]](hybridAdapter{adapter}).
			SetNormalizeOutOfRange(a.cfg.Search.NormalizeOutOfRange)
		if err := p.SetMaxPerPage(a.cfg.Search.PageSize); err != nil {
			return err
		}
		if err := printPages(ctx, cmd, a, p, text, opts, hybridEntries); err != nil {
			return err
		}
	} else {
		p, err := sess.finder.FindPaginated(in)
		if err != nil {
			return err
		}
		if err := printPages(ctx, cmd, a, p, text, opts, recordEntries); err != nil {
			return err
		}
	}

	if opts.stats {
		return writeStats(cmd.OutOrStdout())
	}
	return nil
}

// printPages renders the requested page, or every page with --all.
func printPages[T any](ctx context.Context, cmd *cobra.Command, a *app, p *pager.Pager[T], text string, opts pageOptions, convert func([]T) []entryJSON) error {
	if opts.perPage != 0 {
		if err := p.SetMaxPerPage(opts.perPage); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if opts.all {
		return printAll(ctx, w, p, text, opts, convert)
	}

	if err := p.SetCurrentPage(ctx, opts.page); err != nil {
		return err
	}

	var items []T
	if err := withRetry(ctx, a, func() error {
		var err error
		items, err = p.CurrentPageResults(ctx)
		return err
	}); err != nil {
		return err
	}

	total, err := p.NbResults(ctx)
	if err != nil {
		return err
	}
	pages, err := p.NbPages(ctx)
	if err != nil {
		return err
	}
	start, err := p.CurrentPageOffsetStart(ctx)
	if err != nil {
		return err
	}
	end, err := p.CurrentPageOffsetEnd(ctx)
	if err != nil {
		return err
	}
	nav, err := p.Navigator(ctx, opts.window)
	if err != nil {
		return err
	}

	entries := convert(items)
	if opts.format == FormatJSON {
		return writeJSON(w, resultJSON{
			Query: text,
			Total: total,
			Page: &pageJSON{
				Current: p.CurrentPage(),
				Pages:   pages,
				PerPage: p.MaxPerPage(),
				Start:   start,
				End:     end,
				Window:  nav.Pages,
			},
			Results: entries,
		})
	}

	out := output.New(w)
	writeEntries(out, max(start, 1), entries)
	out.PageFooter(p.CurrentPage(), pages, start, end, total, nav.Pages)
	return nil
}

// printAll walks every result page by page. Text output is written as each
// item arrives; JSON needs the full list before it can be encoded.
func printAll[T any](ctx context.Context, w io.Writer, p *pager.Pager[T], text string, opts pageOptions, convert func([]T) []entryJSON) error {
	if opts.format == FormatJSON {
		var items []T
		for item, err := range p.All(ctx) {
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		total, err := p.NbResults(ctx)
		if err != nil {
			return err
		}
		return writeJSON(w, resultJSON{Query: text, Total: total, Results: convert(items)})
	}

	out := output.New(w)
	rank := 1
	for item, err := range p.All(ctx) {
		if err != nil {
			return err
		}
		writeEntries(out, rank, convert([]T{item}))
		rank++
	}
	if rank == 1 {
		out.Status("🔍", "No results.")
	}
	return nil
}

// withRetry runs fn under the configured retry policy.
func withRetry(ctx context.Context, a *app, fn func() error) error {
	_, err := errors.Retry(ctx, a.retryConfig(), func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

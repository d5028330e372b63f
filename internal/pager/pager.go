// Package pager provides page-number pagination over any adapter that can
// count its results and return a slice of them.
package pager

import (
	"context"
	"fmt"
	"iter"

	"github.com/Aman-CERP/hitpager/internal/errors"
)

// DefaultMaxPerPage is the page size of a new Pager.
const DefaultMaxPerPage = 10

// Adapter is the pagination protocol a Pager drives.
type Adapter[T any] interface {
	Count(ctx context.Context) (int, error)
	Slice(ctx context.Context, offset, length int) ([]T, error)
}

// Pager tracks a current page over an Adapter.
//
// A Pager holds mutable state and is not safe for concurrent use.
type Pager[T any] struct {
	adapter     Adapter[T]
	maxPerPage  int
	currentPage int
	normalize   bool

	results     []T
	resultsPage int
	resultsSize int
}

// New creates a Pager on page 1 with DefaultMaxPerPage items per page.
func New[T any](adapter Adapter[T]) *Pager[T] {
	return &Pager[T]{
		adapter:     adapter,
		maxPerPage:  DefaultMaxPerPage,
		currentPage: 1,
	}
}

// Adapter returns the underlying adapter.
func (p *Pager[T]) Adapter() Adapter[T] {
	return p.adapter
}

// SetNormalizeOutOfRange makes SetCurrentPage clamp pages past the end to
// the last page instead of failing.
func (p *Pager[T]) SetNormalizeOutOfRange(normalize bool) *Pager[T] {
	p.normalize = normalize
	return p
}

// MaxPerPage returns the page size.
func (p *Pager[T]) MaxPerPage() int {
	return p.maxPerPage
}

// SetMaxPerPage sets the page size. n must be at least 1.
func (p *Pager[T]) SetMaxPerPage(n int) error {
	if n < 1 {
		return errors.ValidationError(fmt.Sprintf("max per page must be at least 1, got %d", n), nil).
			WithStage(errors.StagePage)
	}
	p.maxPerPage = n
	p.results = nil
	return nil
}

// CurrentPage returns the 1-based current page.
func (p *Pager[T]) CurrentPage() int {
	return p.currentPage
}

// SetCurrentPage moves to page n. Pages past the last one fail with
// errors.ErrPageOutOfRange unless out-of-range normalization is on.
func (p *Pager[T]) SetCurrentPage(ctx context.Context, n int) error {
	if n < 1 {
		return errors.ValidationError(fmt.Sprintf("page must be at least 1, got %d", n), nil).
			WithStage(errors.StagePage)
	}

	pages, err := p.NbPages(ctx)
	if err != nil {
		return err
	}
	if n > pages {
		if !p.normalize {
			return errors.New(errors.ErrCodePageOutOfRange,
				fmt.Sprintf("page %d is past the last page %d", n, pages), nil).
				WithStage(errors.StagePage).
				WithDetail("page", fmt.Sprint(n)).
				WithDetail("pages", fmt.Sprint(pages))
		}
		n = pages
	}

	p.currentPage = n
	return nil
}

// NbResults returns the total number of results.
func (p *Pager[T]) NbResults(ctx context.Context) (int, error) {
	return p.adapter.Count(ctx)
}

// NbPages returns the number of pages. An empty result has one page.
func (p *Pager[T]) NbPages(ctx context.Context) (int, error) {
	total, err := p.NbResults(ctx)
	if err != nil {
		return 0, err
	}
	pages := (total + p.maxPerPage - 1) / p.maxPerPage
	return max(pages, 1), nil
}

// HaveToPaginate reports whether the results span more than one page.
func (p *Pager[T]) HaveToPaginate(ctx context.Context) (bool, error) {
	total, err := p.NbResults(ctx)
	if err != nil {
		return false, err
	}
	return total > p.maxPerPage, nil
}

// HasPreviousPage reports whether the current page is after the first.
func (p *Pager[T]) HasPreviousPage() bool {
	return p.currentPage > 1
}

// PreviousPage returns the page before the current one.
func (p *Pager[T]) PreviousPage() (int, error) {
	if !p.HasPreviousPage() {
		return 0, errors.New(errors.ErrCodePageOutOfRange, "there is no previous page", nil).
			WithStage(errors.StagePage)
	}
	return p.currentPage - 1, nil
}

// HasNextPage reports whether a page follows the current one.
func (p *Pager[T]) HasNextPage(ctx context.Context) (bool, error) {
	pages, err := p.NbPages(ctx)
	if err != nil {
		return false, err
	}
	return p.currentPage < pages, nil
}

// NextPage returns the page after the current one.
func (p *Pager[T]) NextPage(ctx context.Context) (int, error) {
	ok, err := p.HasNextPage(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.New(errors.ErrCodePageOutOfRange, "there is no next page", nil).
			WithStage(errors.StagePage)
	}
	return p.currentPage + 1, nil
}

// CurrentPageOffsetStart returns the 1-based position of the first result
// on the current page, or 0 when there are no results.
func (p *Pager[T]) CurrentPageOffsetStart(ctx context.Context) (int, error) {
	total, err := p.NbResults(ctx)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return p.offset() + 1, nil
}

// CurrentPageOffsetEnd returns the 1-based position of the last result on
// the current page, or 0 when there are no results.
func (p *Pager[T]) CurrentPageOffsetEnd(ctx context.Context) (int, error) {
	total, err := p.NbResults(ctx)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return min(p.offset()+p.maxPerPage, total), nil
}

// CurrentPageResults returns the results of the current page. The slice is
// fetched once per page and page size.
func (p *Pager[T]) CurrentPageResults(ctx context.Context) ([]T, error) {
	if p.results != nil && p.resultsPage == p.currentPage && p.resultsSize == p.maxPerPage {
		return p.results, nil
	}

	results, err := p.adapter.Slice(ctx, p.offset(), p.maxPerPage)
	if err != nil {
		return nil, err
	}
	p.results = results
	p.resultsPage = p.currentPage
	p.resultsSize = p.maxPerPage
	return results, nil
}

// All iterates every result of every page in order, starting from page 1.
// The current page is left unchanged. Iteration stops at the first error.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		size := p.maxPerPage
		total, err := p.NbResults(ctx)
		if err != nil {
			yield(zero, err)
			return
		}

		for offset := 0; offset < total; offset += size {
			items, err := p.adapter.Slice(ctx, offset, size)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// Navigator returns a window of at most size page numbers around the
// current page.
func (p *Pager[T]) Navigator(ctx context.Context, size int) (Navigator, error) {
	pages, err := p.NbPages(ctx)
	if err != nil {
		return Navigator{}, err
	}
	return Navigate(size, pages, p.currentPage), nil
}

func (p *Pager[T]) offset() int {
	return (p.currentPage - 1) * p.maxPerPage
}

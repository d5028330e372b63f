package pager

// Navigator is a window of page numbers for rendering page links.
type Navigator struct {
	// Pages lists the page numbers in the window, ascending.
	Pages    []int
	Current  int
	Previous int // 0 when there is no previous page
	Next     int // 0 when there is no next page
}

// Navigate computes a window of at most size pages out of totalPages,
// keeping current roughly centered.
func Navigate(size, totalPages, current int) Navigator {
	nav := Navigator{Current: current}
	if size < 1 || totalPages < 1 {
		return nav
	}

	start, end := 1, totalPages
	if totalPages > size {
		end = size
		if current > size/2 {
			start = current - size/2
			end = start + size - 1
			if end > totalPages {
				end = totalPages
				start = totalPages - size + 1
			}
		}
	}

	nav.Pages = make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		nav.Pages = append(nav.Pages, i)
	}
	if current > 1 {
		nav.Previous = current - 1
	}
	if current < totalPages {
		nav.Next = current + 1
	}
	return nav
}

package pager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigate(t *testing.T) {
	tests := []struct {
		name                   string
		size, total, current   int
		wantPages              []int
		wantPrevious, wantNext int
	}{
		{"fewer pages than window", 5, 3, 1, []int{1, 2, 3}, 0, 2},
		{"start of long range", 5, 20, 2, []int{1, 2, 3, 4, 5}, 1, 3},
		{"middle of long range", 5, 20, 10, []int{8, 9, 10, 11, 12}, 9, 11},
		{"end of long range", 5, 20, 20, []int{16, 17, 18, 19, 20}, 19, 0},
		{"near the end", 5, 20, 19, []int{16, 17, 18, 19, 20}, 18, 20},
		{"single page", 5, 1, 1, []int{1}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := Navigate(tt.size, tt.total, tt.current)

			assert.Equal(t, tt.wantPages, nav.Pages)
			assert.Equal(t, tt.current, nav.Current)
			assert.Equal(t, tt.wantPrevious, nav.Previous)
			assert.Equal(t, tt.wantNext, nav.Next)
		})
	}
}

func TestNavigate_EmptyWindow(t *testing.T) {
	nav := Navigate(0, 10, 1)

	assert.Empty(t, nav.Pages)
}

func TestPager_Navigator(t *testing.T) {
	ctx := context.Background()
	p := New[int](&sliceAdapter{items: seq(100)})
	require.NoError(t, p.SetCurrentPage(ctx, 5))

	nav, err := p.Navigator(ctx, 3)

	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6}, nav.Pages)
}

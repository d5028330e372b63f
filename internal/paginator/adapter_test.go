package paginator

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/internal/search/searchtest"
)

func newAdapter(t *testing.T, n int) (*Adapter[searchtest.Object], *searchtest.Searchable, *searchtest.Transformer) {
	t.Helper()
	s := searchtest.NewSearchable(searchtest.Hits(n, "active")...)
	tr := &searchtest.Transformer{}
	q, err := query.NewBuilder().Create(query.Raw("status:active"))
	require.NoError(t, err)
	return New[searchtest.Object](s, q, tr), s, tr
}

func ids(objs []searchtest.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.ID
	}
	return out
}

func TestAdapter_Count_IsCachedAfterFirstCall(t *testing.T) {
	// Given: an adapter over 25 hits
	a, s, _ := newAdapter(t, 25)
	ctx := context.Background()

	// When: counting twice around a slice
	first, err := a.Count(ctx)
	require.NoError(t, err)
	_, err = a.Slice(ctx, 0, 10)
	require.NoError(t, err)
	second, err := a.Count(ctx)
	require.NoError(t, err)

	// Then: the total is stable and only one count query ran
	assert.Equal(t, 25, first)
	assert.Equal(t, 25, second)
	assert.Equal(t, 2, s.Calls(), "one count query and one slice query")
	assert.True(t, s.Queries()[0].IsCountOnly())
}

func TestAdapter_Count_IgnoresQueryLimit(t *testing.T) {
	s := searchtest.NewSearchable(searchtest.Hits(25, "active")...)
	q, err := query.NewBuilder().Create(query.Raw("status:active"))
	require.NoError(t, err)

	a := New[searchtest.Object](s, q.WithLimit(3), &searchtest.Transformer{})

	n, err := a.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestAdapter_Count_IsFixedAfterFirstRead(t *testing.T) {
	// Given: a counted adapter
	a, _, _ := newAdapter(t, 5)
	ctx := context.Background()
	_, err := a.Count(ctx)
	require.NoError(t, err)

	// When: the backend starts failing
	s := a.searchable.(*searchtest.Searchable)
	s.Err = errors.BackendUnavailable("down", nil)

	// Then: the cached count is still served
	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestAdapter_Count_ConcurrentFirstReadsConverge(t *testing.T) {
	a, _, _ := newAdapter(t, 42)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := a.Count(ctx)
			assert.NoError(t, err)
			results[i] = n
		}(i)
	}
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, 42, n)
	}
}

func TestAdapter_Slice_ReturnsWindowInOrder(t *testing.T) {
	a, s, _ := newAdapter(t, 25)

	objs, err := a.Slice(context.Background(), 20, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"doc-21", "doc-22", "doc-23", "doc-24", "doc-25"}, ids(objs))

	last := s.Queries()[len(s.Queries())-1]
	offset, size, ok := last.Window()
	assert.True(t, ok)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, size)
}

func TestAdapter_Slice_NeverExceedsLength(t *testing.T) {
	a, _, _ := newAdapter(t, 25)
	ctx := context.Background()

	for offset := 0; offset < 30; offset += 7 {
		for _, length := range []int{1, 3, 10, 100} {
			objs, err := a.Slice(ctx, offset, length)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(objs), length)
		}
	}
}

func TestAdapter_Slice_HugeLengthIsClamped(t *testing.T) {
	// Given: 12 matching hits
	a, s, _ := newAdapter(t, 12)
	ctx := context.Background()

	// When: slicing with the largest possible length
	var objs []searchtest.Object
	var err error
	assert.NotPanics(t, func() { objs, err = a.Slice(ctx, 3, math.MaxInt) })

	// Then: the remaining nine come back and the backend window is bounded
	require.NoError(t, err)
	assert.Len(t, objs, 9)
	assert.Equal(t, "doc-4", objs[0].ID)

	last := s.Queries()[len(s.Queries())-1]
	offset, size, ok := last.Window()
	assert.True(t, ok)
	assert.Equal(t, 3, offset)
	assert.Equal(t, 9, size)

	entries, err := a.HybridSlice(ctx, 0, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, entries, 12)
}

func TestAdapter_Slice_PagesReproduceFullTraversal(t *testing.T) {
	a, _, _ := newAdapter(t, 23)
	ctx := context.Background()
	total, err := a.Count(ctx)
	require.NoError(t, err)

	var got []string
	for offset := 0; offset < total; offset += 4 {
		objs, err := a.Slice(ctx, offset, 4)
		require.NoError(t, err)
		got = append(got, ids(objs)...)
	}

	want, err := a.Slice(ctx, 0, total)
	require.NoError(t, err)
	assert.Equal(t, ids(want), got)
	assert.Len(t, got, 23)
}

func TestAdapter_Slice_OutOfRangeIsEmpty(t *testing.T) {
	a, s, tr := newAdapter(t, 25)
	ctx := context.Background()

	objs, err := a.Slice(ctx, 25, 10)
	require.NoError(t, err)
	assert.NotNil(t, objs)
	assert.Empty(t, objs)

	objs, err = a.Slice(ctx, 1000, 1)
	require.NoError(t, err)
	assert.Empty(t, objs)

	// Only the count query ran; nothing was transformed
	assert.Equal(t, 1, s.Calls())
	assert.Equal(t, 0, tr.Calls())
}

func TestAdapter_Slice_InvalidArguments(t *testing.T) {
	a, s, _ := newAdapter(t, 25)
	ctx := context.Background()

	tests := []struct {
		name           string
		offset, length int
	}{
		{"negative offset", -1, 10},
		{"zero length", 0, 0},
		{"negative length", 5, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Slice(ctx, tt.offset, tt.length)

			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidSlice)
			assert.True(t, errors.IsFatal(err))
		})
	}
	assert.Equal(t, 0, s.Calls())
}

func TestAdapter_Slice_DropsHitsWithoutObjects(t *testing.T) {
	a, _, tr := newAdapter(t, 5)
	tr.Missing = map[string]bool{"doc-2": true}

	objs, err := a.Slice(context.Background(), 0, 5)

	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-3", "doc-4", "doc-5"}, ids(objs))
}

func TestAdapter_HybridSlice_KeepsPlaceholders(t *testing.T) {
	a, _, tr := newAdapter(t, 5)
	tr.Missing = map[string]bool{"doc-2": true}

	entries, err := a.HybridSlice(context.Background(), 0, 3)

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.False(t, entries[0].IsRaw())
	hit, ok := entries[1].Raw()
	assert.True(t, ok)
	assert.Equal(t, "doc-2", hit.ID)
	assert.False(t, entries[2].IsRaw())

	empty, err := a.HybridSlice(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = a.HybridSlice(context.Background(), -1, 3)
	assert.ErrorIs(t, err, errors.ErrInvalidSlice)
}

func TestAdapter_BackendErrorsAreAttributedToSearch(t *testing.T) {
	a, s, _ := newAdapter(t, 5)
	s.Err = errors.BackendTimeout("timed out", nil)

	_, err := a.Count(context.Background())

	assert.ErrorIs(t, err, errors.ErrBackendTimeout)
	assert.Equal(t, errors.StageSearch, errors.GetStage(err))
	assert.True(t, errors.IsRetryable(err))
}

func TestAdapter_TransformErrorsAreAttributedToTransform(t *testing.T) {
	a, _, tr := newAdapter(t, 5)
	tr.Err = stderrors.New("repository closed")

	_, err := a.Slice(context.Background(), 0, 5)

	assert.ErrorIs(t, err, errors.ErrTransformation)
	assert.Equal(t, errors.StageTransform, errors.GetStage(err))
}

func TestAdapter_WithLoggerReceivesDebugEvents(t *testing.T) {
	// Given: an adapter with its own debug logger
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := searchtest.NewSearchable(searchtest.Hits(4, "active")...)
	q, err := query.NewBuilder().Create(query.Raw("status:active"))
	require.NoError(t, err)
	a := New[searchtest.Object](s, q, &searchtest.Transformer{}, WithLogger(logger))

	// When: counting and slicing
	_, err = a.Count(context.Background())
	require.NoError(t, err)
	_, err = a.Slice(context.Background(), 0, 2)
	require.NoError(t, err)

	// Then: both events reach that logger
	assert.Contains(t, buf.String(), `"msg":"paginator_count"`)
	assert.Contains(t, buf.String(), `"msg":"paginator_slice"`)
}

func TestAdapter_Query(t *testing.T) {
	a, _, _ := newAdapter(t, 1)

	assert.Equal(t, "status:active", a.Query().Text())
}

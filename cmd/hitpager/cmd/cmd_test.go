package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/hitpager/internal/catalog"
	"github.com/Aman-CERP/hitpager/internal/config"
	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/query"
	"github.com/Aman-CERP/hitpager/pkg/version"
)

// runCLI executes the root command in dir and returns stdout.
func runCLI(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--dir", dir}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// fixture returns NDJSON with 25 active reports, one archived invoice and
// one malformed line.
func fixture() string {
	var sb strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&sb, `{"id":"r-%02d","title":"Quarterly report %d","status":"active","body":"numbers for report %d"}`+"\n", i, i, i)
	}
	sb.WriteString(`{"id":"inv-1","title":"Invoice","status":"archived","body":"paid in full"}` + "\n")
	sb.WriteString("\n")
	sb.WriteString(`{"id":"broken"` + "\n")
	return sb.String()
}

// indexedDir returns a project directory with the fixture indexed.
func indexedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runCLI(t, dir, fixture(), "index", "--batch-size", "7")
	require.NoError(t, err)
	require.Contains(t, out, "Indexed 26 records (1 skipped, 26 total)")
	return dir
}

func decodeResult(t *testing.T, out string) resultJSON {
	t.Helper()
	var res resultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func TestIndex_ReadsFileArgument(t *testing.T) {
	// Given: records in a file
	dir := t.TempDir()
	path := filepath.Join(dir, "records.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(fixture()), 0o644))

	// When: indexing the file
	out, err := runCLI(t, dir, "", "index", path)

	// Then: valid records are indexed and the bad line is reported
	require.NoError(t, err)
	assert.Contains(t, out, "line 28 skipped")
	assert.Contains(t, out, "Indexed 26 records")
}

func TestIndex_StrictFailsOnCorruptLine(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, fixture(), "index", "--strict")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorruptLine, errors.GetCode(err))
}

func TestIndex_ResetReplacesData(t *testing.T) {
	// Given: an indexed project
	dir := indexedDir(t)

	// When: re-indexing a single record with --reset
	_, err := runCLI(t, dir, `{"id":"only","title":"Only one"}`+"\n", "index", "--reset")
	require.NoError(t, err)

	// Then: only the new record remains
	out, err := runCLI(t, dir, "", "count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestCount(t *testing.T) {
	dir := indexedDir(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"match all", []string{"count"}, "26\n"},
		{"status filter", []string{"count", "--status", "active"}, "25\n"},
		{"query string", []string{"count", "invoice"}, "1\n"},
		{"no match", []string{"count", "nonexistentterm"}, "0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, dir, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSearch_JSONHonorsLimit(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "search", "report", "--limit", "3", "--format", "json")

	require.NoError(t, err)
	res := decodeResult(t, out)
	assert.Equal(t, "report", res.Query)
	assert.Equal(t, 25, res.Total)
	require.Len(t, res.Results, 3)
	for _, e := range res.Results {
		require.NotNil(t, e.Record)
		assert.Equal(t, "active", e.Record.Status)
	}
}

func TestSearch_DefaultSizeWithoutLimit(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "search", "--format", "json")

	require.NoError(t, err)
	res := decodeResult(t, out)
	assert.Equal(t, 26, res.Total)
	assert.Len(t, res.Results, config.NewConfig().Search.DefaultSize)
}

func TestSearch_TextOutput(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "search", "invoice")

	require.NoError(t, err)
	assert.Contains(t, out, "Invoice")
	assert.Contains(t, out, "inv-1 · archived")
	assert.Contains(t, out, "1 of 1 matches")
}

func TestSearch_HybridKeepsMissingRecords(t *testing.T) {
	// Given: an indexed record deleted from the store only
	dir := indexedDir(t)
	store, err := catalog.Open(filepath.Join(dir, config.DataDirName, "records.db"), catalog.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), "inv-1"))
	require.NoError(t, store.Close())

	// When: searching eagerly and in hybrid mode
	eager, err := runCLI(t, dir, "", "search", "invoice", "--format", "json")
	require.NoError(t, err)
	hybrid, err := runCLI(t, dir, "", "search", "invoice", "--hybrid", "--format", "json")
	require.NoError(t, err)

	// Then: eager drops the hit, hybrid keeps a placeholder
	assert.Empty(t, decodeResult(t, eager).Results)
	res := decodeResult(t, hybrid)
	require.Len(t, res.Results, 1)
	assert.True(t, res.Results[0].Raw)
	assert.Equal(t, "inv-1", res.Results[0].ID)
	assert.Nil(t, res.Results[0].Record)
}

func TestSearch_RawPrintsHits(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "search", "invoice", "--raw", "--format", "json")

	require.NoError(t, err)
	res := decodeResult(t, out)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "inv-1", res.Results[0].ID)
	assert.Greater(t, res.Results[0].Score, 0.0)
}

func TestSearch_MalformedQuery(t *testing.T) {
	dir := indexedDir(t)

	_, err := runCLI(t, dir, "", "search", "title:(")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedQuery, errors.GetCode(err))
	assert.Equal(t, errors.StageQueryBuild, errors.GetStage(err))
}

func TestSearch_WithoutIndex(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "", "search", "anything")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIndexOpen, errors.GetCode(err))
}

func TestSearch_InvalidFlags(t *testing.T) {
	dir := indexedDir(t)

	_, err := runCLI(t, dir, "", "search", "--limit=-1")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = runCLI(t, dir, "", "search", "--format", "xml")
	assert.Error(t, err)
}

func TestSearch_Stats(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "search", "report", "--stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Stats:")
	assert.Contains(t, out, "hitpager_backend_requests_total")
}

func TestPage_LastPartialPage(t *testing.T) {
	// Given: 25 active records, 10 per page
	dir := indexedDir(t)

	// When: requesting page 3
	out, err := runCLI(t, dir, "", "page", "--status", "active", "--per-page", "10", "--page", "3", "--format", "json")

	// Then: the last five records are returned
	require.NoError(t, err)
	res := decodeResult(t, out)
	assert.Equal(t, 25, res.Total)
	require.NotNil(t, res.Page)
	assert.Equal(t, 3, res.Page.Current)
	assert.Equal(t, 3, res.Page.Pages)
	assert.Equal(t, 21, res.Page.Start)
	assert.Equal(t, 25, res.Page.End)
	assert.Equal(t, []int{1, 2, 3}, res.Page.Window)
	assert.Len(t, res.Results, 5)
}

func TestPage_PagesCoverEveryRecordOnce(t *testing.T) {
	dir := indexedDir(t)

	seen := make(map[string]int)
	for page := 1; page <= 3; page++ {
		out, err := runCLI(t, dir, "", "page", "report", "--per-page", "10", "--page", fmt.Sprint(page), "--format", "json")
		require.NoError(t, err)
		for _, e := range decodeResult(t, out).Results {
			seen[e.ID]++
		}
	}

	assert.Len(t, seen, 25)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}

func TestPage_OutOfRange(t *testing.T) {
	dir := indexedDir(t)

	_, err := runCLI(t, dir, "", "page", "report", "--page", "9")

	assert.ErrorIs(t, err, errors.ErrPageOutOfRange)
}

func TestPage_OutOfRangeNormalized(t *testing.T) {
	// Given: normalization enabled through the environment
	dir := indexedDir(t)
	t.Setenv("HITPAGER_NORMALIZE_OUT_OF_RANGE", "true")

	// When: requesting a page past the end
	out, err := runCLI(t, dir, "", "page", "report", "--page", "9", "--format", "json")

	// Then: the last page is shown
	require.NoError(t, err)
	res := decodeResult(t, out)
	assert.Equal(t, 3, res.Page.Current)
	assert.Len(t, res.Results, 5)
}

func TestPage_TextFooter(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "page", "report", "--page", "2")

	require.NoError(t, err)
	assert.Contains(t, out, " 11. ")
	assert.Contains(t, out, "Showing 11-20 of 25 (page 2/3)")
	assert.Contains(t, out, "Pages: 1 [2] 3")
}

func TestPage_AllStreamsEveryRecord(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "page", "--all", "--per-page", "4", "--format", "json")

	require.NoError(t, err)
	res := decodeResult(t, out)
	assert.Equal(t, 26, res.Total)
	assert.Len(t, res.Results, 26)
}

func TestPage_AllText(t *testing.T) {
	dir := indexedDir(t)

	out, err := runCLI(t, dir, "", "page", "--all", "--per-page", "4")

	require.NoError(t, err)
	assert.Contains(t, out, "  1. ")
	assert.Contains(t, out, " 26. ")
	assert.NotContains(t, out, " 27. ")
}

func TestPage_Hybrid(t *testing.T) {
	dir := indexedDir(t)
	store, err := catalog.Open(filepath.Join(dir, config.DataDirName, "records.db"), catalog.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), "inv-1"))
	require.NoError(t, store.Close())

	out, err := runCLI(t, dir, "", "page", "--hybrid", "--per-page", "30", "--format", "json")

	require.NoError(t, err)
	res := decodeResult(t, out)
	require.Len(t, res.Results, 26)
	raw := 0
	for _, e := range res.Results {
		if e.Raw {
			raw++
			assert.Equal(t, "inv-1", e.ID)
		}
	}
	assert.Equal(t, 1, raw)
}

func TestInit_WritesConfigOnce(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.ProjectFileName)
	assert.FileExists(t, filepath.Join(dir, config.ProjectFileName))

	_, err = runCLI(t, dir, "", "init")
	assert.Error(t, err)

	data, err := os.ReadFile(filepath.Join(dir, config.ProjectFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# hitpager project configuration.")

	_, err = runCLI(t, dir, "", "init", "--force", "--effective")
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dir, config.ProjectFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_size: 10")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Short()+"\n", out)

	out, err = runCLI(t, t.TempDir(), "", "version", "--json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
}

func TestIngest_Batches(t *testing.T) {
	// Given: five valid records and a batch size of two
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&sb, `{"id":"%d","title":"t"}`+"\n", i)
	}
	var sizes []int

	// When: ingesting
	stats, err := ingest(context.Background(), strings.NewReader(sb.String()), indexOptions{batchSize: 2},
		func(b []catalog.Record) error {
			sizes = append(sizes, len(b))
			return nil
		}, func(int, error) { t.Fatal("unexpected skip") })

	// Then: records are flushed in order-preserving batches
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, 5, stats.Indexed)
}

func TestIngest_SkipsInvalidRecords(t *testing.T) {
	in := `{"id":"a","title":"ok"}` + "\n" + `{"id":"","title":"no id"}` + "\n" + `not json` + "\n"
	var skipped []int

	stats, err := ingest(context.Background(), strings.NewReader(in), indexOptions{batchSize: 10},
		func([]catalog.Record) error { return nil },
		func(line int, _ error) { skipped = append(skipped, line) })

	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, skipped)
	assert.Equal(t, indexStats{Indexed: 1, Skipped: 2}, stats)
}

func TestInputFor(t *testing.T) {
	assert.Equal(t, query.Raw("a b"), inputFor([]string{"a", "b"}, "", nil))
	assert.Equal(t, query.Structured{Text: "x", Terms: map[string]string{"status": "active"}},
		inputFor([]string{"x"}, "active", nil))
	assert.Equal(t, query.Structured{Sort: []string{"title"}}, inputFor(nil, "", []string{"title"}))
}

func TestRoot_ProfileFlags(t *testing.T) {
	dir := indexedDir(t)
	heap := filepath.Join(t.TempDir(), "heap.prof")

	_, err := runCLI(t, dir, "", "count", "--profile-mem", heap)

	require.NoError(t, err)
	assert.FileExists(t, heap)
}

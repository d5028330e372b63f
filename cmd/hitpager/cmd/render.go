package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aman-CERP/hitpager/internal/catalog"
	"github.com/Aman-CERP/hitpager/internal/metrics"
	"github.com/Aman-CERP/hitpager/internal/output"
	"github.com/Aman-CERP/hitpager/internal/search"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// resultJSON is the JSON shape of search and page output.
type resultJSON struct {
	Query   string      `json:"query"`
	Total   int         `json:"total"`
	Page    *pageJSON   `json:"page,omitempty"`
	Results []entryJSON `json:"results"`
}

type pageJSON struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	PerPage int   `json:"per_page"`
	Start   int   `json:"start"`
	End     int   `json:"end"`
	Window  []int `json:"window,omitempty"`
}

// entryJSON is either a record or, for hybrid output, the raw hit that had
// no stored record.
type entryJSON struct {
	ID     string          `json:"id"`
	Score  float64         `json:"score,omitempty"`
	Raw    bool            `json:"raw,omitempty"`
	Record *catalog.Record `json:"record,omitempty"`
}

func recordEntries(recs []catalog.Record) []entryJSON {
	out := make([]entryJSON, 0, len(recs))
	for i := range recs {
		out = append(out, entryJSON{ID: recs[i].ID, Record: &recs[i]})
	}
	return out
}

func hybridEntries(entries []search.Entry[catalog.Record]) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		if rec, ok := e.Object(); ok {
			out = append(out, entryJSON{ID: rec.ID, Record: &rec})
			continue
		}
		hit, _ := e.Raw()
		out = append(out, entryJSON{ID: hit.ID, Score: hit.Score, Raw: true})
	}
	return out
}

func hitEntries(hits []search.Hit) []entryJSON {
	out := make([]entryJSON, 0, len(hits))
	for _, h := range hits {
		out = append(out, entryJSON{ID: h.ID, Score: h.Score, Raw: true})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeEntries prints entries as a ranked list starting at rank first.
func writeEntries(out *output.Writer, first int, entries []entryJSON) {
	for i, e := range entries {
		rank := first + i
		if e.Record == nil {
			out.Placeholder(rank, e.ID, e.Score)
			continue
		}
		out.Item(rank, e.Record.Title, recordDetail(*e.Record))
	}
}

func recordDetail(r catalog.Record) string {
	parts := []string{r.ID}
	if r.Status != "" {
		parts = append(parts, r.Status)
	}
	if !r.UpdatedAt.IsZero() {
		parts = append(parts, r.UpdatedAt.Format("2006-01-02"))
	}
	return strings.Join(parts, " · ")
}

// writeStats prints the hitpager metrics gathered by this process.
func writeStats(w io.Writer) error {
	samples, err := metrics.Snapshot(prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Stats:")
	for _, s := range samples {
		if _, err := fmt.Fprintf(w, "  %s\n", s); err != nil {
			return err
		}
	}
	return nil
}

func validateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid --format %q (valid: text, json)", format)
	}
}

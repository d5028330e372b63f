// Package query normalizes the different ways a caller can describe a search
// into an immutable Query bound to the bleve query DSL.
package query

import (
	"fmt"
	"strings"

	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// Kind records which Input variant produced a Query.
type Kind string

const (
	KindRaw        Kind = "raw"
	KindStructured Kind = "structured"
	KindMatchAll   Kind = "match_all"
)

// Query is an executable search query. It is immutable: every With* method
// returns a modified copy and leaves the receiver untouched.
type Query struct {
	q    blevequery.Query
	kind Kind
	text string

	limit    int
	hasLimit bool

	offset   int
	size     int
	windowed bool

	countOnly bool

	sort   []string
	fields []string
}

func (Query) isInput() {}

// Bleve returns the underlying bleve query.
func (q Query) Bleve() blevequery.Query {
	return q.q
}

// Kind returns the input variant this query was built from.
func (q Query) Kind() Kind {
	return q.kind
}

// Text returns the raw query string for raw queries, empty otherwise.
func (q Query) Text() string {
	return q.text
}

// Limit returns the maximum number of hits to retrieve and whether one is set.
func (q Query) Limit() (int, bool) {
	return q.limit, q.hasLimit
}

// WithLimit returns a copy bounded to at most n hits. An existing window
// keeps its offset and is shrunk to at most n hits.
func (q Query) WithLimit(n int) Query {
	q.limit = n
	q.hasLimit = true
	if q.windowed && q.size > n {
		q.size = n
	}
	return q
}

// WithWindow returns a copy restricted to size hits starting at offset.
// A window set after a limit takes precedence over it.
func (q Query) WithWindow(offset, size int) Query {
	q.offset = offset
	q.size = size
	q.windowed = true
	q.countOnly = false
	return q
}

// Window returns the window bounds and whether a window is set.
func (q Query) Window() (offset, size int, ok bool) {
	return q.offset, q.size, q.windowed
}

// CountOnly returns a copy that asks the backend for the total hit count
// without loading any hits.
func (q Query) CountOnly() Query {
	q.countOnly = true
	q.windowed = false
	q.offset, q.size = 0, 0
	return q
}

// IsCountOnly reports whether the query only asks for the total.
func (q Query) IsCountOnly() bool {
	return q.countOnly
}

// Bounds resolves the offset and page size a backend should use.
// defaultSize applies when neither a window nor a limit is set.
func (q Query) Bounds(defaultSize int) (from, size int) {
	switch {
	case q.countOnly:
		return 0, 0
	case q.windowed:
		return q.offset, q.size
	case q.hasLimit:
		return 0, q.limit
	default:
		return 0, defaultSize
	}
}

// Sort returns the sort order, nil for relevance ranking.
func (q Query) Sort() []string {
	if len(q.sort) == 0 {
		return nil
	}
	return append([]string(nil), q.sort...)
}

// WithSort returns a copy sorted by the given bleve sort fields
// (e.g. "-_score", "title", "-updated_at").
func (q Query) WithSort(fields ...string) Query {
	q.sort = append([]string(nil), fields...)
	return q
}

// Fields returns the stored fields the backend should return as hit source.
func (q Query) Fields() []string {
	return append([]string(nil), q.fields...)
}

// WithFields returns a copy loading the given stored fields.
func (q Query) WithFields(fields ...string) Query {
	q.fields = append([]string(nil), fields...)
	return q
}

// String describes the query for logs.
func (q Query) String() string {
	var sb strings.Builder
	sb.WriteString(string(q.kind))
	if q.text != "" {
		sb.WriteString(fmt.Sprintf(" %q", q.text))
	}
	switch {
	case q.countOnly:
		sb.WriteString(" count")
	case q.windowed:
		sb.WriteString(fmt.Sprintf(" window=%d+%d", q.offset, q.size))
	case q.hasLimit:
		sb.WriteString(fmt.Sprintf(" limit=%d", q.limit))
	}
	if len(q.sort) > 0 {
		sb.WriteString(" sort=" + strings.Join(q.sort, ","))
	}
	return sb.String()
}

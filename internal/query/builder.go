package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/hitpager/internal/errors"
)

// DefaultParseCacheSize is the number of parsed query strings kept by a Builder.
const DefaultParseCacheSize = 256

// DefaultFields loads every stored field as hit source.
var DefaultFields = []string{"*"}

// Builder turns an Input into a Query. It is safe for concurrent use.
type Builder struct {
	cache  *lru.Cache[string, blevequery.Query]
	fields []string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithParseCacheSize sets how many parsed query strings are cached.
// Zero or negative disables the cache.
func WithParseCacheSize(n int) BuilderOption {
	return func(b *Builder) {
		if n <= 0 {
			b.cache = nil
			return
		}
		b.cache, _ = lru.New[string, blevequery.Query](n)
	}
}

// WithSourceFields sets which stored fields built queries load.
func WithSourceFields(fields ...string) BuilderOption {
	return func(b *Builder) {
		b.fields = append([]string(nil), fields...)
	}
}

// NewBuilder creates a Builder with a parse cache of DefaultParseCacheSize.
func NewBuilder(opts ...BuilderOption) *Builder {
	cache, _ := lru.New[string, blevequery.Query](DefaultParseCacheSize)
	b := &Builder{
		cache:  cache,
		fields: DefaultFields,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Create normalizes in into a Query. A nil input selects every document.
// Raw strings that do not parse fail with errors.ErrMalformedQuery.
func (b *Builder) Create(in Input) (Query, error) {
	switch v := in.(type) {
	case nil:
		return b.matchAll(), nil
	case Query:
		return v, nil
	case Raw:
		return b.fromRaw(string(v))
	case Structured:
		return b.fromStructured(v)
	default:
		return Query{}, errors.ValidationError(fmt.Sprintf("unsupported query input %T", in), nil).
			WithStage(errors.StageQueryBuild)
	}
}

func (b *Builder) matchAll() Query {
	return Query{
		q:      bleve.NewMatchAllQuery(),
		kind:   KindMatchAll,
		fields: b.fields,
	}
}

func (b *Builder) fromRaw(s string) (Query, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return b.matchAll(), nil
	}

	parsed, err := b.parse(text)
	if err != nil {
		return Query{}, errors.MalformedQuery(fmt.Sprintf("cannot parse query %q", text), err).
			WithDetail("query", text)
	}

	return Query{
		q:      parsed,
		kind:   KindRaw,
		text:   text,
		fields: b.fields,
	}, nil
}

func (b *Builder) parse(text string) (blevequery.Query, error) {
	if b.cache != nil {
		if q, ok := b.cache.Get(text); ok {
			return q, nil
		}
	}

	q, err := bleve.NewQueryStringQuery(text).Parse()
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		b.cache.Add(text, q)
	}
	return q, nil
}

func (b *Builder) fromStructured(s Structured) (Query, error) {
	var clauses []blevequery.Query

	if text := strings.TrimSpace(s.Text); text != "" {
		clauses = append(clauses, bleve.NewMatchQuery(text))
	}

	for _, field := range sortedKeys(s.Match) {
		if field == "" {
			return Query{}, errors.MalformedQuery("match clause with empty field name", nil)
		}
		mq := bleve.NewMatchQuery(s.Match[field])
		mq.SetField(field)
		clauses = append(clauses, mq)
	}

	for _, field := range sortedKeys(s.Terms) {
		if field == "" {
			return Query{}, errors.MalformedQuery("term clause with empty field name", nil)
		}
		tq := bleve.NewTermQuery(s.Terms[field])
		tq.SetField(field)
		clauses = append(clauses, tq)
	}

	q := b.matchAll()
	if len(clauses) > 0 {
		q.q = bleve.NewConjunctionQuery(clauses...)
		q.kind = KindStructured
	}
	if len(s.Sort) > 0 {
		q = q.WithSort(s.Sort...)
	}
	return q, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

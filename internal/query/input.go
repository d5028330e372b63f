package query

// Input is anything the Builder accepts. The set is closed: Raw,
// Structured and an already built Query.
type Input interface {
	isInput()
}

// Raw is a query in bleve query-string syntax, e.g. `status:active title:go`.
type Raw string

func (Raw) isInput() {}

// Structured describes a query field by field. All clauses must match.
type Structured struct {
	// Text is matched against all indexed fields.
	Text string
	// Match maps a field to analyzed text that must match it.
	Match map[string]string
	// Terms maps a field to an exact, unanalyzed term.
	Terms map[string]string
	// Sort is a list of bleve sort fields ("-_score", "title", "-updated_at").
	Sort []string
}

func (Structured) isInput() {}

// MatchAll returns an Input selecting every document.
func MatchAll() Input {
	return Structured{}
}

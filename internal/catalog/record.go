// Package catalog holds the domain records that search hits resolve to and
// their SQLite repository.
package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Record is a searchable catalog entry.
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Status    string    `json:"status" yaml:"status"`
	Body      string    `json:"body,omitempty" yaml:"body,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Validate checks the fields required to store and index a record.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("record %s: title is required", r.ID)
	}
	return nil
}

// Document returns the fields indexed for r.
func (r Record) Document() map[string]any {
	doc := map[string]any{
		"title":  r.Title,
		"status": r.Status,
		"body":   r.Body,
	}
	if !r.UpdatedAt.IsZero() {
		doc["updated_at"] = r.UpdatedAt.UTC()
	}
	return doc
}

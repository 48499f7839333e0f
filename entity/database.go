package entity

import "net/http"

import "botfleet/lib/validate"

// DatabaseType distinguishes the two knowledge-base shapes the LLM Adapter
// injects into a system prompt differently (spec.md §4.3).
type DatabaseType string

const (
	DatabaseTypeText DatabaseType = "text"
	DatabaseTypeJSON DatabaseType = "json"
)

// Database is a named knowledge base a Bot may reference by DatabaseId.
// Size is derived, not stored, from len(Content).
type Database struct {
	Id          string       `json:"id"`
	Name        string       `json:"name" validate:"required"`
	Type        DatabaseType `json:"type" validate:"required,oneof=text json"`
	Description string       `json:"description"`
	Content     string       `json:"content"`
}

func (d *Database) Bind(_ *http.Request) error {
	return validate.Struct(d)
}

func (d *Database) Size() int {
	return len(d.Content)
}

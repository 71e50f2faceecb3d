package domain

import (
	"time"

	"github.com/google/uuid"
)

// PositionTemplate is a reusable description of a prominent public
// function for a given country and period. Templates seed candidate
// discovery and keep position naming consistent across records.
//
// Uniqueness: no two templates share (Title, Country, Year).
type PositionTemplate struct {
	ID       uuid.UUID        `json:"id" db:"id"`
	Title    string           `json:"title" db:"title"`
	Category PositionCategory `json:"category" db:"category"`
	Country  string           `json:"country,omitempty" db:"country"`

	// Year is the year or period the position is relevant for, e.g.
	// "2024", "2020-2024" or "current".
	Year string `json:"year,omitempty" db:"year"`

	Notes  string `json:"notes,omitempty" db:"notes"`
	Active bool   `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the template's required fields.
func (t *PositionTemplate) Validate() error {
	if t.Title == "" {
		return NewValidationError("title", "must not be empty")
	}
	if !validPositionCategory(t.Category) {
		return NewValidationError("category", "unknown category "+string(t.Category))
	}
	return nil
}

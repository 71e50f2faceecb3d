package domain

import "time"

// CandidateLine is an unconfirmed register entry produced by a candidate
// source, such as AI-assisted discovery or a declaration-portal import.
// Lines carry raw findings only; they become PEPRecords through the same
// validation and dedup path as manual entry.
type CandidateLine struct {
	// FullName may be a "native (latin)" composite, matching the
	// register's naming convention.
	FullName string `json:"full_name"`

	// SpecificTitle is the free-text role the source reported, e.g.
	// "Minister of Finance". Promoted records keep it as the custom
	// position title under the "other" category.
	SpecificTitle string `json:"specific_title,omitempty"`

	Organization string `json:"organization,omitempty"`
	Nationality  string `json:"nationality,omitempty"`

	// StartYear/EndYear bound the reported tenure when known.
	StartYear int `json:"start_year,omitempty"`
	EndYear   int `json:"end_year,omitempty"`
	BirthYear int `json:"birth_year,omitempty"`

	Notes string `json:"notes,omitempty"`

	// Source identifies where the line came from, recorded on the
	// promoted record for audit.
	Source string `json:"source,omitempty"`

	DiscoveredAt time.Time `json:"discovered_at,omitempty"`
}

// Validate checks the line carries enough to attempt promotion.
func (c *CandidateLine) Validate() error {
	if c.FullName == "" {
		return NewValidationError("full_name", "must not be empty")
	}
	return nil
}

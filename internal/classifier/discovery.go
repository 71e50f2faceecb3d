package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/compliance/pep-registry/internal/domain"
)

// PositionSuggestion is one AI-suggested position worth tracking as a
// template.
type PositionSuggestion struct {
	Title    string `json:"position_title"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

// flexInt decodes a JSON number that models sometimes quote as a string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

type holderLine struct {
	Name          string  `json:"name"`
	SpecificTitle string  `json:"specific_title"`
	Notes         string  `json:"notes"`
	StartYear     flexInt `json:"start_year"`
	EndYear       flexInt `json:"end_year"`
	BirthYear     flexInt `json:"birth_year"`
}

// DiscoverHolders asks the model who held the given position in the
// given country and period, returning candidate lines for review and
// possible promotion into the register.
func (c *OpenAIClassifier) DiscoverHolders(ctx context.Context, position, country, year string) ([]domain.CandidateLine, error) {
	content, err := c.complete(ctx, holdersPrompt(position, country, year))
	if err != nil {
		return nil, err
	}

	var payload struct {
		PEPs []holderLine `json:"peps"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &domain.MalformedExternalResponse{
			Provider: c.cfg.Provider,
			Excerpt:  domain.Excerpt(content),
			Err:      err,
		}
	}

	now := time.Now().UTC()
	source := fmt.Sprintf("ai:%s", c.cfg.Model)
	lines := make([]domain.CandidateLine, 0, len(payload.PEPs))
	for _, holder := range payload.PEPs {
		if holder.Name == "" {
			continue
		}
		lines = append(lines, domain.CandidateLine{
			FullName:      holder.Name,
			SpecificTitle: holder.SpecificTitle,
			Nationality:   country,
			StartYear:     int(holder.StartYear),
			EndYear:       int(holder.EndYear),
			BirthYear:     int(holder.BirthYear),
			Notes:         holder.Notes,
			Source:        source,
			DiscoveredAt:  now,
		})
	}
	return lines, nil
}

// DiscoverPositions asks the model which positions in the given country
// and year qualify their holders as politically exposed.
func (c *OpenAIClassifier) DiscoverPositions(ctx context.Context, country, year string) ([]PositionSuggestion, error) {
	content, err := c.complete(ctx, positionsPrompt(country, year))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Positions []PositionSuggestion `json:"positions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &domain.MalformedExternalResponse{
			Provider: c.cfg.Provider,
			Excerpt:  domain.Excerpt(content),
			Err:      err,
		}
	}

	suggestions := make([]PositionSuggestion, 0, len(payload.Positions))
	for _, suggestion := range payload.Positions {
		if suggestion.Title == "" {
			continue
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, nil
}

func holdersPrompt(position, country, year string) string {
	parts := []string{
		fmt.Sprintf("Please act as a compliance research expert. Find a list of individuals who held the position of '%s' in the country '%s' during the period %s.", position, country, year),
		"\nProvide the response as a single, clean JSON object with a key 'peps', which is an array of objects. Each object must have the following keys:",
		`- "name": (string) The full name of the person.`,
		`- "specific_title": (string) Their specific title or role during that period.`,
		`- "notes": (string) A brief note about their tenure or significance.`,
		`- "start_year": (number) The year their tenure started, or null if unknown.`,
		`- "end_year": (number) The year their tenure ended, or null if still in office.`,
		`- "birth_year": (number) Their year of birth, or null if unknown.`,
		"\nCRITICAL FORMATTING RULE FOR 'name' FIELD:",
		"If the country is Mongolia, the name MUST be in the format 'Эцэг/эхийн нэр Өөрийн нэр (Firstname Surname)'.",
		"You must expand any initials. For example:",
		"  - If you find 'Д. Ганзориг (D. Ganzorig)', you must research and return the full name like 'Дамдин Ганзориг (Ganzorig Damdin)'.",
		"  - If you find 'Ухнаа Хүрэлсүх (Khurelsukh Ukhnaa)', this format is correct.",
		"For all other countries, provide the name as commonly written.",
		"\nIf you cannot find any information, return a JSON object with an empty 'peps' array.",
	}
	return strings.Join(parts, "\n")
}

func positionsPrompt(country, year string) string {
	categories := []string{
		string(domain.PositionHeadOfState), string(domain.PositionHeadOfGovernment),
		string(domain.PositionMinister), string(domain.PositionParliamentMember),
		string(domain.PositionJudiciary), string(domain.PositionCentralBank),
		string(domain.PositionAmbassador), string(domain.PositionMilitaryOfficer),
		string(domain.PositionSOEExecutive), string(domain.PositionPartyOfficial),
		string(domain.PositionIntlDirector), string(domain.PositionIntlBoard),
		string(domain.PositionOther),
	}

	parts := []string{
		fmt.Sprintf("Please act as a compliance research expert. List the public positions in the country '%s' during %s whose holders qualify as politically exposed persons.", country, year),
		"\nProvide the response as a single, clean JSON object with a key 'positions', which is an array of objects. Each object must have the following keys:",
		`- "position_title": (string) The specific title of the position.`,
		fmt.Sprintf(`- "category": (string) The closest category among: %s.`, strings.Join(categories, ", ")),
		`- "notes": (string) A brief note on why the position is prominent.`,
		"\nIf you cannot find any information, return a JSON object with an empty 'positions' array.",
	}
	return strings.Join(parts, "\n")
}

package screening_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compliance/pep-registry/internal/screening"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases_and_collapses", "  John   SMITH ", "john smith"},
		{"strips_honorific", "Dr. John Smith", "john smith"},
		{"strips_female_honorific", "Mrs. Jane Doe", "jane doe"},
		{"drops_punctuation_and_suffix", "O'Brien, Jr", "obrien"},
		{"removes_transliteration_segment", "Дамдин Ганзориг (Ganzorig Damdin)", "дамдин ганзориг"},
		{"empty", "", ""},
		{"only_honorific", "Dr.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, screening.Normalize(tt.raw))
		})
	}
}

func TestLatinSegment(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"composite_name", "Дамдин Ганзориг (Ganzorig Damdin)", "Ganzorig Damdin"},
		{"no_segment", "John Smith", ""},
		{"first_segment_wins", "A (B) (C)", "B"},
		{"inner_whitespace_trimmed", "X (  spaced out  )", "spaced out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, screening.LatinSegment(tt.raw))
		})
	}
}

// Spellings of the same name must produce identical keys regardless of
// script, token order or minor spelling variation.
func TestPhoneticKeyEquivalentSpellings(t *testing.T) {
	groups := []struct {
		name      string
		spellings []string
	}{
		{
			name: "register_convention_and_query_forms",
			spellings: []string{
				"Дамдин Ганзориг (Ganzorig Damdin)",
				"Damdin Ganzorig",
				"Ganzorig Damdin",
				"Дамдин Ганзориг",
			},
		},
		{
			name:      "cyrillic_vs_transliteration",
			spellings: []string{"Сүхбаатар", "Sukhbaatar"},
		},
		{
			name:      "spelling_variants",
			spellings: []string{"Smith", "Smyth"},
		},
		{
			name:      "dropped_silent_h",
			spellings: []string{"Johnson", "Jonson"},
		},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			first := screening.PhoneticKey(g.spellings[0])
			assert.NotEqual(t, screening.NoPhoneticKey, first)
			for _, spelling := range g.spellings[1:] {
				assert.Equal(t, first, screening.PhoneticKey(spelling),
					"key for %q differs from %q", spelling, g.spellings[0])
			}
		})
	}
}

func TestPhoneticKeyDistinguishesNames(t *testing.T) {
	assert.NotEqual(t,
		screening.PhoneticKey("John Smith"),
		screening.PhoneticKey("Bold Khan"),
	)
}

// Keying is total: every non-empty name gets a key, only the empty name
// gets the sentinel.
func TestPhoneticKeyTotality(t *testing.T) {
	assert.Equal(t, screening.NoPhoneticKey, screening.PhoneticKey(""))
	assert.Equal(t, screening.NoPhoneticKey, screening.PhoneticKey("   "))

	for _, raw := range []string{"1234", "Dr.", "Ганзориг", "x"} {
		assert.NotEqual(t, screening.NoPhoneticKey, screening.PhoneticKey(raw),
			"name %q must still produce a key", raw)
	}
}

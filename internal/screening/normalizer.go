package screening

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// NoPhoneticKey is the explicit sentinel for an empty or absent name.
// It is a value, not an error: phonetic keying is total.
const NoPhoneticKey = ""

// parenthetical captures the Latin transliteration segment in composite
// names such as "Дамдин Ганзориг (Ganzorig Damdin)".
var parenthetical = regexp.MustCompile(`\((.*?)\)`)

// Normalize canonicalizes a name for exact comparison: lowercase, the
// parenthetical transliteration removed, honorifics stripped, punctuation
// dropped and whitespace collapsed.
func Normalize(raw string) string {
	return normalizeName(parenthetical.ReplaceAllString(raw, " "))
}

// LatinSegment returns the transliteration inside the first parenthetical
// segment, or "" when the name carries none.
func LatinSegment(raw string) string {
	m := parenthetical.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// PhoneticKey derives the deterministic phonetic code for a name.
//
// Any non-empty name yields a non-empty key; an empty name yields
// NoPhoneticKey. When the name carries a Latin transliteration in
// parentheses that segment is preferred as the phonetic source, since
// the register stores native-script names with their transliteration.
// Cyrillic input is transliterated before encoding. Token codes are
// sorted so given-name/surname order does not change the key.
func PhoneticKey(name string) string {
	if strings.TrimSpace(name) == "" {
		return NoPhoneticKey
	}

	source := LatinSegment(name)
	if source == "" {
		source = name
	}
	source = normalizeName(transliterate(source))

	tokens := strings.Fields(source)
	codes := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if code := metaphone(token); code != "" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	key := strings.Join(codes, " ")
	if key != "" {
		return key
	}
	// Names made only of digits or unencodable runes still get a key.
	if source != "" {
		return source
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// nameAffixes are honorifics and generational suffixes dropped as whole
// tokens during normalization.
var nameAffixes = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "hon": {},
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {},
}

// normalizeName lowercases, drops everything but letters, digits and
// whitespace, removes affix tokens and collapses whitespace.
func normalizeName(name string) string {
	name = strings.ToLower(name)

	var cleaned strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			cleaned.WriteRune(r)
		}
	}

	tokens := strings.Fields(cleaned.String())
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, affix := nameAffixes[token]; affix {
			continue
		}
		kept = append(kept, token)
	}

	return strings.Join(kept, " ")
}

// cyrillicLatin maps Mongolian Cyrillic to its Latin transliteration.
var cyrillicLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "ye", 'ё': "yo", 'ж': "j", 'з': "z", 'и': "i",
	'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'ө': "u", 'п': "p", 'р': "r", 'с': "s",
	'т': "t", 'у': "u", 'ү': "u", 'ф': "f", 'х': "kh",
	'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sh", 'ъ': "i",
	'ы': "y", 'ь': "i", 'э': "e", 'ю': "yu", 'я': "ya",
}

// transliterate converts Cyrillic runes to Latin, leaving everything else
// untouched.
func transliterate(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if latin, ok := cyrillicLatin[r]; ok {
			b.WriteString(latin)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// metaphone encodes a single token with a simplified Metaphone scheme.
func metaphone(s string) string {
	if len(s) == 0 {
		return ""
	}

	s = strings.ToUpper(s)
	result := ""

	for i, char := range s {
		switch char {
		case 'A', 'E', 'I', 'O', 'U':
			if i == 0 {
				result += string(char)
			}
		case 'B':
			if i == len(s)-1 && i > 0 && s[i-1] == 'M' {
				continue
			}
			result += "B"
		case 'C':
			if i > 0 && s[i-1] == 'S' && (i+1 < len(s)) && (s[i+1] == 'I' || s[i+1] == 'E') {
				continue
			}
			if (i+1 < len(s)) && s[i+1] == 'H' {
				result += "X"
			} else if (i+1 < len(s)) && (s[i+1] == 'I' || s[i+1] == 'E') {
				result += "S"
			} else {
				result += "K"
			}
		case 'D':
			if (i+2 < len(s)) && s[i+1] == 'G' && (s[i+2] == 'E' || s[i+2] == 'Y' || s[i+2] == 'I') {
				result += "J"
			} else {
				result += "T"
			}
		case 'F', 'J', 'L', 'M', 'N', 'R':
			result += string(char)
		case 'G':
			if (i+1 < len(s)) && s[i+1] == 'H' && i > 0 {
				continue
			}
			if (i+1 < len(s)) && s[i+1] == 'N' {
				continue
			}
			result += "K"
		case 'H':
			if i == 0 || (i > 0 && !isVowel(rune(s[i-1]))) && (i+1 >= len(s) || !isVowel(rune(s[i+1]))) {
				result += "H"
			}
		case 'K':
			if i > 0 && s[i-1] == 'C' {
				continue
			}
			result += "K"
		case 'P':
			if (i+1 < len(s)) && s[i+1] == 'H' {
				result += "F"
			} else {
				result += "P"
			}
		case 'Q':
			result += "K"
		case 'S':
			if (i+1 < len(s)) && s[i+1] == 'H' {
				result += "X"
			} else if (i+2 < len(s)) && s[i+1] == 'I' && (s[i+2] == 'O' || s[i+2] == 'A') {
				result += "X"
			} else {
				result += "S"
			}
		case 'T':
			if (i+2 < len(s)) && s[i+1] == 'I' && (s[i+2] == 'O' || s[i+2] == 'A') {
				result += "X"
			} else if (i+1 < len(s)) && s[i+1] == 'H' {
				result += "0"
			} else if !((i+2 < len(s)) && s[i+1] == 'C' && s[i+2] == 'H') {
				result += "T"
			}
		case 'V':
			result += "F"
		case 'W', 'Y':
			if (i+1 < len(s)) && isVowel(rune(s[i+1])) {
				result += string(char)
			}
		case 'X':
			result += "KS"
		case 'Z':
			result += "S"
		}
	}

	return result
}

func isVowel(char rune) bool {
	return strings.ContainsRune("AEIOU", char)
}

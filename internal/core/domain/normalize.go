package domain

import "strings"

// MedleySeparator joins the individual song titles inside a medley entry.
const MedleySeparator = "/"

// Normalize canonicalizes a title for catalog comparison: parenthetical
// qualifiers like "(Acoustic)" or "(Extended Jam)" are dropped, the text is
// lower-cased, and whitespace is collapsed. Normalizing an already
// normalized string returns it unchanged.
func Normalize(title string) string {
	stripped := stripParentheticals(title)
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

func stripParentheticals(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				if depth == 0 {
					out.WriteRune(' ')
				}
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

// SplitMedley breaks a raw setlist title on the medley separator and trims
// each part. Empty parts are dropped. A title with no separator (or nothing
// but separators) comes back as a single-element slice.
func SplitMedley(rawTitle string) []string {
	if !strings.Contains(rawTitle, MedleySeparator) {
		return []string{strings.TrimSpace(rawTitle)}
	}
	var parts []string
	for _, p := range strings.Split(rawTitle, MedleySeparator) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return []string{strings.TrimSpace(rawTitle)}
	}
	return parts
}

// IsMedley reports whether a raw title holds more than one song.
func IsMedley(rawTitle string) bool {
	return len(SplitMedley(rawTitle)) > 1
}

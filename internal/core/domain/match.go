package domain

import "strings"

// Confidence is the categorical certainty of a match: Exact > High > Review > None.
type Confidence string

const (
	ConfidenceExact  Confidence = "Exact"
	ConfidenceHigh   Confidence = "High"
	ConfidenceReview Confidence = "Review"
	ConfidenceNone   Confidence = "None"
)

// Valid reports whether c is one of the recognized confidence labels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceExact, ConfidenceHigh, ConfidenceReview, ConfidenceNone:
		return true
	}
	return false
}

// Method records which pipeline stage produced a match.
type Method string

const (
	MethodDeterministic Method = "Deterministic"
	MethodLLM           Method = "LLM"
)

// MatchResult is one reconciliation output row. CatalogID and CatalogTitle
// are empty when no controlled song was matched. A Track yields one or more
// of these (medleys expand), and always at least one.
type MatchResult struct {
	Track        Track
	CatalogID    string
	CatalogTitle string
	Confidence   Confidence
	Method       Method
}

// Matched reports whether the result points at a catalog entry.
func (r MatchResult) Matched() bool {
	return r.CatalogID != ""
}

// CandidateMatch is one unvetted entry parsed out of a fuzzy-stage response.
// Field values are whatever the model produced and must pass through
// ValidateCandidate before reaching output.
type CandidateMatch struct {
	CatalogID  string
	Confidence string
	Title      string
	Reasoning  string
}

// DeterministicMatch attempts the exact normalized-title lookup. Only full
// key equality counts: partial or substring overlap ("Neon" against
// "Neon Dreams") is not a match. A miss is a normal outcome, not an error.
func DeterministicMatch(t Track, catalog *Catalog) (MatchResult, bool) {
	entry, ok := catalog.ByNormalizedTitle(Normalize(t.RawTitle))
	if !ok {
		return MatchResult{}, false
	}
	return MatchResult{
		Track:        t,
		CatalogID:    entry.ID,
		CatalogTitle: entry.Title,
		Confidence:   ConfidenceExact,
		Method:       MethodDeterministic,
	}, true
}

// ValidateCandidate turns a raw fuzzy-stage candidate into a safe result.
// An identifier not present in the catalog is discarded and the confidence
// forced to None; this is the only defense against fabricated ids. An
// unrecognized confidence label degrades to Review, a missing one to None.
func ValidateCandidate(c CandidateMatch, catalog *Catalog) MatchResult {
	id := strings.TrimSpace(c.CatalogID)
	conf := Confidence(strings.TrimSpace(c.Confidence))

	res := MatchResult{Method: MethodLLM}
	switch {
	case id == "" || strings.EqualFold(id, "None"):
		// nothing matched
	case !catalog.HasID(id):
		conf = ConfidenceNone
	default:
		entry, _ := catalog.ByID(id)
		res.CatalogID = entry.ID
		res.CatalogTitle = entry.Title
	}

	if conf == "" {
		conf = ConfidenceNone
	} else if !conf.Valid() {
		conf = ConfidenceReview
	}
	res.Confidence = conf
	return res
}

// RebindResults copies a result sequence onto a new track context, so a
// cached sequence can be reused for the same title at a different show.
func RebindResults(results []MatchResult, t Track) []MatchResult {
	out := make([]MatchResult, len(results))
	for i, r := range results {
		r.Track = t
		out[i] = r
	}
	return out
}

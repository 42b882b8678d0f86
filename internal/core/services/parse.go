package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ewilliams-labs/reprise/internal/core/domain"
)

// ErrUnparsableResponse indicates the generator payload matched none of the
// recognized response shapes.
var ErrUnparsableResponse = errors.New("unparsable generator response")

// ParseError carries the reason a payload was rejected plus a short snippet
// for the logs.
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("parse response: %s", e.Reason)
	}
	return fmt.Sprintf("parse response: %s: %q", e.Reason, e.Snippet)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrUnparsableResponse
}

type candidatePayload struct {
	CatalogID  string `json:"catalog_id"`
	Confidence string `json:"confidence"`
	Title      string `json:"title"`
	Reasoning  string `json:"reasoning"`
}

// parseCandidates decodes a generator payload into candidate matches.
// Recognized shapes, tried in order:
//   - a bare JSON array of match objects
//   - an object with a "matches", "results", or "data" array
//   - a single match object carrying "catalog_id"
//   - an object with any array value holding match objects
//
// Anything else fails closed with a ParseError.
func parseCandidates(raw string) ([]domain.CandidateMatch, error) {
	payload := sanitizeJSONPayload(raw)
	if payload == "" {
		return nil, &ParseError{Reason: "empty payload"}
	}

	if arr, ok := decodeCandidateList([]byte(payload)); ok {
		return toCandidates(arr), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, &ParseError{Reason: "not a JSON object or array", Snippet: payloadSnippet(payload)}
	}

	for _, key := range []string{"matches", "results", "data"} {
		if rawList, present := obj[key]; present {
			if arr, ok := decodeCandidateList(rawList); ok {
				return toCandidates(arr), nil
			}
		}
	}

	if _, present := obj["catalog_id"]; present {
		var single candidatePayload
		if err := json.Unmarshal([]byte(payload), &single); err == nil {
			return toCandidates([]candidatePayload{single}), nil
		}
	}

	// Last resort: any array value. Keys are visited in sorted order so the
	// outcome does not depend on map iteration.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if arr, ok := decodeCandidateList(obj[k]); ok {
			return toCandidates(arr), nil
		}
	}

	return nil, &ParseError{Reason: "unrecognized response shape", Snippet: payloadSnippet(payload)}
}

func decodeCandidateList(data []byte) ([]candidatePayload, bool) {
	var arr []candidatePayload
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func toCandidates(payloads []candidatePayload) []domain.CandidateMatch {
	out := make([]domain.CandidateMatch, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, domain.CandidateMatch{
			CatalogID:  p.CatalogID,
			Confidence: p.Confidence,
			Title:      p.Title,
			Reasoning:  p.Reasoning,
		})
	}
	return out
}

// sanitizeJSONPayload trims the payload and unwraps a markdown code fence if
// the model added one despite the JSON-only instruction.
func sanitizeJSONPayload(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		rest := s[3:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
			if j := strings.LastIndex(rest, "```"); j >= 0 {
				rest = rest[:j]
			}
			s = rest
		}
	}
	return strings.TrimSpace(s)
}

func payloadSnippet(s string) string {
	const max = 120
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package ports

import "context"

// TextGenerator is the external text-generation capability behind the fuzzy
// matching stage. GenerateJSON sends a system and user instruction pair and
// returns the raw structured payload; parsing and retry policy belong to
// the caller.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, system string, user string) (string, error)
}

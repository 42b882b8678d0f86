package domain

// Track is one performed title at one show, produced by ingestion.
// Identity is its position in the flattened input sequence.
type Track struct {
	RawTitle string
	ShowDate string
	Venue    string
	City     string
}

package domain

// Show is a single performance with its ordered setlist.
type Show struct {
	Date    string
	Venue   string
	City    string
	Setlist []string
}

// Tour is the ingested tour document: who played, which tour, which shows.
type Tour struct {
	Artist string
	Name   string
	Shows  []Show
}

// Flatten expands the nested show/setlist structure into the ordered track
// sequence the matching pipeline consumes. Show order, then setlist order,
// is preserved.
func (t Tour) Flatten() []Track {
	var tracks []Track
	for _, show := range t.Shows {
		for _, title := range show.Setlist {
			tracks = append(tracks, Track{
				RawTitle: title,
				ShowDate: show.Date,
				Venue:    show.Venue,
				City:     show.City,
			})
		}
	}
	return tracks
}

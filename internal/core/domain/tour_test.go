package domain

import "testing"

// TestTourFlatten verifies show order then setlist order is preserved and
// every track carries its show context.
func TestTourFlatten(t *testing.T) {
	tour := Tour{
		Artist: "The Midnight Echoes",
		Name:   "Neon Horizons Tour 2024",
		Shows: []Show{
			{
				Date:    "2024-06-01",
				Venue:   "The Forum",
				City:    "Los Angeles",
				Setlist: []string{"Neon Dreams", "Velocity (Extended Jam)"},
			},
			{
				Date:    "2024-06-03",
				Venue:   "Red Rocks",
				City:    "Morrison",
				Setlist: []string{"Desert Rain / Ocean Avenue"},
			},
		},
	}

	tracks := tour.Flatten()
	if len(tracks) != 3 {
		t.Fatalf("got %d tracks, want 3", len(tracks))
	}

	want := []Track{
		{RawTitle: "Neon Dreams", ShowDate: "2024-06-01", Venue: "The Forum", City: "Los Angeles"},
		{RawTitle: "Velocity (Extended Jam)", ShowDate: "2024-06-01", Venue: "The Forum", City: "Los Angeles"},
		{RawTitle: "Desert Rain / Ocean Avenue", ShowDate: "2024-06-03", Venue: "Red Rocks", City: "Morrison"},
	}
	for i, w := range want {
		if tracks[i] != w {
			t.Fatalf("track %d: got %+v, want %+v", i, tracks[i], w)
		}
	}
}

func TestTourFlattenEmpty(t *testing.T) {
	if got := (Tour{}).Flatten(); len(got) != 0 {
		t.Fatalf("empty tour produced %d tracks", len(got))
	}
}

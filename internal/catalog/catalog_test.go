package catalog

import (
	"reflect"
	"testing"
)

func TestNewAssignsIDsByPosition(t *testing.T) {
	c := New([]Track{
		{ID: 42, Path: "/a.mp3", Title: "A", Display: "Artist - A"},
		{Path: "/b.mp3", Title: "B"},
	})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	a, ok := c.Track(0)
	if !ok || a.ID != 0 || a.Display != "Artist - A" {
		t.Fatalf("Track(0) = %+v, %v", a, ok)
	}
	b, _ := c.Track(1)
	if b.Display != "B" {
		t.Fatalf("Track(1).Display = %q, want title fallback %q", b.Display, "B")
	}
	if !reflect.DeepEqual(c.Displays(), []string{"Artist - A", "B"}) {
		t.Fatalf("Displays() = %#v", c.Displays())
	}
	if !reflect.DeepEqual(c.IDs(), []TrackID{0, 1}) {
		t.Fatalf("IDs() = %#v", c.IDs())
	}
}

func TestTrackLookupOutOfRange(t *testing.T) {
	c := New([]Track{{Title: "only"}})
	for _, id := range []TrackID{NoTrack, 1, 99} {
		if c.Contains(id) {
			t.Fatalf("Contains(%d) = true, want false", id)
		}
	}

	var empty *Catalog
	if empty.Len() != 0 || empty.Contains(0) || len(empty.IDs()) != 0 {
		t.Fatal("nil catalog should behave as empty")
	}
}

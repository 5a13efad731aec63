package catalog

import "time"

// TrackID identifies a track by its stable position in the catalog.
type TrackID int

// NoTrack marks the absence of a track.
const NoTrack TrackID = -1

// Track is one playable file. Tracks are never mutated once the catalog is built.
type Track struct {
	ID       TrackID
	Path     string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration // zero when the decoder could not determine it
	Display  string
}

// HasDuration reports whether the track length is known.
func (t Track) HasDuration() bool {
	return t.Duration > 0
}

// Catalog is the immutable, ordered set of tracks for a session.
// It is safe to share between goroutines without synchronization.
type Catalog struct {
	tracks   []Track
	displays []string
}

// New builds a catalog from tracks, assigning IDs by position.
func New(tracks []Track) *Catalog {
	c := &Catalog{
		tracks:   make([]Track, len(tracks)),
		displays: make([]string, len(tracks)),
	}
	for i, t := range tracks {
		t.ID = TrackID(i)
		if t.Display == "" {
			t.Display = t.Title
		}
		c.tracks[i] = t
		c.displays[i] = t.Display
	}
	return c
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tracks)
}

// Track returns the track with the given id.
func (c *Catalog) Track(id TrackID) (Track, bool) {
	if c == nil || id < 0 || int(id) >= len(c.tracks) {
		return Track{}, false
	}
	return c.tracks[id], true
}

// Contains reports whether id refers to a catalog track.
func (c *Catalog) Contains(id TrackID) bool {
	_, ok := c.Track(id)
	return ok
}

// Displays returns the display strings indexed by track id. Callers must not modify it.
func (c *Catalog) Displays() []string {
	if c == nil {
		return nil
	}
	return c.displays
}

// IDs returns all track ids in catalog order.
func (c *Catalog) IDs() []TrackID {
	ids := make([]TrackID, c.Len())
	for i := range ids {
		ids[i] = TrackID(i)
	}
	return ids
}

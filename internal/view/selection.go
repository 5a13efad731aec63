package view

import "github.com/olivier-w/presto/internal/catalog"

// Selection is the cursor over the visible rows. In follow mode the cursor
// tracks the playing track; any manual move switches to free roam.
// The cursor is always a valid row index, or -1 when there are no rows.
type Selection struct {
	rows   []Row
	cursor int
	follow bool
	held   catalog.TrackID // selection remembered while no rows are visible
}

// NewSelection selects the first row.
func NewSelection(rows []Row, follow bool) *Selection {
	s := &Selection{follow: follow, cursor: -1, held: catalog.NoTrack}
	s.Replace(rows)
	return s
}

// Rows returns the visible rows. Callers must not modify them.
func (s *Selection) Rows() []Row { return s.rows }

// Len returns the number of visible rows.
func (s *Selection) Len() int { return len(s.rows) }

// Cursor returns the selected row index, or -1 when there are no rows.
func (s *Selection) Cursor() int { return s.cursor }

// Following reports whether the cursor tracks playback.
func (s *Selection) Following() bool { return s.follow }

// SetFollow switches follow mode.
func (s *Selection) SetFollow(on bool) { s.follow = on }

// IDs returns the visible track ids in order.
func (s *Selection) IDs() []catalog.TrackID { return IDs(s.rows) }

// Selected returns the track under the cursor.
func (s *Selection) Selected() (catalog.TrackID, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return catalog.NoTrack, false
	}
	return s.rows[s.cursor].ID, true
}

// IndexOf returns the row holding id, or -1.
func (s *Selection) IndexOf(id catalog.TrackID) int {
	for i, r := range s.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Down moves the cursor one row down, wrapping to the top.
func (s *Selection) Down() {
	s.follow = false
	if len(s.rows) == 0 {
		return
	}
	s.cursor = (s.cursor + 1) % len(s.rows)
}

// Up moves the cursor one row up, wrapping to the bottom.
func (s *Selection) Up() {
	s.follow = false
	if len(s.rows) == 0 {
		return
	}
	s.cursor = (s.cursor - 1 + len(s.rows)) % len(s.rows)
}

// Top moves the cursor to the first row.
func (s *Selection) Top() {
	s.follow = false
	if len(s.rows) > 0 {
		s.cursor = 0
	}
}

// Bottom moves the cursor to the last row.
func (s *Selection) Bottom() {
	s.follow = false
	if len(s.rows) > 0 {
		s.cursor = len(s.rows) - 1
	}
}

// Recenter moves the cursor onto id when it is visible. Like every manual
// move it leaves follow mode.
func (s *Selection) Recenter(id catalog.TrackID) {
	s.follow = false
	if i := s.IndexOf(id); i >= 0 {
		s.cursor = i
	}
}

// Relocate moves the cursor onto id when following and id is visible.
// It reports whether the cursor moved. Follow mode is never changed.
func (s *Selection) Relocate(id catalog.TrackID) bool {
	if !s.follow {
		return false
	}
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	s.cursor = i
	return true
}

// Reset swaps in rows and selects the first one.
func (s *Selection) Reset(rows []Row) {
	s.rows = rows
	s.held = catalog.NoTrack
	s.cursor = -1
	if len(rows) > 0 {
		s.cursor = 0
	}
}

// Replace swaps in freshly projected rows. The selected track stays
// selected if it is still visible; otherwise the first row is selected.
// When rows becomes empty the selected track is held and restored once it
// is visible again.
func (s *Selection) Replace(rows []Row) {
	prev, had := s.Selected()
	if !had {
		prev = s.held
	}
	s.rows = rows
	if len(rows) == 0 {
		s.cursor = -1
		s.held = prev
		return
	}
	s.held = catalog.NoTrack
	if i := s.IndexOf(prev); prev != catalog.NoTrack && i >= 0 {
		s.cursor = i
		return
	}
	s.cursor = 0
}

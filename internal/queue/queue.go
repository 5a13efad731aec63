package queue

import (
	"slices"

	"github.com/olivier-w/presto/internal/catalog"
)

// Queue is the engine's ordered playback sequence and its cursor.
// It is only touched from the engine goroutine.
type Queue struct {
	ids     []catalog.TrackID
	current int // -1 when detached: nothing selected in this order
}

// New creates a Queue over ids with no current position.
func New(ids []catalog.TrackID) *Queue {
	return &Queue{ids: slices.Clone(ids), current: -1}
}

// Replace swaps in a new order wholesale. The cursor follows keep when it
// is present in the new order; otherwise the queue is detached.
func (q *Queue) Replace(ids []catalog.TrackID, keep catalog.TrackID) {
	q.ids = slices.Clone(ids)
	q.current = q.IndexOf(keep)
}

// IDs returns a copy of the order.
func (q *Queue) IDs() []catalog.TrackID {
	return slices.Clone(q.ids)
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.ids)
}

// IndexOf returns the position of id, or -1.
func (q *Queue) IndexOf(id catalog.TrackID) int {
	if id == catalog.NoTrack {
		return -1
	}
	return slices.Index(q.ids, id)
}

// Contains reports whether id is queued.
func (q *Queue) Contains(id catalog.TrackID) bool {
	return q.IndexOf(id) >= 0
}

// CurrentIndex returns the cursor, or -1 when detached.
func (q *Queue) CurrentIndex() int {
	return q.current
}

// Current returns the track under the cursor.
func (q *Queue) Current() catalog.TrackID {
	if q.current < 0 || q.current >= len(q.ids) {
		return catalog.NoTrack
	}
	return q.ids[q.current]
}

// Seek moves the cursor onto id. It returns false if id is not queued.
func (q *Queue) Seek(id catalog.TrackID) bool {
	i := q.IndexOf(id)
	if i < 0 {
		return false
	}
	q.current = i
	return true
}

// Detach clears the cursor.
func (q *Queue) Detach() {
	q.current = -1
}

// PeekNext returns the track after the cursor without moving it. From a
// detached cursor that is the first track. With wrap, the end leads back
// to the start.
func (q *Queue) PeekNext(wrap bool) (catalog.TrackID, bool) {
	if len(q.ids) == 0 {
		return catalog.NoTrack, false
	}
	i := q.current + 1
	if i >= len(q.ids) {
		if !wrap {
			return catalog.NoTrack, false
		}
		i = 0
	}
	return q.ids[i], true
}

// PeekPrev returns the track before the cursor without moving it. From a
// detached cursor it is the last track with wrap and the first without.
func (q *Queue) PeekPrev(wrap bool) (catalog.TrackID, bool) {
	if len(q.ids) == 0 {
		return catalog.NoTrack, false
	}
	if q.current < 0 {
		if wrap {
			return q.ids[len(q.ids)-1], true
		}
		return q.ids[0], true
	}
	i := q.current - 1
	if i < 0 {
		if !wrap {
			return catalog.NoTrack, false
		}
		i = len(q.ids) - 1
	}
	return q.ids[i], true
}

package view

import (
	"testing"

	"github.com/olivier-w/presto/internal/catalog"
)

func rowsOf(v ...int) []Row {
	rows := make([]Row, len(v))
	for i, id := range v {
		rows[i] = Row{ID: catalog.TrackID(id)}
	}
	return rows
}

func TestRelocateFollowsPlayback(t *testing.T) {
	s := NewSelection(rowsOf(1, 2, 3), true)
	if !s.Relocate(3) {
		t.Fatal("Relocate(3) should move the cursor")
	}
	if s.Cursor() != 2 || !s.Following() {
		t.Fatalf("cursor=%d follow=%v, want 2 and still following", s.Cursor(), s.Following())
	}
}

func TestRelocateIgnoresHiddenTrack(t *testing.T) {
	s := NewSelection(rowsOf(1, 2, 3), true)
	s.Relocate(2)
	if s.Relocate(9) {
		t.Fatal("Relocate to a hidden track should not move")
	}
	if s.Cursor() != 1 || !s.Following() {
		t.Fatalf("cursor=%d follow=%v, want unchanged", s.Cursor(), s.Following())
	}
}

func TestRelocateInFreeRoam(t *testing.T) {
	s := NewSelection(rowsOf(1, 2, 3), false)
	if s.Relocate(3) || s.Cursor() != 0 {
		t.Fatal("free roam cursor must not follow playback")
	}
}

func TestManualMovesLeaveFollow(t *testing.T) {
	moves := map[string]func(*Selection){
		"down":     (*Selection).Down,
		"up":       (*Selection).Up,
		"top":      (*Selection).Top,
		"bottom":   (*Selection).Bottom,
		"recenter": func(s *Selection) { s.Recenter(2) },
	}
	for name, move := range moves {
		t.Run(name, func(t *testing.T) {
			s := NewSelection(rowsOf(1, 2, 3), true)
			move(s)
			if s.Following() {
				t.Fatalf("%s kept follow mode", name)
			}
		})
	}
}

func TestMoveDownOntoPlayingTrackStillLeavesFollow(t *testing.T) {
	s := NewSelection(rowsOf(1, 2, 3), true)
	s.Down() // lands on 2, pretend it is playing
	if id, _ := s.Selected(); id != 2 || s.Following() {
		t.Fatalf("selected=%d follow=%v, want 2 in free roam", id, s.Following())
	}
}

func TestMovesWrap(t *testing.T) {
	s := NewSelection(rowsOf(1, 2, 3), false)
	s.Up()
	if s.Cursor() != 2 {
		t.Fatalf("Up from top = %d, want 2", s.Cursor())
	}
	s.Down()
	if s.Cursor() != 0 {
		t.Fatalf("Down from bottom = %d, want 0", s.Cursor())
	}
	s.Bottom()
	s.Top()
	if s.Cursor() != 0 {
		t.Fatalf("Top = %d, want 0", s.Cursor())
	}
}

func TestReplaceKeepsSelectedTrack(t *testing.T) {
	s := NewSelection(rowsOf(1, 2, 3), false)
	s.Bottom()
	s.Replace(rowsOf(3, 1))
	if id, _ := s.Selected(); id != 3 || s.Cursor() != 0 {
		t.Fatalf("selected=%d cursor=%d, want track 3 at 0", id, s.Cursor())
	}

	s.Replace(rowsOf(4, 5))
	if id, _ := s.Selected(); id != 4 {
		t.Fatalf("selected=%d, want first row when previous selection vanished", id)
	}
}

func TestEmptySelection(t *testing.T) {
	s := NewSelection(rowsOf(1), true)
	s.Replace(nil)
	if s.Cursor() != -1 {
		t.Fatalf("cursor = %d, want -1", s.Cursor())
	}
	if _, ok := s.Selected(); ok {
		t.Fatal("empty selection should have nothing selected")
	}
	s.Down()
	s.Up()
	s.Bottom()
	if s.Cursor() != -1 {
		t.Fatalf("moves on empty selection changed cursor to %d", s.Cursor())
	}
}

func TestEmptyFilterHoldsSelection(t *testing.T) {
	s := NewSelection(rowsOf(1, 2, 3), false)
	s.Bottom()
	s.Replace(nil)
	s.Replace(rowsOf(1, 3))
	if id, _ := s.Selected(); id != 3 {
		t.Fatalf("selected=%d, want held track 3 restored", id)
	}
}

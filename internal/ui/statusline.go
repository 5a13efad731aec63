package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/util"
)

// TimeField selects one clock shown on the status line.
type TimeField string

const (
	TimeElapsed   TimeField = "elapsed"
	TimeTotal     TimeField = "total"
	TimeRemaining TimeField = "remaining"
)

// ParseTimeFields validates configured time field names, keeping their order.
func ParseTimeFields(names []string) ([]TimeField, error) {
	fields := make([]TimeField, 0, len(names))
	for _, n := range names {
		f := TimeField(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case TimeElapsed, TimeTotal, TimeRemaining:
			fields = append(fields, f)
		default:
			return nil, fmt.Errorf("unknown time field %q", n)
		}
	}
	return fields, nil
}

// StatusLine declares what the now-playing line shows: ordered track
// fields and ordered clocks, each joined by its separator.
type StatusLine struct {
	TrackFields    []catalog.Field
	TrackSeparator string
	TimeFields     []TimeField
	TimeSeparator  string
}

// DefaultStatusLine shows the display string and all three clocks.
func DefaultStatusLine() StatusLine {
	return StatusLine{
		TrackFields:    []catalog.Field{catalog.FieldDisplay},
		TrackSeparator: " - ",
		TimeFields:     []TimeField{TimeElapsed, TimeTotal, TimeRemaining},
		TimeSeparator:  " / ",
	}
}

// Track renders the track fields, skipping empty ones.
func (l StatusLine) Track(t catalog.Track) string {
	var parts []string
	for _, f := range l.TrackFields {
		if v := strings.TrimSpace(catalog.FieldValue(t, f)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, l.TrackSeparator)
}

// Time renders the clocks. An unknown total shows as --:--.
func (l StatusLine) Time(elapsed, total time.Duration) string {
	parts := make([]string, 0, len(l.TimeFields))
	for _, f := range l.TimeFields {
		switch f {
		case TimeElapsed:
			parts = append(parts, util.FormatDuration(elapsed))
		case TimeTotal:
			parts = append(parts, formatKnown(total))
		case TimeRemaining:
			if total <= 0 {
				parts = append(parts, formatKnown(0))
			} else {
				parts = append(parts, "-"+util.FormatDuration(total-elapsed))
			}
		}
	}
	return strings.Join(parts, l.TimeSeparator)
}

func formatKnown(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	return util.FormatDuration(d)
}

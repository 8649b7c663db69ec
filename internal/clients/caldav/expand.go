package caldav

import (
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
)

// maxOccurrencesPerEvent caps recurrence expansion so a malformed or
// unbounded rule cannot blow up a window query.
const maxOccurrencesPerEvent = 366

// expandRecurring materializes the occurrences of a recurring master event
// that intersect [start, end]. Each occurrence keeps the master's fields
// and duration; only the interval moves. A rule that fails to parse falls
// back to the master itself when it overlaps the window.
func expandRecurring(master domain.Event, rruleStr string, start, end time.Time, logger *slog.Logger) []domain.Event {
	rule, err := rrule.StrToRRule(rruleStr)
	if err != nil {
		logger.Debug("unparsable RRULE, treating event as single", "uid", master.ID, "error", err)
		if master.Overlaps(start, end) {
			return []domain.Event{master}
		}
		return nil
	}
	rule.DTStart(master.Start)

	// A master without DTEND has a zero End; treat it as zero-length so the
	// window below cannot invert.
	duration := master.End.Sub(master.Start)
	if duration < 0 {
		duration = 0
	}

	// Widen the lower bound so an occurrence that starts before the window
	// but runs into it is still produced.
	times := rule.Between(start.Add(-duration), end, true)

	var out []domain.Event
	for i, t := range times {
		if i >= maxOccurrencesPerEvent {
			logger.Warn("recurrence expansion truncated", "uid", master.ID, "cap", maxOccurrencesPerEvent)
			break
		}
		occ := master
		occ.Start = t
		occ.End = t.Add(duration)
		occ.ID = master.ID + "/" + t.UTC().Format(time.RFC3339)
		out = append(out, occ)
	}
	return out
}

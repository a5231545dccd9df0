package notify

import (
	"fmt"
	"time"
)

// startOfDay truncates t to midnight in its location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sameDay reports whether a and b fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	return startOfDay(a).Equal(startOfDay(b))
}

// humanWhen phrases a date relative to now: "today", "tomorrow",
// "in 3 days", "2 days ago".
func humanWhen(now, t time.Time) string {
	days := int(startOfDay(t).Sub(startOfDay(now)).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	default:
		return fmt.Sprintf("%d days ago", -days)
	}
}

// containsID reports whether id is among the given notifications; the
// deterministic sources answer StillApplies by regenerating their
// current notification set and checking membership.
func containsID(ns []Notification, id string) bool {
	for _, n := range ns {
		if n.ID == id {
			return true
		}
	}
	return false
}

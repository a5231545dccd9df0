// Package notify aggregates reminder-worthy facts from the data
// collections into a single ranked notification list, with persistent
// per-notification snooze/seen state.
package notify

import (
	"errors"
	"sort"
	"time"

	"github.com/amora-app/amora-server/idhash"
)

// ErrUnknownNotification is returned when a dismissal targets an id
// that is not in the current visible list.
var ErrUnknownNotification = errors.New("unknown notification")

// Kind tags the origin and meaning of a notification.
type Kind string

const (
	KindPetTaskDue        Kind = "pet_task_due"
	KindHealthDue         Kind = "health_due"
	KindPlanUpcoming      Kind = "plan_upcoming"
	KindSurpriseUnlockable Kind = "surprise_unlockable"
	KindSurpriseUpcoming  Kind = "surprise_upcoming"
	KindMessagesUnread    Kind = "messages_unread"
	KindPlacesPending     Kind = "places_pending"
	KindPlaceVisit        Kind = "place_visit"
	KindGoalDeadline      Kind = "goal_deadline"
	KindGoalNudge         Kind = "goal_nudge"
	KindGoalCompleted     Kind = "goal_completed"
	KindDreamNudge        Kind = "dream_nudge"
	KindDreamAchieved     Kind = "dream_achieved"
	KindRecipeSuggestion  Kind = "recipe_suggestion"
	KindMovieSuggestion   Kind = "movie_suggestion"
)

// Priority orders notifications; high sorts first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	}
	return "low"
}

// Notification is the normalized projection of one reminder-worthy
// fact. ID is stable across refreshes for the same underlying fact so
// dismissal state can be matched against it.
type Notification struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	When        time.Time `json:"when"`
	Priority    Priority  `json:"priority"`
}

// NewID derives the stable notification id for a kind and a
// source-specific key.
func NewID(kind Kind, key string) string {
	return idhash.Hash(string(kind) + "/" + key)
}

// Sort orders notifications by priority descending, then by time
// ascending within equal priority. The sort is stable.
func Sort(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Priority != ns[j].Priority {
			return ns[i].Priority > ns[j].Priority
		}
		return ns[i].When.Before(ns[j].When)
	})
}

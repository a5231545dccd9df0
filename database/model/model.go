package model

import (
	"errors"
	"time"
)

var (
	ErrNoConfiguration = errors.New("database filename not set")
	ErrNoDbHandle      = errors.New("db connection not available")
	ErrNotFound        = errors.New("not found")
	ErrInvalidKey      = errors.New("invalid unlock key")
	ErrLocked          = errors.New("surprise is still locked")
)

// Track represents a playable audio item in the shared playlist.
type Track struct {
	// ID is the unique identifier for the track.
	ID string `db:"id" json:"id"`
	// Title of the song.
	Title string `db:"title" json:"title"`
	// Artist performing the song.
	Artist string `db:"artist" json:"artist"`
	// Duration in seconds.
	Duration int `db:"duration" json:"duration"`
	// CoverURL points to the cover art, may be empty.
	CoverURL string `db:"coverurl" json:"coverUrl,omitempty"`
	// Dedication is an optional personal note attached to the track.
	Dedication string `db:"dedication" json:"dedication,omitempty"`
	// AudioURL is the playable source, may be empty for placeholder rows.
	AudioURL string `db:"audiourl" json:"audioUrl,omitempty"`
	// Favorite marks the track as a favorite.
	Favorite bool `db:"favorite" json:"isFavorite"`
	// PlayCount is incremented once per full natural playback completion.
	PlayCount int `db:"playcount" json:"playCount"`
	// Created is the time the track was added.
	Created time.Time `db:"created" json:"createdAt"`
}

// Pet represents a pet in the household.
type Pet struct {
	ID       string    `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Species  string    `db:"species" json:"species"`
	PhotoURL string    `db:"photourl" json:"photoUrl,omitempty"`
	Born     time.Time `db:"born" json:"born,omitempty"`
	Created  time.Time `db:"created" json:"createdAt"`
}

// PetTask is a care task for a pet, due at a point in time.
type PetTask struct {
	ID      string    `db:"id" json:"id"`
	PetID   string    `db:"petid" json:"petId"`
	Title   string    `db:"title" json:"title"`
	Notes   string    `db:"notes" json:"notes,omitempty"`
	Due     time.Time `db:"due" json:"due"`
	Done    bool      `db:"done" json:"done"`
	Created time.Time `db:"created" json:"createdAt"`
}

// HealthRecord is a pet health entry (vaccination, checkup, treatment)
// with an upcoming due date.
type HealthRecord struct {
	ID      string    `db:"id" json:"id"`
	PetID   string    `db:"petid" json:"petId"`
	Title   string    `db:"title" json:"title"`
	Kind    string    `db:"kind" json:"kind"`
	Notes   string    `db:"notes" json:"notes,omitempty"`
	Due     time.Time `db:"due" json:"due"`
	Created time.Time `db:"created" json:"createdAt"`
}

// Plan is a calendar entry for a shared activity.
type Plan struct {
	ID       string    `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Details  string    `db:"details" json:"details,omitempty"`
	Location string    `db:"location" json:"location,omitempty"`
	Date     time.Time `db:"date" json:"date"`
	Created  time.Time `db:"created" json:"createdAt"`
}

// Surprise unlock policies.
const (
	UnlockFree       = "free"
	UnlockDate       = "date"
	UnlockSequential = "sequential"
	UnlockKey        = "key"
)

// Surprise is a gated reveal item. Depending on UnlockType it opens
// freely, at a date, after another surprise, or with a secret key.
type Surprise struct {
	ID      string `db:"id" json:"id"`
	Title   string `db:"title" json:"title"`
	Details string `db:"details" json:"details,omitempty"`
	// UnlockType is one of free, date, sequential or key.
	UnlockType string `db:"unlocktype" json:"unlockType"`
	// UnlockAt is the reveal date for date-gated surprises.
	UnlockAt time.Time `db:"unlockat" json:"unlockAt,omitempty"`
	// DependsOn is the id of the surprise that must be unlocked first.
	DependsOn string `db:"dependson" json:"dependsOn,omitempty"`
	// KeyHash is the bcrypt hash of the unlock key, never serialized.
	KeyHash    string    `db:"keyhash" json:"-"`
	Unlocked   bool      `db:"unlocked" json:"unlocked"`
	UnlockedAt time.Time `db:"unlockedat" json:"unlockedAt,omitempty"`
	Created    time.Time `db:"created" json:"createdAt"`
}

// CanUnlock reports whether the surprise may be unlocked now. Free and
// key-gated surprises are always eligible (the key itself is checked
// at unlock time), date gates need the date to have passed, sequential
// gates need their dependency unlocked.
func (s Surprise) CanUnlock(all []Surprise, now time.Time) bool {
	if s.Unlocked {
		return false
	}
	switch s.UnlockType {
	case UnlockFree, UnlockKey:
		return true
	case UnlockDate:
		return !s.UnlockAt.IsZero() && !s.UnlockAt.After(now)
	case UnlockSequential:
		if s.DependsOn == "" {
			return true
		}
		for _, other := range all {
			if other.ID == s.DependsOn {
				return other.Unlocked
			}
		}
		return false
	}
	return false
}

// Message is a note left for the partner.
type Message struct {
	ID      string    `db:"id" json:"id"`
	Sender  string    `db:"sender" json:"sender"`
	Title   string    `db:"title" json:"title"`
	Body    string    `db:"body" json:"body"`
	Read    bool      `db:"read" json:"read"`
	Created time.Time `db:"created" json:"createdAt"`
}

// Place is a spot on the shared map, visited or still pending.
type Place struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Details string `db:"details" json:"details,omitempty"`
	Visited bool   `db:"visited" json:"visited"`
	// VisitAt is the scheduled visit date, zero if not scheduled.
	VisitAt time.Time `db:"visitat" json:"visitAt,omitempty"`
	Created time.Time `db:"created" json:"createdAt"`
}

// Meal buckets for recipe suggestions.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// Recipe is a dish to cook together.
type Recipe struct {
	ID    string `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
	// Meal is one of breakfast, lunch, dinner or snack.
	Meal    string    `db:"meal" json:"meal"`
	Notes   string    `db:"notes" json:"notes,omitempty"`
	Tried   bool      `db:"tried" json:"tried"`
	Created time.Time `db:"created" json:"createdAt"`
}

// Movie is a movie or series on the shared watchlist.
type Movie struct {
	ID    string `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
	// Kind is either movie or series.
	Kind    string    `db:"kind" json:"kind"`
	Notes   string    `db:"notes" json:"notes,omitempty"`
	Watched bool      `db:"watched" json:"watched"`
	Created time.Time `db:"created" json:"createdAt"`
}

// Goal is a shared goal with progress tracking.
type Goal struct {
	ID      string `db:"id" json:"id"`
	Title   string `db:"title" json:"title"`
	Details string `db:"details" json:"details,omitempty"`
	// Progress in percent, 0 to 100.
	Progress int `db:"progress" json:"progress"`
	// Deadline is zero when the goal has no target date.
	Deadline    time.Time `db:"deadline" json:"deadline,omitempty"`
	Completed   bool      `db:"completed" json:"completed"`
	CompletedAt time.Time `db:"completedat" json:"completedAt,omitempty"`
	Created     time.Time `db:"created" json:"createdAt"`
}

// Dream is a long-term wish, achieved or not.
type Dream struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Details    string    `db:"details" json:"details,omitempty"`
	Achieved   bool      `db:"achieved" json:"achieved"`
	AchievedAt time.Time `db:"achievedat" json:"achievedAt,omitempty"`
	Created    time.Time `db:"created" json:"createdAt"`
}

// Memory is an entry on the shared timeline.
type Memory struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Details    string    `db:"details" json:"details,omitempty"`
	PhotoURL   string    `db:"photourl" json:"photoUrl,omitempty"`
	PlaceID    string    `db:"placeid" json:"placeId,omitempty"`
	HappenedAt time.Time `db:"happenedat" json:"happenedAt"`
	Created    time.Time `db:"created" json:"createdAt"`
}

// Dismissal is the persisted per-notification snooze/seen record.
// Version is a schema version so future changes to notification id
// derivation do not collide with stale persisted entries.
type Dismissal struct {
	ID          string    `db:"id" json:"id"`
	Version     int       `db:"version" json:"version"`
	Kind        string    `db:"kind" json:"kind"`
	Status      string    `db:"status" json:"status"`
	SnoozeUntil time.Time `db:"snoozeuntil" json:"snoozeUntil,omitempty"`
	Updated     time.Time `db:"updated" json:"updatedAt"`
}

// PlayerState is the persisted snapshot of the shared player session,
// so a restart resumes where playback left off.
type PlayerState struct {
	TrackID   string    `db:"trackid"`
	Position  float64   `db:"position"`
	Volume    float64   `db:"volume"`
	Shuffle   bool      `db:"shuffle"`
	Repeat    bool      `db:"repeat"`
	Timestamp time.Time `db:"timestamp"`
}

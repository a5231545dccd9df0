package notify

import (
	"context"
	"time"
)

// Source turns one data collection into notifications. Sources are
// registered on the aggregator and iterated generically; adding a new
// fact source means adding a Source, not editing the pipeline.
type Source interface {
	// Kinds lists every notification kind this source can emit. The
	// aggregator uses it to route StillApplies calls.
	Kinds() []Kind

	// Collect queries the collection and extracts notifications that
	// currently apply. It must be safe to call concurrently with other
	// sources' Collect.
	Collect(ctx context.Context, now time.Time) ([]Notification, error)

	// StillApplies re-evaluates whether the condition behind a
	// previously emitted notification still holds. The snooze reaper
	// uses it to decide between permanent dismissal and reappearance.
	StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error)
}

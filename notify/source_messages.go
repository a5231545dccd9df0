package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/amora-app/amora-server/database"
)

// MessageSource collapses all unread messages into one summary
// notification carrying the count and the most recent title.
type MessageSource struct {
	repo database.MessageRepo
}

func NewMessageSource(repo database.MessageRepo) *MessageSource {
	return &MessageSource{repo: repo}
}

func (s *MessageSource) Kinds() []Kind {
	return []Kind{KindMessagesUnread}
}

func (s *MessageSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	messages, err := s.repo.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	count := 0
	latestIdx := -1
	for i, m := range messages {
		if m.Read {
			continue
		}
		count++
		if latestIdx == -1 {
			// list is newest first
			latestIdx = i
		}
	}
	if count == 0 {
		return nil, nil
	}
	latest := messages[latestIdx]
	return []Notification{{
		// keyed on the latest message, so a newer message yields a new
		// id and resurfaces even after a permanent dismissal
		ID:          NewID(KindMessagesUnread, latest.ID),
		Kind:        KindMessagesUnread,
		Title:       fmt.Sprintf("%d unread message(s)", count),
		Description: "Latest: " + latest.Title,
		When:        latest.Created,
		Priority:    PriorityMedium,
	}}, nil
}

func (s *MessageSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/amora-app/amora-server/database"
	"github.com/amora-app/amora-server/database/model"
)

// SurpriseSource partitions the locked surprises into "unlockable now"
// and "unlocking within 7 days" and collapses each partition to at
// most one summary notification.
type SurpriseSource struct {
	repo database.SurpriseRepo
}

func NewSurpriseSource(repo database.SurpriseRepo) *SurpriseSource {
	return &SurpriseSource{repo: repo}
}

func (s *SurpriseSource) Kinds() []Kind {
	return []Kind{KindSurpriseUnlockable, KindSurpriseUpcoming}
}

func (s *SurpriseSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	surprises, err := s.repo.ListSurprises(ctx)
	if err != nil {
		return nil, err
	}

	var unlockable, upcoming []model.Surprise
	for _, sp := range surprises {
		if sp.Unlocked {
			continue
		}
		if sp.CanUnlock(surprises, now) {
			unlockable = append(unlockable, sp)
			continue
		}
		if sp.UnlockType == model.UnlockDate &&
			sp.UnlockAt.After(now) &&
			!sp.UnlockAt.After(now.Add(7*24*time.Hour)) {
			upcoming = append(upcoming, sp)
		}
	}

	var ns []Notification

	if len(unlockable) > 0 {
		// most relevant: the one waiting the longest
		top := unlockable[0]
		for _, sp := range unlockable[1:] {
			if sp.Created.Before(top.Created) {
				top = sp
			}
		}
		ns = append(ns, Notification{
			ID:          NewID(KindSurpriseUnlockable, top.ID),
			Kind:        KindSurpriseUnlockable,
			Title:       fmt.Sprintf("%d surprise(s) ready to unlock", len(unlockable)),
			Description: top.Title + " is waiting for you",
			When:        now,
			Priority:    PriorityHigh,
		})
	}

	if len(upcoming) > 0 {
		// most relevant: the soonest reveal
		top := upcoming[0]
		for _, sp := range upcoming[1:] {
			if sp.UnlockAt.Before(top.UnlockAt) {
				top = sp
			}
		}
		ns = append(ns, Notification{
			ID:          NewID(KindSurpriseUpcoming, top.ID),
			Kind:        KindSurpriseUpcoming,
			Title:       fmt.Sprintf("%d surprise(s) unlocking soon", len(upcoming)),
			Description: top.Title + " unlocks " + humanWhen(now, top.UnlockAt),
			When:        top.UnlockAt,
			Priority:    PriorityMedium,
		})
	}
	return ns, nil
}

func (s *SurpriseSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

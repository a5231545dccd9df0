package notify

import (
	"context"
	"time"

	"github.com/amora-app/amora-server/database"
)

// PetTaskSource emits one notification per pending pet-care task due
// within the next 24 hours. Overdue tasks rank high.
type PetTaskSource struct {
	repo database.PetTaskRepo
}

func NewPetTaskSource(repo database.PetTaskRepo) *PetTaskSource {
	return &PetTaskSource{repo: repo}
}

func (s *PetTaskSource) Kinds() []Kind {
	return []Kind{KindPetTaskDue}
}

func (s *PetTaskSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	tasks, err := s.repo.ListPetTasks(ctx)
	if err != nil {
		return nil, err
	}
	var ns []Notification
	cutoff := now.Add(24 * time.Hour)
	for _, t := range tasks {
		if t.Done || t.Due.IsZero() || t.Due.After(cutoff) {
			continue
		}
		prio := PriorityMedium
		if !t.Due.After(now) {
			prio = PriorityHigh
		}
		ns = append(ns, Notification{
			ID:          NewID(KindPetTaskDue, t.ID),
			Kind:        KindPetTaskDue,
			Title:       t.Title,
			Description: "Pet care due " + humanWhen(now, t.Due),
			When:        t.Due,
			Priority:    prio,
		})
	}
	return ns, nil
}

func (s *PetTaskSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

// HealthSource emits one notification per pet health record due within
// the next 7 days.
type HealthSource struct {
	repo database.HealthRecordRepo
}

func NewHealthSource(repo database.HealthRecordRepo) *HealthSource {
	return &HealthSource{repo: repo}
}

func (s *HealthSource) Kinds() []Kind {
	return []Kind{KindHealthDue}
}

func (s *HealthSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	records, err := s.repo.ListHealthRecords(ctx)
	if err != nil {
		return nil, err
	}
	var ns []Notification
	cutoff := now.Add(7 * 24 * time.Hour)
	for _, r := range records {
		if r.Due.IsZero() || r.Due.After(cutoff) || r.Due.Before(startOfDay(now)) {
			continue
		}
		prio := PriorityMedium
		if !r.Due.After(now.Add(24 * time.Hour)) {
			prio = PriorityHigh
		}
		ns = append(ns, Notification{
			ID:          NewID(KindHealthDue, r.ID),
			Kind:        KindHealthDue,
			Title:       r.Title,
			Description: r.Kind + " due " + humanWhen(now, r.Due),
			When:        r.Due,
			Priority:    prio,
		})
	}
	return ns, nil
}

func (s *HealthSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

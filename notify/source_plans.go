package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/amora-app/amora-server/database"
)

// PlanSource emits one notification per plan dated within the coming
// week, starting today.
type PlanSource struct {
	repo database.PlanRepo
}

func NewPlanSource(repo database.PlanRepo) *PlanSource {
	return &PlanSource{repo: repo}
}

func (s *PlanSource) Kinds() []Kind {
	return []Kind{KindPlanUpcoming}
}

func (s *PlanSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	var ns []Notification
	from := startOfDay(now)
	to := from.Add(7 * 24 * time.Hour)
	for _, p := range plans {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		prio := PriorityMedium
		if sameDay(p.Date, now) {
			prio = PriorityHigh
		}
		desc := humanWhen(now, p.Date)
		if p.Location != "" {
			desc += " at " + p.Location
		}
		ns = append(ns, Notification{
			ID:          NewID(KindPlanUpcoming, p.ID),
			Kind:        KindPlanUpcoming,
			Title:       p.Title,
			Description: desc,
			When:        p.Date,
			Priority:    prio,
		})
	}
	return ns, nil
}

func (s *PlanSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

// PlaceSource emits a single summary for places still pending a visit,
// plus a separate notification for the chronologically nearest
// scheduled visit. A visit scheduled for today or already past ranks
// high.
type PlaceSource struct {
	repo database.PlaceRepo
}

func NewPlaceSource(repo database.PlaceRepo) *PlaceSource {
	return &PlaceSource{repo: repo}
}

func (s *PlaceSource) Kinds() []Kind {
	return []Kind{KindPlacesPending, KindPlaceVisit}
}

func (s *PlaceSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	places, err := s.repo.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}

	var pending, scheduled []int
	for i, p := range places {
		if p.Visited {
			continue
		}
		pending = append(pending, i)
		if !p.VisitAt.IsZero() {
			scheduled = append(scheduled, i)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	var ns []Notification

	example := places[pending[0]]
	ns = append(ns, Notification{
		ID:   NewID(KindPlacesPending, example.ID),
		Kind: KindPlacesPending,
		Title: fmt.Sprintf("%d places waiting for a visit", len(pending)),
		Description: "For example " + example.Name,
		When:        now,
		Priority:    PriorityLow,
	})

	if len(scheduled) > 0 {
		nearest := places[scheduled[0]]
		for _, i := range scheduled[1:] {
			if places[i].VisitAt.Before(nearest.VisitAt) {
				nearest = places[i]
			}
		}
		prio := PriorityMedium
		if !startOfDay(nearest.VisitAt).After(startOfDay(now)) {
			prio = PriorityHigh
		}
		ns = append(ns, Notification{
			ID:          NewID(KindPlaceVisit, nearest.ID),
			Kind:        KindPlaceVisit,
			Title:       "Visit to " + nearest.Name,
			Description: "Scheduled " + humanWhen(now, nearest.VisitAt),
			When:        nearest.VisitAt,
			Priority:    prio,
		})
	}
	return ns, nil
}

func (s *PlaceSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

package notify

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/amora-app/amora-server/database"
	"github.com/amora-app/amora-server/database/model"
)

// low-progress threshold for goal nudges, in percent
const lowProgress = 30

// GoalSource emits up to three notifications: the nearest upcoming
// deadline within 30 days, a nudge for a randomly picked low-progress
// goal, and a celebration for a goal completed in the last 7 days.
type GoalSource struct {
	repo database.GoalRepo
	mu   sync.Mutex
	rng  *rand.Rand
}

func NewGoalSource(repo database.GoalRepo, rng *rand.Rand) *GoalSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &GoalSource{repo: repo, rng: rng}
}

func (s *GoalSource) Kinds() []Kind {
	return []Kind{KindGoalDeadline, KindGoalNudge, KindGoalCompleted}
}

func (s *GoalSource) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *GoalSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	goals, err := s.repo.ListGoals(ctx)
	if err != nil {
		return nil, err
	}

	var ns []Notification

	// nearest upcoming deadline within 30 days
	var nearest *model.Goal
	for i, g := range goals {
		if g.Completed || g.Deadline.IsZero() || g.Deadline.Before(now) ||
			g.Deadline.After(now.Add(30*24*time.Hour)) {
			continue
		}
		if nearest == nil || g.Deadline.Before(nearest.Deadline) {
			nearest = &goals[i]
		}
	}
	if nearest != nil {
		prio := PriorityMedium
		if !nearest.Deadline.After(now.Add(3 * 24 * time.Hour)) {
			prio = PriorityHigh
		}
		ns = append(ns, Notification{
			ID:          NewID(KindGoalDeadline, nearest.ID),
			Kind:        KindGoalDeadline,
			Title:       nearest.Title,
			Description: "Deadline " + humanWhen(now, nearest.Deadline),
			When:        nearest.Deadline,
			Priority:    prio,
		})
	}

	// nudge for one randomly picked low-progress goal
	var slow []model.Goal
	for _, g := range goals {
		if !g.Completed && g.Progress < lowProgress {
			slow = append(slow, g)
		}
	}
	if len(slow) > 0 {
		g := slow[s.pick(len(slow))]
		ns = append(ns, Notification{
			ID:          NewID(KindGoalNudge, g.ID),
			Kind:        KindGoalNudge,
			Title:       "Keep going: " + g.Title,
			Description: "Still early days, every step counts",
			When:        now,
			Priority:    PriorityLow,
		})
	}

	// most recent completion within the last 7 days
	var done *model.Goal
	for i, g := range goals {
		if !g.Completed || g.CompletedAt.IsZero() ||
			g.CompletedAt.Before(now.Add(-7*24*time.Hour)) || g.CompletedAt.After(now) {
			continue
		}
		if done == nil || g.CompletedAt.After(done.CompletedAt) {
			done = &goals[i]
		}
	}
	if done != nil {
		ns = append(ns, Notification{
			ID:          NewID(KindGoalCompleted, done.ID),
			Kind:        KindGoalCompleted,
			Title:       "Completed: " + done.Title,
			Description: "Finished " + humanWhen(now, done.CompletedAt),
			When:        done.CompletedAt,
			Priority:    PriorityLow,
		})
	}

	return ns, nil
}

// StillApplies: deadline and completion notifications are regenerated
// deterministically and checked by membership. Nudges are rotating
// suggestions and never still apply, so an expired snooze on one is
// always promoted to seen.
func (s *GoalSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	if n.Kind == KindGoalNudge {
		return false, nil
	}
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

// DreamSource emits a motivation nudge toward one randomly picked
// unachieved dream and a celebration for a dream achieved in the last
// 7 days.
type DreamSource struct {
	repo database.DreamRepo
	mu   sync.Mutex
	rng  *rand.Rand
}

func NewDreamSource(repo database.DreamRepo, rng *rand.Rand) *DreamSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DreamSource{repo: repo, rng: rng}
}

func (s *DreamSource) Kinds() []Kind {
	return []Kind{KindDreamNudge, KindDreamAchieved}
}

func (s *DreamSource) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *DreamSource) Collect(ctx context.Context, now time.Time) ([]Notification, error) {
	dreams, err := s.repo.ListDreams(ctx)
	if err != nil {
		return nil, err
	}

	var ns []Notification

	var open []model.Dream
	for _, d := range dreams {
		if !d.Achieved {
			open = append(open, d)
		}
	}
	if len(open) > 0 {
		d := open[s.pick(len(open))]
		ns = append(ns, Notification{
			ID:          NewID(KindDreamNudge, d.ID),
			Kind:        KindDreamNudge,
			Title:       "Dream on: " + d.Title,
			Description: "What would bring this one closer?",
			When:        now,
			Priority:    PriorityLow,
		})
	}

	var achieved *model.Dream
	for i, d := range dreams {
		if !d.Achieved || d.AchievedAt.IsZero() ||
			d.AchievedAt.Before(now.Add(-7*24*time.Hour)) || d.AchievedAt.After(now) {
			continue
		}
		if achieved == nil || d.AchievedAt.After(achieved.AchievedAt) {
			achieved = &dreams[i]
		}
	}
	if achieved != nil {
		ns = append(ns, Notification{
			ID:          NewID(KindDreamAchieved, achieved.ID),
			Kind:        KindDreamAchieved,
			Title:       "Dream achieved: " + achieved.Title,
			Description: "Achieved " + humanWhen(now, achieved.AchievedAt),
			When:        achieved.AchievedAt,
			Priority:    PriorityLow,
		})
	}

	return ns, nil
}

func (s *DreamSource) StillApplies(ctx context.Context, n Notification, now time.Time) (bool, error) {
	if n.Kind == KindDreamNudge {
		return false, nil
	}
	ns, err := s.Collect(ctx, now)
	if err != nil {
		return false, err
	}
	return containsID(ns, n.ID), nil
}

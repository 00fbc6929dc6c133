package performance

import (
	"context"
	"time"
)

// Notifier delivers in-app notifications to a user.
type Notifier interface {
	Create(ctx context.Context, tenantID, userID, ntype, title, body string) error
}

// Recorder receives domain counters. The platform metrics collector
// satisfies it.
type Recorder interface {
	ProgressRecomputed(trigger string)
	ConsistencyFailure(op string)
}

const (
	NotificationGoalLinked           = "goal_linked"
	NotificationGoalProgressComplete = "goal_progress_complete"
)

type Service struct {
	store   StoreAPI
	Notify  Notifier
	Metrics Recorder
	now     func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// today is the current UTC calendar date at midnight.
func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) recordRecompute(trigger string) {
	if s.Metrics != nil {
		s.Metrics.ProgressRecomputed(trigger)
	}
}

func (s *Service) recordFailure(op string) {
	if s.Metrics != nil {
		s.Metrics.ConsistencyFailure(op)
	}
}

func decorate(goal Goal) Goal {
	goal.ProgressStatusMismatch = ProgressStatusMismatch(goal.Status, goal.Progress)
	return goal
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

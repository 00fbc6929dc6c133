package performance

import (
	"context"
	"errors"
	"time"
)

// ErrRowNotFound is returned by store implementations when a lookup or a
// targeted write matches no row.
var ErrRowNotFound = errors.New("row not found")

// Queries is the persistence surface shared by the pool and by an open
// transaction.
type Queries interface {
	CreateGoal(ctx context.Context, tenantID string, goal Goal) (string, error)
	GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error)
	LockGoal(ctx context.Context, tenantID, goalID string) (Goal, error)
	ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error)
	ListGoalsInWindow(ctx context.Context, tenantID, ownerID string, createdBefore, targetFrom time.Time) ([]Goal, error)
	ListAutoCalculatedGoalIDs(ctx context.Context, tenantID string) ([]string, error)
	UpdateGoal(ctx context.Context, tenantID string, goal Goal) error
	UpdateGoalProgress(ctx context.Context, tenantID, goalID string, progress int) error
	SetGoalAutoCalculate(ctx context.Context, tenantID, goalID string, enabled bool) error
	SetGoalReview(ctx context.Context, tenantID, goalID, reviewID string) error

	CreateMilestone(ctx context.Context, tenantID string, milestone Milestone) (string, error)
	GetMilestone(ctx context.Context, tenantID, milestoneID string) (Milestone, error)
	ListMilestones(ctx context.Context, tenantID, goalID string) ([]Milestone, error)
	UpdateMilestone(ctx context.Context, tenantID string, milestone Milestone) error
	DeleteMilestone(ctx context.Context, tenantID, milestoneID string) error

	CreateMetric(ctx context.Context, tenantID string, metric Metric) (string, error)
	GetMetric(ctx context.Context, tenantID, metricID string) (Metric, error)
	ListMetrics(ctx context.Context, tenantID, goalID string) ([]Metric, error)
	UpdateMetric(ctx context.Context, tenantID string, metric Metric) error
	DeleteMetric(ctx context.Context, tenantID, metricID string) error

	CreateReview(ctx context.Context, tenantID string, review Review) (string, error)
	GetReview(ctx context.Context, tenantID, reviewID string) (Review, error)
	ListReviews(ctx context.Context, tenantID string, filter ReviewFilter) ([]Review, error)
	UpdateReview(ctx context.Context, tenantID string, review Review) error
}

type StoreAPI interface {
	Queries
	// InTx runs fn inside one transaction. A non-nil error from fn rolls
	// everything back.
	InTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

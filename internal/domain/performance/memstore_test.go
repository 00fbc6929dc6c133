package performance

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"
)

// memStore is an in-memory StoreAPI. InTx snapshots every table and restores
// it when fn fails, which is enough to observe commit-or-nothing behavior.
type memStore struct {
	goals      map[string]Goal
	milestones map[string]Milestone
	metrics    map[string]Metric
	reviews    map[string]Review
	seq        int
	clock      time.Time
	fail       map[string]error
	calls      map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		goals:      map[string]Goal{},
		milestones: map[string]Milestone{},
		metrics:    map[string]Metric{},
		reviews:    map[string]Review{},
		clock:      time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		fail:       map[string]error{},
		calls:      map[string]int{},
	}
}

type memSnapshot struct {
	goals      map[string]Goal
	milestones map[string]Milestone
	metrics    map[string]Metric
	reviews    map[string]Review
}

func (m *memStore) snapshot() memSnapshot {
	return memSnapshot{
		goals:      maps.Clone(m.goals),
		milestones: maps.Clone(m.milestones),
		metrics:    maps.Clone(m.metrics),
		reviews:    maps.Clone(m.reviews),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.goals = s.goals
	m.milestones = s.milestones
	m.metrics = s.metrics
	m.reviews = s.reviews
}

func (m *memStore) hit(op string) error {
	m.calls[op]++
	return m.fail[op]
}

func (m *memStore) nextID(prefix string) (string, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	return fmt.Sprintf("%s-%d", prefix, m.seq), m.clock
}

func (m *memStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	if err := m.hit("Commit"); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) Ping(ctx context.Context) error {
	return m.hit("Ping")
}

func (m *memStore) CreateGoal(ctx context.Context, tenantID string, goal Goal) (string, error) {
	if err := m.hit("CreateGoal"); err != nil {
		return "", err
	}
	id, now := m.nextID("goal")
	goal.ID = id
	goal.TenantID = tenantID
	goal.CreatedAt = now
	goal.UpdatedAt = now
	m.goals[id] = goal
	return id, nil
}

func (m *memStore) GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	if err := m.hit("GetGoal"); err != nil {
		return Goal{}, err
	}
	goal, ok := m.goals[goalID]
	if !ok || goal.TenantID != tenantID {
		return Goal{}, ErrRowNotFound
	}
	return goal, nil
}

func (m *memStore) LockGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	if err := m.hit("LockGoal"); err != nil {
		return Goal{}, err
	}
	return m.GetGoal(ctx, tenantID, goalID)
}

func (m *memStore) ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error) {
	if err := m.hit("ListGoals"); err != nil {
		return nil, err
	}
	var out []Goal
	for _, goal := range m.goals {
		if goal.TenantID != tenantID {
			continue
		}
		if filter.OwnerID != "" && goal.OwnerID != filter.OwnerID {
			continue
		}
		if filter.ReviewID != "" && goal.ReviewID != filter.ReviewID {
			continue
		}
		if filter.Status != "" && goal.Status != filter.Status {
			continue
		}
		out = append(out, goal)
	}
	sortGoals(out)
	return out, nil
}

func (m *memStore) ListGoalsInWindow(ctx context.Context, tenantID, ownerID string, createdBefore, targetFrom time.Time) ([]Goal, error) {
	if err := m.hit("ListGoalsInWindow"); err != nil {
		return nil, err
	}
	var out []Goal
	for _, goal := range m.goals {
		if goal.TenantID != tenantID || goal.OwnerID != ownerID {
			continue
		}
		if goal.CreatedAt.Before(createdBefore) && !goal.TargetDate.Before(targetFrom) {
			out = append(out, goal)
		}
	}
	sortGoals(out)
	return out, nil
}

func (m *memStore) ListAutoCalculatedGoalIDs(ctx context.Context, tenantID string) ([]string, error) {
	if err := m.hit("ListAutoCalculatedGoalIDs"); err != nil {
		return nil, err
	}
	var ids []string
	for _, goal := range m.goals {
		if goal.TenantID == tenantID && goal.AutoCalculateProgress && goal.Status != GoalStatusCancelled {
			ids = append(ids, goal.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) UpdateGoal(ctx context.Context, tenantID string, goal Goal) error {
	if err := m.hit("UpdateGoal"); err != nil {
		return err
	}
	current, ok := m.goals[goal.ID]
	if !ok || current.TenantID != tenantID {
		return ErrRowNotFound
	}
	current.Title = goal.Title
	current.Description = goal.Description
	current.Category = goal.Category
	current.Priority = goal.Priority
	current.Status = goal.Status
	current.TargetDate = goal.TargetDate
	current.AssignedBy = goal.AssignedBy
	m.goals[goal.ID] = current
	return nil
}

func (m *memStore) updateGoalField(op, tenantID, goalID string, apply func(*Goal)) error {
	if err := m.hit(op); err != nil {
		return err
	}
	goal, ok := m.goals[goalID]
	if !ok || goal.TenantID != tenantID {
		return ErrRowNotFound
	}
	apply(&goal)
	m.goals[goalID] = goal
	return nil
}

func (m *memStore) UpdateGoalProgress(ctx context.Context, tenantID, goalID string, progress int) error {
	return m.updateGoalField("UpdateGoalProgress", tenantID, goalID, func(g *Goal) { g.Progress = progress })
}

func (m *memStore) SetGoalAutoCalculate(ctx context.Context, tenantID, goalID string, enabled bool) error {
	return m.updateGoalField("SetGoalAutoCalculate", tenantID, goalID, func(g *Goal) { g.AutoCalculateProgress = enabled })
}

func (m *memStore) SetGoalReview(ctx context.Context, tenantID, goalID, reviewID string) error {
	return m.updateGoalField("SetGoalReview", tenantID, goalID, func(g *Goal) { g.ReviewID = reviewID })
}

func (m *memStore) CreateMilestone(ctx context.Context, tenantID string, milestone Milestone) (string, error) {
	if err := m.hit("CreateMilestone"); err != nil {
		return "", err
	}
	id, now := m.nextID("ms")
	milestone.ID = id
	milestone.CreatedAt = now
	m.milestones[id] = milestone
	return id, nil
}

func (m *memStore) GetMilestone(ctx context.Context, tenantID, milestoneID string) (Milestone, error) {
	if err := m.hit("GetMilestone"); err != nil {
		return Milestone{}, err
	}
	milestone, ok := m.milestones[milestoneID]
	if !ok {
		return Milestone{}, ErrRowNotFound
	}
	return milestone, nil
}

func (m *memStore) ListMilestones(ctx context.Context, tenantID, goalID string) ([]Milestone, error) {
	if err := m.hit("ListMilestones"); err != nil {
		return nil, err
	}
	var out []Milestone
	for _, milestone := range m.milestones {
		if milestone.GoalID == goalID {
			out = append(out, milestone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateMilestone(ctx context.Context, tenantID string, milestone Milestone) error {
	if err := m.hit("UpdateMilestone"); err != nil {
		return err
	}
	if _, ok := m.milestones[milestone.ID]; !ok {
		return ErrRowNotFound
	}
	m.milestones[milestone.ID] = milestone
	return nil
}

func (m *memStore) DeleteMilestone(ctx context.Context, tenantID, milestoneID string) error {
	if err := m.hit("DeleteMilestone"); err != nil {
		return err
	}
	if _, ok := m.milestones[milestoneID]; !ok {
		return ErrRowNotFound
	}
	delete(m.milestones, milestoneID)
	return nil
}

func (m *memStore) CreateMetric(ctx context.Context, tenantID string, metric Metric) (string, error) {
	if err := m.hit("CreateMetric"); err != nil {
		return "", err
	}
	id, now := m.nextID("metric")
	metric.ID = id
	metric.CreatedAt = now
	metric.UpdatedAt = now
	m.metrics[id] = metric
	return id, nil
}

func (m *memStore) GetMetric(ctx context.Context, tenantID, metricID string) (Metric, error) {
	if err := m.hit("GetMetric"); err != nil {
		return Metric{}, err
	}
	metric, ok := m.metrics[metricID]
	if !ok {
		return Metric{}, ErrRowNotFound
	}
	return metric, nil
}

func (m *memStore) ListMetrics(ctx context.Context, tenantID, goalID string) ([]Metric, error) {
	if err := m.hit("ListMetrics"); err != nil {
		return nil, err
	}
	var out []Metric
	for _, metric := range m.metrics {
		if metric.GoalID == goalID {
			out = append(out, metric)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateMetric(ctx context.Context, tenantID string, metric Metric) error {
	if err := m.hit("UpdateMetric"); err != nil {
		return err
	}
	if _, ok := m.metrics[metric.ID]; !ok {
		return ErrRowNotFound
	}
	m.metrics[metric.ID] = metric
	return nil
}

func (m *memStore) DeleteMetric(ctx context.Context, tenantID, metricID string) error {
	if err := m.hit("DeleteMetric"); err != nil {
		return err
	}
	if _, ok := m.metrics[metricID]; !ok {
		return ErrRowNotFound
	}
	delete(m.metrics, metricID)
	return nil
}

func (m *memStore) CreateReview(ctx context.Context, tenantID string, review Review) (string, error) {
	if err := m.hit("CreateReview"); err != nil {
		return "", err
	}
	id, now := m.nextID("review")
	review.ID = id
	review.TenantID = tenantID
	review.CreatedAt = now
	review.UpdatedAt = now
	m.reviews[id] = review
	return id, nil
}

func (m *memStore) GetReview(ctx context.Context, tenantID, reviewID string) (Review, error) {
	if err := m.hit("GetReview"); err != nil {
		return Review{}, err
	}
	review, ok := m.reviews[reviewID]
	if !ok || review.TenantID != tenantID {
		return Review{}, ErrRowNotFound
	}
	return review, nil
}

func (m *memStore) ListReviews(ctx context.Context, tenantID string, filter ReviewFilter) ([]Review, error) {
	if err := m.hit("ListReviews"); err != nil {
		return nil, err
	}
	var out []Review
	for _, review := range m.reviews {
		if review.TenantID != tenantID {
			continue
		}
		if filter.UserID != "" && review.UserID != filter.UserID {
			continue
		}
		if filter.ManagerID != "" && review.ManagerID != filter.ManagerID {
			continue
		}
		if filter.Status != "" && review.Status != filter.Status {
			continue
		}
		out = append(out, review)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateReview(ctx context.Context, tenantID string, review Review) error {
	if err := m.hit("UpdateReview"); err != nil {
		return err
	}
	if _, ok := m.reviews[review.ID]; !ok {
		return ErrRowNotFound
	}
	m.reviews[review.ID] = review
	return nil
}

func sortGoals(goals []Goal) {
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].ID < goals[j].ID
		}
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
}

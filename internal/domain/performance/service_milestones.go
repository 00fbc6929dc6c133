package performance

import (
	"context"
	"math"
	"strings"
)

func (s *Service) ListMilestones(ctx context.Context, tenantID, goalID string) ([]Milestone, error) {
	if _, err := s.store.GetGoal(ctx, tenantID, goalID); err != nil {
		return nil, storeErr("get goal", "goal", goalID, err)
	}
	milestones, err := s.store.ListMilestones(ctx, tenantID, goalID)
	if err != nil {
		return nil, storeErr("list milestones", "goal", goalID, err)
	}
	return milestones, nil
}

func (s *Service) GetMilestone(ctx context.Context, tenantID, milestoneID string) (Milestone, error) {
	m, err := s.store.GetMilestone(ctx, tenantID, milestoneID)
	if err != nil {
		return Milestone{}, storeErr("get milestone", "milestone", milestoneID, err)
	}
	return m, nil
}

// CreateMilestone adds an open milestone to the goal and, for an
// auto-calculated goal, recomputes progress in the same transaction.
func (s *Service) CreateMilestone(ctx context.Context, tenantID, goalID string, in MilestoneInput) (Milestone, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Milestone{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	if in.TargetDate.IsZero() {
		return Milestone{}, &ValidationError{Field: "targetDate", Reason: "is required"}
	}

	var out Milestone
	var goal Goal
	progress := -1
	err := s.inTx(ctx, "create milestone", func(q Queries) error {
		var err error
		goal, err = q.LockGoal(ctx, tenantID, goalID)
		if err != nil {
			return storeErr("lock goal", "goal", goalID, err)
		}
		id, err := q.CreateMilestone(ctx, tenantID, Milestone{
			GoalID:      goalID,
			Title:       in.Title,
			Description: in.Description,
			TargetDate:  dateOnly(in.TargetDate),
		})
		if err != nil {
			return storeErr("create milestone", "milestone", "", err)
		}
		out, err = q.GetMilestone(ctx, tenantID, id)
		if err != nil {
			return storeErr("get milestone", "milestone", id, err)
		}
		if !goal.AutoCalculateProgress {
			return nil
		}
		progress, err = recompute(ctx, q, tenantID, goal, false)
		return err
	})
	if err != nil {
		s.recordFailure("create_milestone")
		return Milestone{}, err
	}
	if progress >= 0 {
		s.recordRecompute(TriggerMilestoneCreate)
	}
	return out, nil
}

// UpdateMilestone edits descriptive fields only. Completion goes through
// ToggleMilestone.
func (s *Service) UpdateMilestone(ctx context.Context, tenantID, milestoneID string, upd MilestoneUpdate) (Milestone, error) {
	m, err := s.store.GetMilestone(ctx, tenantID, milestoneID)
	if err != nil {
		return Milestone{}, storeErr("get milestone", "milestone", milestoneID, err)
	}
	if upd.Title != nil {
		m.Title = strings.TrimSpace(*upd.Title)
		if m.Title == "" {
			return Milestone{}, &ValidationError{Field: "title", Reason: "is required"}
		}
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	if upd.TargetDate != nil {
		if upd.TargetDate.IsZero() {
			return Milestone{}, &ValidationError{Field: "targetDate", Reason: "is required"}
		}
		m.TargetDate = dateOnly(*upd.TargetDate)
	}
	if err := s.store.UpdateMilestone(ctx, tenantID, m); err != nil {
		return Milestone{}, storeErr("update milestone", "milestone", milestoneID, err)
	}
	return m, nil
}

func (s *Service) DeleteMilestone(ctx context.Context, tenantID, milestoneID string) error {
	var goal Goal
	progress := -1
	err := s.inTx(ctx, "delete milestone", func(q Queries) error {
		m, err := q.GetMilestone(ctx, tenantID, milestoneID)
		if err != nil {
			return storeErr("get milestone", "milestone", milestoneID, err)
		}
		goal, err = q.LockGoal(ctx, tenantID, m.GoalID)
		if err != nil {
			return storeErr("lock goal", "goal", m.GoalID, err)
		}
		if err := q.DeleteMilestone(ctx, tenantID, milestoneID); err != nil {
			return storeErr("delete milestone", "milestone", milestoneID, err)
		}
		if !goal.AutoCalculateProgress {
			return nil
		}
		progress, err = recompute(ctx, q, tenantID, goal, false)
		return err
	})
	if err != nil {
		s.recordFailure("delete_milestone")
		return err
	}
	if progress >= 0 {
		s.recordRecompute(TriggerMilestoneDelete)
		s.notifyIfComplete(ctx, goal, progress)
	}
	return nil
}

func (s *Service) ListMetrics(ctx context.Context, tenantID, goalID string) ([]Metric, error) {
	if _, err := s.store.GetGoal(ctx, tenantID, goalID); err != nil {
		return nil, storeErr("get goal", "goal", goalID, err)
	}
	metrics, err := s.store.ListMetrics(ctx, tenantID, goalID)
	if err != nil {
		return nil, storeErr("list metrics", "goal", goalID, err)
	}
	return metrics, nil
}

func (s *Service) GetMetric(ctx context.Context, tenantID, metricID string) (Metric, error) {
	m, err := s.store.GetMetric(ctx, tenantID, metricID)
	if err != nil {
		return Metric{}, storeErr("get metric", "metric", metricID, err)
	}
	return m, nil
}

// CreateMetric attaches a display-only metric. Current may exceed target.
func (s *Service) CreateMetric(ctx context.Context, tenantID, goalID string, in MetricInput) (Metric, error) {
	metric := Metric{GoalID: goalID, Name: strings.TrimSpace(in.Name), Target: in.Target, Current: in.Current, Unit: strings.TrimSpace(in.Unit)}
	if err := validateMetric(metric); err != nil {
		return Metric{}, err
	}
	if _, err := s.store.GetGoal(ctx, tenantID, goalID); err != nil {
		return Metric{}, storeErr("get goal", "goal", goalID, err)
	}
	id, err := s.store.CreateMetric(ctx, tenantID, metric)
	if err != nil {
		return Metric{}, storeErr("create metric", "metric", "", err)
	}
	out, err := s.store.GetMetric(ctx, tenantID, id)
	if err != nil {
		return Metric{}, storeErr("get metric", "metric", id, err)
	}
	return out, nil
}

func (s *Service) UpdateMetric(ctx context.Context, tenantID, metricID string, upd MetricUpdate) (Metric, error) {
	metric, err := s.store.GetMetric(ctx, tenantID, metricID)
	if err != nil {
		return Metric{}, storeErr("get metric", "metric", metricID, err)
	}
	if upd.Name != nil {
		metric.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Target != nil {
		metric.Target = *upd.Target
	}
	if upd.Current != nil {
		metric.Current = *upd.Current
	}
	if upd.Unit != nil {
		metric.Unit = strings.TrimSpace(*upd.Unit)
	}
	if err := validateMetric(metric); err != nil {
		return Metric{}, err
	}
	if err := s.store.UpdateMetric(ctx, tenantID, metric); err != nil {
		return Metric{}, storeErr("update metric", "metric", metricID, err)
	}
	out, err := s.store.GetMetric(ctx, tenantID, metricID)
	if err != nil {
		return Metric{}, storeErr("get metric", "metric", metricID, err)
	}
	return out, nil
}

func (s *Service) DeleteMetric(ctx context.Context, tenantID, metricID string) error {
	if err := s.store.DeleteMetric(ctx, tenantID, metricID); err != nil {
		return storeErr("delete metric", "metric", metricID, err)
	}
	return nil
}

func validateMetric(metric Metric) error {
	if metric.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if math.IsNaN(metric.Target) || math.IsInf(metric.Target, 0) || metric.Target < 0 {
		return &ValidationError{Field: "target", Reason: "must be a non-negative number"}
	}
	if math.IsNaN(metric.Current) || math.IsInf(metric.Current, 0) || metric.Current < 0 {
		return &ValidationError{Field: "current", Reason: "must be a non-negative number"}
	}
	return nil
}

package performance

import (
	"context"
	"fmt"
	"strings"

	"perftrack/internal/requestctx"
)

func (s *Service) CreateGoal(ctx context.Context, tenantID string, in GoalInput) (Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	if in.Title == "" {
		return Goal{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	if in.OwnerID == "" {
		return Goal{}, &ValidationError{Field: "ownerId", Reason: "is required"}
	}
	if !in.Category.Valid() {
		return Goal{}, &ValidationError{Field: "category", Reason: "unknown category " + string(in.Category)}
	}
	if !in.Priority.Valid() {
		return Goal{}, &ValidationError{Field: "priority", Reason: "unknown priority " + string(in.Priority)}
	}
	if in.Status == "" {
		in.Status = GoalStatusDraft
	}
	if !in.Status.Valid() {
		return Goal{}, &ValidationError{Field: "status", Reason: "unknown status " + string(in.Status)}
	}
	if in.TargetDate.IsZero() {
		return Goal{}, &ValidationError{Field: "targetDate", Reason: "is required"}
	}
	if in.ReviewID != "" {
		if _, err := s.store.GetReview(ctx, tenantID, in.ReviewID); err != nil {
			return Goal{}, storeErr("get review", "review", in.ReviewID, err)
		}
	}

	id, err := s.store.CreateGoal(ctx, tenantID, Goal{
		OwnerID:               in.OwnerID,
		AssignedBy:            in.AssignedBy,
		ReviewID:              in.ReviewID,
		Title:                 in.Title,
		Description:           in.Description,
		Category:              in.Category,
		Priority:              in.Priority,
		Status:                in.Status,
		Progress:              0,
		AutoCalculateProgress: in.AutoCalculateProgress,
		TargetDate:            dateOnly(in.TargetDate),
	})
	if err != nil {
		return Goal{}, storeErr("create goal", "goal", "", err)
	}
	return s.GetGoal(ctx, tenantID, id)
}

// GetGoal returns the goal with its milestones and metrics attached.
func (s *Service) GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, tenantID, goalID)
	if err != nil {
		return Goal{}, storeErr("get goal", "goal", goalID, err)
	}
	milestones, err := s.store.ListMilestones(ctx, tenantID, goalID)
	if err != nil {
		return Goal{}, storeErr("list milestones", "goal", goalID, err)
	}
	metrics, err := s.store.ListMetrics(ctx, tenantID, goalID)
	if err != nil {
		return Goal{}, storeErr("list metrics", "goal", goalID, err)
	}
	goal.Milestones = milestones
	goal.Metrics = metrics
	return decorate(goal), nil
}

func (s *Service) ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(filter.Status)}
	}
	goals, err := s.store.ListGoals(ctx, tenantID, filter)
	if err != nil {
		return nil, storeErr("list goals", "goal", "", err)
	}
	for i := range goals {
		goals[i] = decorate(goals[i])
	}
	return goals, nil
}

// UpdateGoal changes descriptive fields and status. Status is independent of
// progress; a disagreement shows up as ProgressStatusMismatch.
func (s *Service) UpdateGoal(ctx context.Context, tenantID, goalID string, upd GoalUpdate) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, tenantID, goalID)
	if err != nil {
		return Goal{}, storeErr("get goal", "goal", goalID, err)
	}
	if upd.Title != nil {
		goal.Title = strings.TrimSpace(*upd.Title)
		if goal.Title == "" {
			return Goal{}, &ValidationError{Field: "title", Reason: "is required"}
		}
	}
	if upd.Description != nil {
		goal.Description = *upd.Description
	}
	if upd.Category != nil {
		if !upd.Category.Valid() {
			return Goal{}, &ValidationError{Field: "category", Reason: "unknown category " + string(*upd.Category)}
		}
		goal.Category = *upd.Category
	}
	if upd.Priority != nil {
		if !upd.Priority.Valid() {
			return Goal{}, &ValidationError{Field: "priority", Reason: "unknown priority " + string(*upd.Priority)}
		}
		goal.Priority = *upd.Priority
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return Goal{}, &ValidationError{Field: "status", Reason: "unknown status " + string(*upd.Status)}
		}
		goal.Status = *upd.Status
	}
	if upd.TargetDate != nil {
		if upd.TargetDate.IsZero() {
			return Goal{}, &ValidationError{Field: "targetDate", Reason: "is required"}
		}
		goal.TargetDate = dateOnly(*upd.TargetDate)
	}
	if upd.AssignedBy != nil {
		goal.AssignedBy = *upd.AssignedBy
	}
	if err := s.store.UpdateGoal(ctx, tenantID, goal); err != nil {
		return Goal{}, storeErr("update goal", "goal", goalID, err)
	}
	return s.GetGoal(ctx, tenantID, goalID)
}

// ToggleMilestone sets a milestone's completion state. When the owning goal
// derives its progress from milestones, the milestone write, the re-read of
// the full milestone set and the progress write commit as one unit while the
// goal row is locked.
func (s *Service) ToggleMilestone(ctx context.Context, tenantID, milestoneID string, completed bool) (Milestone, error) {
	var out Milestone
	var goal Goal
	progress := -1

	err := s.inTx(ctx, "toggle milestone", func(q Queries) error {
		m, err := q.GetMilestone(ctx, tenantID, milestoneID)
		if err != nil {
			return storeErr("get milestone", "milestone", milestoneID, err)
		}
		goal, err = q.LockGoal(ctx, tenantID, m.GoalID)
		if err != nil {
			return storeErr("lock goal", "goal", m.GoalID, err)
		}
		if m.Completed != completed {
			m.Completed = completed
			if completed {
				today := s.today()
				m.CompletedDate = &today
			} else {
				m.CompletedDate = nil
			}
			if err := q.UpdateMilestone(ctx, tenantID, m); err != nil {
				return storeErr("update milestone", "milestone", m.ID, err)
			}
		}
		out = m

		if !goal.AutoCalculateProgress {
			return nil
		}
		progress, err = recompute(ctx, q, tenantID, goal, false)
		return err
	})
	if err != nil {
		s.recordFailure("toggle_milestone")
		return Milestone{}, err
	}
	if progress >= 0 {
		s.recordRecompute(TriggerToggle)
		s.notifyIfComplete(ctx, goal, progress)
	}
	return out, nil
}

// ToggleAutoCalculation switches milestone-derived progress on or off.
// Enabling resyncs progress right away when the goal has milestones; a goal
// without milestones keeps its current progress. Disabling never touches
// progress.
func (s *Service) ToggleAutoCalculation(ctx context.Context, tenantID, goalID string, enabled bool) (Goal, error) {
	var goal Goal
	progress := -1

	err := s.inTx(ctx, "toggle auto calculation", func(q Queries) error {
		var err error
		goal, err = q.LockGoal(ctx, tenantID, goalID)
		if err != nil {
			return storeErr("lock goal", "goal", goalID, err)
		}
		if goal.AutoCalculateProgress != enabled {
			if err := q.SetGoalAutoCalculate(ctx, tenantID, goalID, enabled); err != nil {
				return storeErr("set auto calculation", "goal", goalID, err)
			}
		}
		if !enabled {
			return nil
		}
		progress, err = recompute(ctx, q, tenantID, goal, true)
		return err
	})
	if err != nil {
		s.recordFailure("toggle_auto_calculation")
		return Goal{}, err
	}
	if progress >= 0 {
		s.recordRecompute(TriggerAutoCalcEnabled)
		s.notifyIfComplete(ctx, goal, progress)
	}
	return s.GetGoal(ctx, tenantID, goalID)
}

// UpdateGoalProgressManually overrides progress. It is accepted even while
// auto-calculation is on; the next milestone mutation replaces the value.
func (s *Service) UpdateGoalProgressManually(ctx context.Context, tenantID, goalID string, progress int) (Goal, error) {
	if !validProgress(progress) {
		return Goal{}, &ValidationError{Field: "progress", Reason: fmt.Sprintf("must be between %d and %d", MinProgress, MaxProgress)}
	}
	if err := s.store.UpdateGoalProgress(ctx, tenantID, goalID, progress); err != nil {
		return Goal{}, storeErr("update progress", "goal", goalID, err)
	}
	return s.GetGoal(ctx, tenantID, goalID)
}

// LinkGoalToReview points the goal at a review. Any number of goals may share
// a review.
func (s *Service) LinkGoalToReview(ctx context.Context, tenantID, goalID, reviewID string) (Goal, error) {
	if strings.TrimSpace(reviewID) == "" {
		return Goal{}, &ValidationError{Field: "reviewId", Reason: "is required"}
	}
	goal, err := s.store.GetGoal(ctx, tenantID, goalID)
	if err != nil {
		return Goal{}, storeErr("get goal", "goal", goalID, err)
	}
	review, err := s.store.GetReview(ctx, tenantID, reviewID)
	if err != nil {
		return Goal{}, storeErr("get review", "review", reviewID, err)
	}
	if err := s.store.SetGoalReview(ctx, tenantID, goalID, reviewID); err != nil {
		return Goal{}, storeErr("link review", "goal", goalID, err)
	}
	if goal.ReviewID != reviewID && s.Notify != nil {
		body := fmt.Sprintf("Goal %q was linked to your %s review.", goal.Title, review.Type)
		if err := s.Notify.Create(ctx, tenantID, goal.OwnerID, NotificationGoalLinked, "Goal linked to review", body); err != nil {
			requestctx.Logger(ctx).Warn("goal linked notification failed", "err", err)
		}
	}
	return s.GetGoal(ctx, tenantID, goalID)
}

func (s *Service) UnlinkGoalFromReview(ctx context.Context, tenantID, goalID string) (Goal, error) {
	if err := s.store.SetGoalReview(ctx, tenantID, goalID, ""); err != nil {
		return Goal{}, storeErr("unlink review", "goal", goalID, err)
	}
	return s.GetGoal(ctx, tenantID, goalID)
}

// ListGoalsForReview returns the goals explicitly linked to the review. With
// IncludeDateWindow it also returns the reviewee's goals that were created
// before the review is due and whose target date falls on or after the start
// of the review's period, marked with LinkedByWindow. A period that cannot be
// parsed starts on the review's creation date.
func (s *Service) ListGoalsForReview(ctx context.Context, tenantID, reviewID string, opts ListGoalsForReviewOptions) ([]Goal, error) {
	review, err := s.store.GetReview(ctx, tenantID, reviewID)
	if err != nil {
		return nil, storeErr("get review", "review", reviewID, err)
	}
	linked, err := s.store.ListGoals(ctx, tenantID, GoalFilter{ReviewID: reviewID})
	if err != nil {
		return nil, storeErr("list goals", "goal", "", err)
	}

	out := make([]Goal, 0, len(linked))
	seen := make(map[string]bool, len(linked))
	for _, goal := range linked {
		goal.LinkedBy = LinkedByReview
		seen[goal.ID] = true
		out = append(out, decorate(goal))
	}
	if !opts.IncludeDateWindow {
		return out, nil
	}

	dueEnd := dateOnly(review.DueDate).AddDate(0, 0, 1)
	windowed, err := s.store.ListGoalsInWindow(ctx, tenantID, review.UserID, dueEnd, periodStart(review))
	if err != nil {
		return nil, storeErr("list goals in window", "goal", "", err)
	}
	for _, goal := range windowed {
		if seen[goal.ID] {
			continue
		}
		goal.LinkedBy = LinkedByWindow
		out = append(out, decorate(goal))
	}
	return out, nil
}

// ResyncProgress recomputes a single auto-calculated goal from its
// milestones. It is the retry path after a failed recompute.
func (s *Service) ResyncProgress(ctx context.Context, tenantID, goalID string) (Goal, error) {
	var goal Goal
	progress := -1

	err := s.inTx(ctx, "resync progress", func(q Queries) error {
		var err error
		goal, err = q.LockGoal(ctx, tenantID, goalID)
		if err != nil {
			return storeErr("lock goal", "goal", goalID, err)
		}
		if !goal.AutoCalculateProgress {
			return &ValidationError{Field: "autoCalculateProgress", Reason: "auto-calculation is disabled for this goal"}
		}
		progress, err = recompute(ctx, q, tenantID, goal, true)
		return err
	})
	if err != nil {
		s.recordFailure("resync_progress")
		return Goal{}, err
	}
	if progress >= 0 {
		s.recordRecompute(TriggerResync)
		s.notifyIfComplete(ctx, goal, progress)
	}
	return s.GetGoal(ctx, tenantID, goalID)
}

// ResyncTenant recomputes every auto-calculated goal of the tenant. Goals
// that fail are reported and skipped.
func (s *Service) ResyncTenant(ctx context.Context, tenantID string) (ResyncResult, error) {
	ids, err := s.store.ListAutoCalculatedGoalIDs(ctx, tenantID)
	if err != nil {
		return ResyncResult{}, storeErr("list auto calculated goals", "goal", "", err)
	}

	var result ResyncResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.GoalsChecked++
		before, err := s.store.GetGoal(ctx, tenantID, id)
		if err != nil {
			result.Failed = append(result.Failed, id)
			requestctx.Logger(ctx).Warn("progress resync read failed", "goal_id", id, "err", err)
			continue
		}
		after, err := s.ResyncProgress(ctx, tenantID, id)
		if err != nil {
			result.Failed = append(result.Failed, id)
			requestctx.Logger(ctx).Warn("progress resync failed", "goal_id", id, "err", err)
			continue
		}
		if after.Progress != before.Progress {
			result.GoalsUpdated++
		}
	}
	return result, nil
}

// recompute derives the goal's progress from its full milestone set and
// writes it when it changed. With skipEmpty a goal without milestones is left
// alone and -1 is returned.
func recompute(ctx context.Context, q Queries, tenantID string, goal Goal, skipEmpty bool) (int, error) {
	milestones, err := q.ListMilestones(ctx, tenantID, goal.ID)
	if err != nil {
		return -1, storeErr("list milestones", "goal", goal.ID, err)
	}
	if skipEmpty && len(milestones) == 0 {
		return -1, nil
	}
	progress := CalculateProgress(milestones)
	if progress == goal.Progress {
		return progress, nil
	}
	if err := q.UpdateGoalProgress(ctx, tenantID, goal.ID, progress); err != nil {
		return -1, storeErr("update progress", "goal", goal.ID, err)
	}
	return progress, nil
}

// notifyIfComplete tells the owner when derived progress first reaches 100
// while the goal is not yet marked completed.
func (s *Service) notifyIfComplete(ctx context.Context, before Goal, progress int) {
	if s.Notify == nil || progress < MaxProgress || before.Progress >= MaxProgress || before.Status == GoalStatusCompleted {
		return
	}
	body := fmt.Sprintf("Every milestone of %q is done. Mark the goal completed when ready.", before.Title)
	if err := s.Notify.Create(ctx, before.TenantID, before.OwnerID, NotificationGoalProgressComplete, "Goal reached 100%", body); err != nil {
		requestctx.Logger(ctx).Warn("goal progress notification failed", "err", err)
	}
}

func (s *Service) inTx(ctx context.Context, op string, fn func(q Queries) error) error {
	if err := s.store.InTx(ctx, fn); err != nil {
		return storeErr(op, "", "", err)
	}
	return nil
}

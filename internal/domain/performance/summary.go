package performance

import (
	"context"
	"math"
)

// Summary aggregates goal and review figures for the tenant, narrowed to one
// user when ownerID is set.
func (s *Service) Summary(ctx context.Context, tenantID, ownerID string) (PerformanceSummary, error) {
	goals, err := s.store.ListGoals(ctx, tenantID, GoalFilter{OwnerID: ownerID})
	if err != nil {
		return PerformanceSummary{}, storeErr("list goals", "goal", "", err)
	}
	reviews, err := s.store.ListReviews(ctx, tenantID, ReviewFilter{UserID: ownerID})
	if err != nil {
		return PerformanceSummary{}, storeErr("list reviews", "review", "", err)
	}
	return buildPerformanceSummary(goals, reviews), nil
}

func buildPerformanceSummary(goals []Goal, reviews []Review) PerformanceSummary {
	summary := PerformanceSummary{
		GoalsTotal:    len(goals),
		GoalsByStatus: map[string]int{},
		ReviewsTotal:  len(reviews),
	}
	progressSum := 0
	for _, goal := range goals {
		summary.GoalsByStatus[string(goal.Status)]++
		if goal.Status == GoalStatusCompleted {
			summary.GoalsCompleted++
		}
		if ProgressStatusMismatch(goal.Status, goal.Progress) {
			summary.GoalsMismatched++
		}
		progressSum += goal.Progress
	}
	if len(goals) > 0 {
		summary.AverageProgress = math.Round(float64(progressSum)/float64(len(goals))*10) / 10
	}
	for _, review := range reviews {
		if review.Status == ReviewStatusComplete {
			summary.ReviewsCompleted++
		}
	}
	if len(reviews) > 0 {
		summary.ReviewCompletionRate = float64(summary.ReviewsCompleted) / float64(len(reviews))
	}
	return summary
}

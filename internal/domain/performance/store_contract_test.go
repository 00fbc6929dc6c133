package performance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract drives a real store through the service so that both
// backends are held to the same behavior.
func runStoreContract(t *testing.T, store StoreAPI, tenantID string) {
	t.Helper()
	ctx := context.Background()
	svc := NewService(store)
	svc.now = func() time.Time { return fixedNow }

	review, err := svc.CreateReview(ctx, tenantID, ReviewInput{
		UserID:    "user-1",
		ManagerID: "manager-1",
		Type:      ReviewTypeQuarterly,
		Period:    "2025-Q1",
		DueDate:   time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, ReviewStatusNotStarted, review.Status)
	assert.Nil(t, review.CompletedDate)

	goal, err := svc.CreateGoal(ctx, tenantID, GoalInput{
		OwnerID:    "user-1",
		Title:      "Reduce p99 latency",
		Category:   CategoryTechnical,
		Priority:   PriorityCritical,
		Status:     GoalStatusActive,
		TargetDate: time.Now().UTC().AddDate(0, 2, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, goal.ReviewID)
	assert.False(t, goal.AutoCalculateProgress)

	var ms []Milestone
	for i := 0; i < 3; i++ {
		m, err := svc.CreateMilestone(ctx, tenantID, goal.ID, MilestoneInput{
			Title:      "phase",
			TargetDate: time.Date(2025, 5, 1+i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.False(t, m.Completed)
		assert.Nil(t, m.CompletedDate)
		ms = append(ms, m)
	}

	toggled, err := svc.ToggleMilestone(ctx, tenantID, ms[0].ID, true)
	require.NoError(t, err)
	require.NotNil(t, toggled.CompletedDate)

	stored, err := store.GetMilestone(ctx, tenantID, ms[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.CompletedDate)
	assert.Equal(t, "2025-03-14", stored.CompletedDate.UTC().Format("2006-01-02"))

	updated, err := svc.ToggleAutoCalculation(ctx, tenantID, goal.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 33, updated.Progress)
	assert.Len(t, updated.Milestones, 3)

	_, err = svc.ToggleMilestone(ctx, tenantID, ms[1].ID, true)
	require.NoError(t, err)
	detail, err := svc.GetGoal(ctx, tenantID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, detail.Progress)

	_, err = svc.ToggleMilestone(ctx, tenantID, ms[1].ID, false)
	require.NoError(t, err)
	stored, err = store.GetMilestone(ctx, tenantID, ms[1].ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CompletedDate)

	_, err = svc.UpdateGoalProgressManually(ctx, tenantID, goal.ID, 101)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.LinkGoalToReview(ctx, tenantID, goal.ID, review.ID)
	require.NoError(t, err)
	linked, err := svc.ListGoalsForReview(ctx, tenantID, review.ID, ListGoalsForReviewOptions{})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, goal.ID, linked[0].ID)

	other, err := svc.CreateGoal(ctx, tenantID, GoalInput{
		OwnerID:    "user-1",
		Title:      "Mentor a new hire",
		Category:   CategoryLeadership,
		Priority:   PriorityMedium,
		TargetDate: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	windowed, err := svc.ListGoalsForReview(ctx, tenantID, review.ID, ListGoalsForReviewOptions{IncludeDateWindow: true})
	require.NoError(t, err)
	require.Len(t, windowed, 2)
	assert.Equal(t, LinkedByWindow, windowed[1].LinkedBy)
	assert.Equal(t, other.ID, windowed[1].ID)

	metric, err := svc.CreateMetric(ctx, tenantID, goal.ID, MetricInput{Name: "p99", Target: 250, Current: 410, Unit: "ms"})
	require.NoError(t, err)
	assert.Equal(t, 410.0, metric.Current)

	ids, err := store.ListAutoCalculatedGoalIDs(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{goal.ID}, ids)

	result, err := svc.ResyncTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.GoalsChecked)
	assert.Zero(t, result.GoalsUpdated)

	require.NoError(t, svc.DeleteMilestone(ctx, tenantID, ms[2].ID))
	detail, err = svc.GetGoal(ctx, tenantID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, detail.Progress)
	assert.Len(t, detail.Metrics, 1)

	_, err = svc.ToggleMilestone(ctx, tenantID, "00000000-0000-0000-0000-000000000000", true)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetGoal(ctx, tenantID, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UnlinkGoalFromReview(ctx, tenantID, goal.ID)
	require.NoError(t, err)
	linked, err = svc.ListGoalsForReview(ctx, tenantID, review.ID, ListGoalsForReviewOptions{})
	require.NoError(t, err)
	assert.Empty(t, linked)

	review, err = svc.MarkSelfComplete(ctx, tenantID, review.ID)
	require.NoError(t, err)
	review, err = svc.MarkManagerComplete(ctx, tenantID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, ReviewStatusComplete, review.Status)
	require.NotNil(t, review.CompletedDate)

	summary, err := svc.Summary(ctx, tenantID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.GoalsTotal)
	assert.Equal(t, 1.0, summary.ReviewCompletionRate)

	require.NoError(t, store.Ping(ctx))
}

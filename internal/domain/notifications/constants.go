package notifications

const (
	TypeGoalLinked           = "goal_linked"
	TypeGoalProgressComplete = "goal_progress_complete"
	TypeReviewAssigned       = "review_assigned"
	TypeReviewCompleted      = "review_completed"
)

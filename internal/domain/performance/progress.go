package performance

// CalculateProgress returns the share of completed milestones as a whole
// percentage, rounded half up. An empty set is 0.
func CalculateProgress(milestones []Milestone) int {
	total := len(milestones)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, m := range milestones {
		if m.Completed {
			completed++
		}
	}
	return (200*completed + total) / (2 * total)
}

// ProgressStatusMismatch reports a goal whose status and progress disagree:
// fully progressed but not completed, or completed short of 100.
func ProgressStatusMismatch(status GoalStatus, progress int) bool {
	if progress >= MaxProgress {
		return status != GoalStatusCompleted
	}
	return status == GoalStatusCompleted
}

func validProgress(progress int) bool {
	return progress >= MinProgress && progress <= MaxProgress
}

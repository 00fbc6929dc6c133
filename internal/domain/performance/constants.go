package performance

type GoalCategory string

const (
	CategoryPerformance GoalCategory = "performance"
	CategoryDevelopment GoalCategory = "development"
	CategoryLeadership  GoalCategory = "leadership"
	CategoryTechnical   GoalCategory = "technical"
	CategoryBusiness    GoalCategory = "business"
	CategoryPersonal    GoalCategory = "personal"
)

func (c GoalCategory) Valid() bool {
	switch c {
	case CategoryPerformance, CategoryDevelopment, CategoryLeadership, CategoryTechnical, CategoryBusiness, CategoryPersonal:
		return true
	}
	return false
}

type GoalPriority string

const (
	PriorityLow      GoalPriority = "low"
	PriorityMedium   GoalPriority = "medium"
	PriorityHigh     GoalPriority = "high"
	PriorityCritical GoalPriority = "critical"
)

func (p GoalPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type GoalStatus string

const (
	GoalStatusDraft     GoalStatus = "draft"
	GoalStatusActive    GoalStatus = "active"
	GoalStatusOnTrack   GoalStatus = "on-track"
	GoalStatusAtRisk    GoalStatus = "at-risk"
	GoalStatusBehind    GoalStatus = "behind"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusCancelled GoalStatus = "cancelled"
)

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusDraft, GoalStatusActive, GoalStatusOnTrack, GoalStatusAtRisk, GoalStatusBehind, GoalStatusCompleted, GoalStatusCancelled:
		return true
	}
	return false
}

type ReviewType string

const (
	ReviewTypeMonthly   ReviewType = "monthly"
	ReviewTypeQuarterly ReviewType = "quarterly"
	ReviewTypeAnnual    ReviewType = "annual"
)

func (t ReviewType) Valid() bool {
	switch t {
	case ReviewTypeMonthly, ReviewTypeQuarterly, ReviewTypeAnnual:
		return true
	}
	return false
}

type ReviewStatus string

const (
	ReviewStatusNotStarted ReviewStatus = "not_started"
	ReviewStatusInProgress ReviewStatus = "in_progress"
	ReviewStatusComplete   ReviewStatus = "complete"
	ReviewStatusOverdue    ReviewStatus = "overdue"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusNotStarted, ReviewStatusInProgress, ReviewStatusComplete, ReviewStatusOverdue:
		return true
	}
	return false
}

// Linkage kinds reported by ListGoalsForReview.
const (
	LinkedByReview = "review"
	LinkedByWindow = "window"
)

// Recompute triggers, used as metric labels.
const (
	TriggerToggle          = "toggle"
	TriggerMilestoneCreate = "milestone_create"
	TriggerMilestoneDelete = "milestone_delete"
	TriggerAutoCalcEnabled = "auto_calc_enabled"
	TriggerResync          = "resync"
)

const (
	MinProgress = 0
	MaxProgress = 100
)

// ParseGoalCategory returns a ValidationError for anything outside the closed set.
func ParseGoalCategory(raw string) (GoalCategory, error) {
	c := GoalCategory(raw)
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Reason: "unknown category " + raw}
	}
	return c, nil
}

func ParseGoalPriority(raw string) (GoalPriority, error) {
	p := GoalPriority(raw)
	if !p.Valid() {
		return "", &ValidationError{Field: "priority", Reason: "unknown priority " + raw}
	}
	return p, nil
}

func ParseGoalStatus(raw string) (GoalStatus, error) {
	s := GoalStatus(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Reason: "unknown status " + raw}
	}
	return s, nil
}

func ParseReviewType(raw string) (ReviewType, error) {
	t := ReviewType(raw)
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Reason: "unknown review type " + raw}
	}
	return t, nil
}

func ParseReviewStatus(raw string) (ReviewStatus, error) {
	s := ReviewStatus(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Reason: "unknown review status " + raw}
	}
	return s, nil
}

package performance

import "time"

type Goal struct {
	ID                     string       `json:"id"`
	TenantID               string       `json:"-"`
	OwnerID                string       `json:"ownerId"`
	AssignedBy             string       `json:"assignedBy,omitempty"`
	ReviewID               string       `json:"reviewId,omitempty"`
	Title                  string       `json:"title"`
	Description            string       `json:"description"`
	Category               GoalCategory `json:"category"`
	Priority               GoalPriority `json:"priority"`
	Status                 GoalStatus   `json:"status"`
	Progress               int          `json:"progress"`
	AutoCalculateProgress  bool         `json:"autoCalculateProgress"`
	TargetDate             time.Time    `json:"targetDate"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`
	ProgressStatusMismatch bool         `json:"progressStatusMismatch"`
	LinkedBy               string       `json:"linkedBy,omitempty"`
	Milestones             []Milestone  `json:"milestones,omitempty"`
	Metrics                []Metric     `json:"metrics,omitempty"`
}

type Milestone struct {
	ID            string     `json:"id"`
	GoalID        string     `json:"goalId"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	TargetDate    time.Time  `json:"targetDate"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Metric is a quantitative indicator shown next to a goal. It never feeds
// the goal's progress.
type Metric struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goalId"`
	Name      string    `json:"name"`
	Target    float64   `json:"target"`
	Current   float64   `json:"current"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Review struct {
	ID               string       `json:"id"`
	TenantID         string       `json:"-"`
	UserID           string       `json:"userId"`
	ManagerID        string       `json:"managerId"`
	TemplateID       string       `json:"templateId"`
	Type             ReviewType   `json:"type"`
	Period           string       `json:"period"`
	Status           ReviewStatus `json:"status"`
	SelfCompleted    bool         `json:"selfCompleted"`
	ManagerCompleted bool         `json:"managerCompleted"`
	Outcome          string       `json:"outcome,omitempty"`
	DueDate          time.Time    `json:"dueDate"`
	CompletedDate    *time.Time   `json:"completedDate,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

type GoalInput struct {
	OwnerID               string
	AssignedBy            string
	ReviewID              string
	Title                 string
	Description           string
	Category              GoalCategory
	Priority              GoalPriority
	Status                GoalStatus
	TargetDate            time.Time
	AutoCalculateProgress bool
}

// GoalUpdate carries the fields a caller wants to change; nil means keep.
// Progress, auto-calculation and review linkage have their own operations.
type GoalUpdate struct {
	Title       *string
	Description *string
	Category    *GoalCategory
	Priority    *GoalPriority
	Status      *GoalStatus
	TargetDate  *time.Time
	AssignedBy  *string
}

type GoalFilter struct {
	OwnerID  string
	ReviewID string
	Status   GoalStatus
}

type ListGoalsForReviewOptions struct {
	IncludeDateWindow bool
}

type MilestoneInput struct {
	Title       string
	Description string
	TargetDate  time.Time
}

type MilestoneUpdate struct {
	Title       *string
	Description *string
	TargetDate  *time.Time
}

type MetricInput struct {
	Name    string
	Target  float64
	Current float64
	Unit    string
}

type MetricUpdate struct {
	Name    *string
	Target  *float64
	Current *float64
	Unit    *string
}

type ReviewInput struct {
	UserID     string
	ManagerID  string
	TemplateID string
	Type       ReviewType
	Period     string
	DueDate    time.Time
}

type ReviewUpdate struct {
	Status  *ReviewStatus
	Outcome *string
	DueDate *time.Time
}

type ReviewFilter struct {
	UserID    string
	ManagerID string
	Status    ReviewStatus
}

type PerformanceSummary struct {
	GoalsTotal           int            `json:"goalsTotal"`
	GoalsCompleted       int            `json:"goalsCompleted"`
	GoalsMismatched      int            `json:"goalsMismatched"`
	AverageProgress      float64        `json:"averageProgress"`
	GoalsByStatus        map[string]int `json:"goalsByStatus"`
	ReviewsTotal         int            `json:"reviewsTotal"`
	ReviewsCompleted     int            `json:"reviewsCompleted"`
	ReviewCompletionRate float64        `json:"reviewCompletionRate"`
}

// ResyncResult reports what a tenant-wide recompute touched.
type ResyncResult struct {
	GoalsChecked int      `json:"goalsChecked"`
	GoalsUpdated int      `json:"goalsUpdated"`
	Failed       []string `json:"failed,omitempty"`
}

package performance

import (
	"context"
	"strconv"
	"time"
)

const goalColumns = `id, tenant_id, owner_id, COALESCE(assigned_by, ''), COALESCE(review_id, ''), title, description,
    category, priority, status, progress, auto_calculate_progress, target_date, created_at, updated_at`

func scanGoal(row rowScanner) (Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.TenantID, &g.OwnerID, &g.AssignedBy, &g.ReviewID, &g.Title, &g.Description,
		&g.Category, &g.Priority, &g.Status, &g.Progress, &g.AutoCalculateProgress, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (q pgQueries) CreateGoal(ctx context.Context, tenantID string, goal Goal) (string, error) {
	var id string
	err := q.db.QueryRow(ctx, `
    INSERT INTO goals (tenant_id, owner_id, assigned_by, review_id, title, description, category, priority, status, progress, auto_calculate_progress, target_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id
  `, tenantID, goal.OwnerID, nullIfEmpty(goal.AssignedBy), nullIfEmpty(goal.ReviewID), goal.Title, goal.Description,
		string(goal.Category), string(goal.Priority), string(goal.Status), goal.Progress, goal.AutoCalculateProgress, goal.TargetDate).Scan(&id)
	return id, err
}

func (q pgQueries) GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	g, err := scanGoal(q.db.QueryRow(ctx, "SELECT "+goalColumns+" FROM goals WHERE tenant_id = $1 AND id = $2", tenantID, goalID))
	return g, pgNotFound(err)
}

// LockGoal reads the goal and holds its row lock until the surrounding
// transaction ends. Outside a transaction it behaves like GetGoal.
func (q pgQueries) LockGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	g, err := scanGoal(q.db.QueryRow(ctx, "SELECT "+goalColumns+" FROM goals WHERE tenant_id = $1 AND id = $2 FOR UPDATE", tenantID, goalID))
	return g, pgNotFound(err)
}

func (q pgQueries) ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		query += " AND owner_id = $" + strconv.Itoa(len(args))
	}
	if filter.ReviewID != "" {
		args = append(args, filter.ReviewID)
		query += " AND review_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY created_at, id"
	return q.queryGoals(ctx, query, args...)
}

func (q pgQueries) ListGoalsInWindow(ctx context.Context, tenantID, ownerID string, createdBefore, targetFrom time.Time) ([]Goal, error) {
	return q.queryGoals(ctx, "SELECT "+goalColumns+`
    FROM goals
    WHERE tenant_id = $1 AND owner_id = $2 AND created_at < $3 AND target_date >= $4
    ORDER BY created_at, id
  `, tenantID, ownerID, createdBefore, targetFrom)
}

func (q pgQueries) queryGoals(ctx context.Context, query string, args ...any) ([]Goal, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (q pgQueries) ListAutoCalculatedGoalIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := q.db.Query(ctx, `
    SELECT id FROM goals
    WHERE tenant_id = $1 AND auto_calculate_progress = true AND status <> $2
    ORDER BY id
  `, tenantID, string(GoalStatusCancelled))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q pgQueries) UpdateGoal(ctx context.Context, tenantID string, goal Goal) error {
	return pgAffected(q.db.Exec(ctx, `
    UPDATE goals
    SET title = $1, description = $2, category = $3, priority = $4, status = $5, target_date = $6, assigned_by = $7, updated_at = now()
    WHERE tenant_id = $8 AND id = $9
  `, goal.Title, goal.Description, string(goal.Category), string(goal.Priority), string(goal.Status), goal.TargetDate,
		nullIfEmpty(goal.AssignedBy), tenantID, goal.ID))
}

func (q pgQueries) UpdateGoalProgress(ctx context.Context, tenantID, goalID string, progress int) error {
	return pgAffected(q.db.Exec(ctx, "UPDATE goals SET progress = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3", progress, tenantID, goalID))
}

func (q pgQueries) SetGoalAutoCalculate(ctx context.Context, tenantID, goalID string, enabled bool) error {
	return pgAffected(q.db.Exec(ctx, "UPDATE goals SET auto_calculate_progress = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3", enabled, tenantID, goalID))
}

func (q pgQueries) SetGoalReview(ctx context.Context, tenantID, goalID, reviewID string) error {
	return pgAffected(q.db.Exec(ctx, "UPDATE goals SET review_id = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3", nullIfEmpty(reviewID), tenantID, goalID))
}

const milestoneColumns = "id, goal_id, title, description, target_date, completed, completed_date, created_at"

func scanMilestone(row rowScanner) (Milestone, error) {
	var m Milestone
	err := row.Scan(&m.ID, &m.GoalID, &m.Title, &m.Description, &m.TargetDate, &m.Completed, &m.CompletedDate, &m.CreatedAt)
	return m, err
}

func (q pgQueries) CreateMilestone(ctx context.Context, tenantID string, milestone Milestone) (string, error) {
	var id string
	err := q.db.QueryRow(ctx, `
    INSERT INTO goal_milestones (tenant_id, goal_id, title, description, target_date, completed, completed_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, tenantID, milestone.GoalID, milestone.Title, milestone.Description, milestone.TargetDate, milestone.Completed, milestone.CompletedDate).Scan(&id)
	return id, err
}

func (q pgQueries) GetMilestone(ctx context.Context, tenantID, milestoneID string) (Milestone, error) {
	m, err := scanMilestone(q.db.QueryRow(ctx, "SELECT "+milestoneColumns+" FROM goal_milestones WHERE tenant_id = $1 AND id = $2", tenantID, milestoneID))
	return m, pgNotFound(err)
}

func (q pgQueries) ListMilestones(ctx context.Context, tenantID, goalID string) ([]Milestone, error) {
	rows, err := q.db.Query(ctx, "SELECT "+milestoneColumns+`
    FROM goal_milestones
    WHERE tenant_id = $1 AND goal_id = $2
    ORDER BY target_date, created_at, id
  `, tenantID, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func (q pgQueries) UpdateMilestone(ctx context.Context, tenantID string, milestone Milestone) error {
	return pgAffected(q.db.Exec(ctx, `
    UPDATE goal_milestones
    SET title = $1, description = $2, target_date = $3, completed = $4, completed_date = $5
    WHERE tenant_id = $6 AND id = $7
  `, milestone.Title, milestone.Description, milestone.TargetDate, milestone.Completed, milestone.CompletedDate, tenantID, milestone.ID))
}

func (q pgQueries) DeleteMilestone(ctx context.Context, tenantID, milestoneID string) error {
	return pgAffected(q.db.Exec(ctx, "DELETE FROM goal_milestones WHERE tenant_id = $1 AND id = $2", tenantID, milestoneID))
}

const metricColumns = "id, goal_id, name, target, current, unit, created_at, updated_at"

func scanMetric(row rowScanner) (Metric, error) {
	var m Metric
	err := row.Scan(&m.ID, &m.GoalID, &m.Name, &m.Target, &m.Current, &m.Unit, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (q pgQueries) CreateMetric(ctx context.Context, tenantID string, metric Metric) (string, error) {
	var id string
	err := q.db.QueryRow(ctx, `
    INSERT INTO goal_metrics (tenant_id, goal_id, name, target, current, unit)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, tenantID, metric.GoalID, metric.Name, metric.Target, metric.Current, metric.Unit).Scan(&id)
	return id, err
}

func (q pgQueries) GetMetric(ctx context.Context, tenantID, metricID string) (Metric, error) {
	m, err := scanMetric(q.db.QueryRow(ctx, "SELECT "+metricColumns+" FROM goal_metrics WHERE tenant_id = $1 AND id = $2", tenantID, metricID))
	return m, pgNotFound(err)
}

func (q pgQueries) ListMetrics(ctx context.Context, tenantID, goalID string) ([]Metric, error) {
	rows, err := q.db.Query(ctx, "SELECT "+metricColumns+`
    FROM goal_metrics
    WHERE tenant_id = $1 AND goal_id = $2
    ORDER BY created_at, id
  `, tenantID, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (q pgQueries) UpdateMetric(ctx context.Context, tenantID string, metric Metric) error {
	return pgAffected(q.db.Exec(ctx, `
    UPDATE goal_metrics
    SET name = $1, target = $2, current = $3, unit = $4, updated_at = now()
    WHERE tenant_id = $5 AND id = $6
  `, metric.Name, metric.Target, metric.Current, metric.Unit, tenantID, metric.ID))
}

func (q pgQueries) DeleteMetric(ctx context.Context, tenantID, metricID string) error {
	return pgAffected(q.db.Exec(ctx, "DELETE FROM goal_metrics WHERE tenant_id = $1 AND id = $2", tenantID, metricID))
}

const reviewColumns = `id, tenant_id, user_id, manager_id, template_id, type, period, status, self_completed, manager_completed,
    outcome, due_date, completed_date, created_at, updated_at`

func scanReview(row rowScanner) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.TenantID, &r.UserID, &r.ManagerID, &r.TemplateID, &r.Type, &r.Period, &r.Status, &r.SelfCompleted, &r.ManagerCompleted,
		&r.Outcome, &r.DueDate, &r.CompletedDate, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q pgQueries) CreateReview(ctx context.Context, tenantID string, review Review) (string, error) {
	var id string
	err := q.db.QueryRow(ctx, `
    INSERT INTO reviews (tenant_id, user_id, manager_id, template_id, type, period, status, due_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, tenantID, review.UserID, review.ManagerID, review.TemplateID, string(review.Type), review.Period, string(review.Status), review.DueDate).Scan(&id)
	return id, err
}

func (q pgQueries) GetReview(ctx context.Context, tenantID, reviewID string) (Review, error) {
	r, err := scanReview(q.db.QueryRow(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE tenant_id = $1 AND id = $2", tenantID, reviewID))
	return r, pgNotFound(err)
}

func (q pgQueries) ListReviews(ctx context.Context, tenantID string, filter ReviewFilter) ([]Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += " AND user_id = $" + strconv.Itoa(len(args))
	}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		query += " AND manager_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY due_date, id"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (q pgQueries) UpdateReview(ctx context.Context, tenantID string, review Review) error {
	return pgAffected(q.db.Exec(ctx, `
    UPDATE reviews
    SET status = $1, self_completed = $2, manager_completed = $3, outcome = $4, due_date = $5, completed_date = $6, updated_at = now()
    WHERE tenant_id = $7 AND id = $8
  `, string(review.Status), review.SelfCompleted, review.ManagerCompleted, review.Outcome, review.DueDate, review.CompletedDate, tenantID, review.ID))
}

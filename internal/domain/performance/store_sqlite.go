package performance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Fixed-width UTC layout so that stored timestamps sort and compare as text.
const (
	sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"
	sqliteDateLayout = "2006-01-02"
)

type sqlDBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore backs the performance domain with an embedded database file.
// The connection pool is expected to hold a single connection, which
// serializes writers the way the row lock does on Postgres.
type SQLiteStore struct {
	sqliteQueries
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{sqliteQueries: sqliteQueries{db: db}, DB: db}
}

func (s *SQLiteStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqliteQueries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

type sqliteQueries struct {
	db sqlDBTX
}

func sqliteNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRowNotFound
	}
	return err
}

func sqliteAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRowNotFound
	}
	return nil
}

func sqliteNow() string {
	return time.Now().UTC().Format(sqliteTimeLayout)
}

func sqliteStamp(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func sqliteDate(t time.Time) string {
	return t.UTC().Format(sqliteDateLayout)
}

func sqliteNullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return sqliteDate(*t)
}

func parseSQLiteTime(src any) (time.Time, bool, error) {
	var raw string
	switch v := src.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v.UTC(), true, nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return time.Time{}, false, fmt.Errorf("unsupported time value %T", src)
	}
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, sqliteDateLayout, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("cannot parse time %q", raw)
}

type timeScanner struct {
	dst *time.Time
}

func (s timeScanner) Scan(src any) error {
	t, _, err := parseSQLiteTime(src)
	if err != nil {
		return err
	}
	*s.dst = t
	return nil
}

type nullTimeScanner struct {
	dst **time.Time
}

func (s nullTimeScanner) Scan(src any) error {
	t, ok, err := parseSQLiteTime(src)
	if err != nil {
		return err
	}
	if !ok {
		*s.dst = nil
		return nil
	}
	*s.dst = &t
	return nil
}

func scanSQLiteGoal(row rowScanner) (Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.TenantID, &g.OwnerID, &g.AssignedBy, &g.ReviewID, &g.Title, &g.Description,
		&g.Category, &g.Priority, &g.Status, &g.Progress, &g.AutoCalculateProgress,
		timeScanner{&g.TargetDate}, timeScanner{&g.CreatedAt}, timeScanner{&g.UpdatedAt})
	return g, err
}

func (q sqliteQueries) CreateGoal(ctx context.Context, tenantID string, goal Goal) (string, error) {
	id := uuid.NewString()
	now := sqliteNow()
	_, err := q.db.ExecContext(ctx, `
    INSERT INTO goals (id, tenant_id, owner_id, assigned_by, review_id, title, description, category, priority, status, progress, auto_calculate_progress, target_date, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
  `, id, tenantID, goal.OwnerID, nullIfEmpty(goal.AssignedBy), nullIfEmpty(goal.ReviewID), goal.Title, goal.Description,
		string(goal.Category), string(goal.Priority), string(goal.Status), goal.Progress, goal.AutoCalculateProgress,
		sqliteDate(goal.TargetDate), now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (q sqliteQueries) GetGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	g, err := scanSQLiteGoal(q.db.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE tenant_id = ? AND id = ?", tenantID, goalID))
	return g, sqliteNotFound(err)
}

func (q sqliteQueries) LockGoal(ctx context.Context, tenantID, goalID string) (Goal, error) {
	return q.GetGoal(ctx, tenantID, goalID)
}

func (q sqliteQueries) ListGoals(ctx context.Context, tenantID string, filter GoalFilter) ([]Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals WHERE tenant_id = ?"
	args := []any{tenantID}
	if filter.OwnerID != "" {
		query += " AND owner_id = ?"
		args = append(args, filter.OwnerID)
	}
	if filter.ReviewID != "" {
		query += " AND review_id = ?"
		args = append(args, filter.ReviewID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at, id"
	return q.queryGoals(ctx, query, args...)
}

func (q sqliteQueries) ListGoalsInWindow(ctx context.Context, tenantID, ownerID string, createdBefore, targetFrom time.Time) ([]Goal, error) {
	return q.queryGoals(ctx, "SELECT "+goalColumns+`
    FROM goals
    WHERE tenant_id = ? AND owner_id = ? AND created_at < ? AND target_date >= ?
    ORDER BY created_at, id
  `, tenantID, ownerID, sqliteStamp(createdBefore), sqliteDate(targetFrom))
}

func (q sqliteQueries) queryGoals(ctx context.Context, query string, args ...any) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanSQLiteGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (q sqliteQueries) ListAutoCalculatedGoalIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
    SELECT id FROM goals
    WHERE tenant_id = ? AND auto_calculate_progress = 1 AND status <> ?
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

func (q sqliteQueries) UpdateGoal(ctx context.Context, tenantID string, goal Goal) error {
	return sqliteAffected(q.db.ExecContext(ctx, `
    UPDATE goals
    SET title = ?, description = ?, category = ?, priority = ?, status = ?, target_date = ?, assigned_by = ?, updated_at = ?
    WHERE tenant_id = ? AND id = ?
  `, goal.Title, goal.Description, string(goal.Category), string(goal.Priority), string(goal.Status), sqliteDate(goal.TargetDate),
		nullIfEmpty(goal.AssignedBy), sqliteNow(), tenantID, goal.ID))
}

func (q sqliteQueries) UpdateGoalProgress(ctx context.Context, tenantID, goalID string, progress int) error {
	return sqliteAffected(q.db.ExecContext(ctx, "UPDATE goals SET progress = ?, updated_at = ? WHERE tenant_id = ? AND id = ?", progress, sqliteNow(), tenantID, goalID))
}

func (q sqliteQueries) SetGoalAutoCalculate(ctx context.Context, tenantID, goalID string, enabled bool) error {
	return sqliteAffected(q.db.ExecContext(ctx, "UPDATE goals SET auto_calculate_progress = ?, updated_at = ? WHERE tenant_id = ? AND id = ?", enabled, sqliteNow(), tenantID, goalID))
}

func (q sqliteQueries) SetGoalReview(ctx context.Context, tenantID, goalID, reviewID string) error {
	return sqliteAffected(q.db.ExecContext(ctx, "UPDATE goals SET review_id = ?, updated_at = ? WHERE tenant_id = ? AND id = ?", nullIfEmpty(reviewID), sqliteNow(), tenantID, goalID))
}

func scanSQLiteMilestone(row rowScanner) (Milestone, error) {
	var m Milestone
	err := row.Scan(&m.ID, &m.GoalID, &m.Title, &m.Description, timeScanner{&m.TargetDate}, &m.Completed,
		nullTimeScanner{&m.CompletedDate}, timeScanner{&m.CreatedAt})
	return m, err
}

func (q sqliteQueries) CreateMilestone(ctx context.Context, tenantID string, milestone Milestone) (string, error) {
	id := uuid.NewString()
	_, err := q.db.ExecContext(ctx, `
    INSERT INTO goal_milestones (id, tenant_id, goal_id, title, description, target_date, completed, completed_date, created_at)
    VALUES (?,?,?,?,?,?,?,?,?)
  `, id, tenantID, milestone.GoalID, milestone.Title, milestone.Description, sqliteDate(milestone.TargetDate),
		milestone.Completed, sqliteNullDate(milestone.CompletedDate), sqliteNow())
	if err != nil {
		return "", err
	}
	return id, nil
}

func (q sqliteQueries) GetMilestone(ctx context.Context, tenantID, milestoneID string) (Milestone, error) {
	m, err := scanSQLiteMilestone(q.db.QueryRowContext(ctx, "SELECT "+milestoneColumns+" FROM goal_milestones WHERE tenant_id = ? AND id = ?", tenantID, milestoneID))
	return m, sqliteNotFound(err)
}

func (q sqliteQueries) ListMilestones(ctx context.Context, tenantID, goalID string) ([]Milestone, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+milestoneColumns+`
    FROM goal_milestones
    WHERE tenant_id = ? AND goal_id = ?
    ORDER BY target_date, created_at, id
  `, tenantID, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []Milestone
	for rows.Next() {
		m, err := scanSQLiteMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func (q sqliteQueries) UpdateMilestone(ctx context.Context, tenantID string, milestone Milestone) error {
	return sqliteAffected(q.db.ExecContext(ctx, `
    UPDATE goal_milestones
    SET title = ?, description = ?, target_date = ?, completed = ?, completed_date = ?
    WHERE tenant_id = ? AND id = ?
  `, milestone.Title, milestone.Description, sqliteDate(milestone.TargetDate), milestone.Completed,
		sqliteNullDate(milestone.CompletedDate), tenantID, milestone.ID))
}

func (q sqliteQueries) DeleteMilestone(ctx context.Context, tenantID, milestoneID string) error {
	return sqliteAffected(q.db.ExecContext(ctx, "DELETE FROM goal_milestones WHERE tenant_id = ? AND id = ?", tenantID, milestoneID))
}

func scanSQLiteMetric(row rowScanner) (Metric, error) {
	var m Metric
	err := row.Scan(&m.ID, &m.GoalID, &m.Name, &m.Target, &m.Current, &m.Unit, timeScanner{&m.CreatedAt}, timeScanner{&m.UpdatedAt})
	return m, err
}

func (q sqliteQueries) CreateMetric(ctx context.Context, tenantID string, metric Metric) (string, error) {
	id := uuid.NewString()
	now := sqliteNow()
	_, err := q.db.ExecContext(ctx, `
    INSERT INTO goal_metrics (id, tenant_id, goal_id, name, target, current, unit, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?)
  `, id, tenantID, metric.GoalID, metric.Name, metric.Target, metric.Current, metric.Unit, now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (q sqliteQueries) GetMetric(ctx context.Context, tenantID, metricID string) (Metric, error) {
	m, err := scanSQLiteMetric(q.db.QueryRowContext(ctx, "SELECT "+metricColumns+" FROM goal_metrics WHERE tenant_id = ? AND id = ?", tenantID, metricID))
	return m, sqliteNotFound(err)
}

func (q sqliteQueries) ListMetrics(ctx context.Context, tenantID, goalID string) ([]Metric, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+metricColumns+`
    FROM goal_metrics
    WHERE tenant_id = ? AND goal_id = ?
    ORDER BY created_at, id
  `, tenantID, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		m, err := scanSQLiteMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (q sqliteQueries) UpdateMetric(ctx context.Context, tenantID string, metric Metric) error {
	return sqliteAffected(q.db.ExecContext(ctx, `
    UPDATE goal_metrics
    SET name = ?, target = ?, current = ?, unit = ?, updated_at = ?
    WHERE tenant_id = ? AND id = ?
  `, metric.Name, metric.Target, metric.Current, metric.Unit, sqliteNow(), tenantID, metric.ID))
}

func (q sqliteQueries) DeleteMetric(ctx context.Context, tenantID, metricID string) error {
	return sqliteAffected(q.db.ExecContext(ctx, "DELETE FROM goal_metrics WHERE tenant_id = ? AND id = ?", tenantID, metricID))
}

func scanSQLiteReview(row rowScanner) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.TenantID, &r.UserID, &r.ManagerID, &r.TemplateID, &r.Type, &r.Period, &r.Status, &r.SelfCompleted, &r.ManagerCompleted,
		&r.Outcome, timeScanner{&r.DueDate}, nullTimeScanner{&r.CompletedDate}, timeScanner{&r.CreatedAt}, timeScanner{&r.UpdatedAt})
	return r, err
}

func (q sqliteQueries) CreateReview(ctx context.Context, tenantID string, review Review) (string, error) {
	id := uuid.NewString()
	now := sqliteNow()
	_, err := q.db.ExecContext(ctx, `
    INSERT INTO reviews (id, tenant_id, user_id, manager_id, template_id, type, period, status, due_date, created_at, updated_at)
    VALUES (?,?,?,?,?,?,?,?,?,?,?)
  `, id, tenantID, review.UserID, review.ManagerID, review.TemplateID, string(review.Type), review.Period, string(review.Status),
		sqliteDate(review.DueDate), now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (q sqliteQueries) GetReview(ctx context.Context, tenantID, reviewID string) (Review, error) {
	r, err := scanSQLiteReview(q.db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE tenant_id = ? AND id = ?", tenantID, reviewID))
	return r, sqliteNotFound(err)
}

func (q sqliteQueries) ListReviews(ctx context.Context, tenantID string, filter ReviewFilter) ([]Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews WHERE tenant_id = ?"
	args := []any{tenantID}
	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.ManagerID != "" {
		query += " AND manager_id = ?"
		args = append(args, filter.ManagerID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY due_date, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanSQLiteReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (q sqliteQueries) UpdateReview(ctx context.Context, tenantID string, review Review) error {
	return sqliteAffected(q.db.ExecContext(ctx, `
    UPDATE reviews
    SET status = ?, self_completed = ?, manager_completed = ?, outcome = ?, due_date = ?, completed_date = ?, updated_at = ?
    WHERE tenant_id = ? AND id = ?
  `, string(review.Status), review.SelfCompleted, review.ManagerCompleted, review.Outcome, sqliteDate(review.DueDate),
		sqliteNullDate(review.CompletedDate), sqliteNow(), tenantID, review.ID))
}

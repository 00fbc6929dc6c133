package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"perftrack/internal/domain/performance"
)

var ErrJobHistoryUnavailable = errors.New("job history requires the postgres backend")

// GoalSource is the slice of the performance service a review report needs.
type GoalSource interface {
	GetReview(ctx context.Context, tenantID, reviewID string) (performance.Review, error)
	ListGoalsForReview(ctx context.Context, tenantID, reviewID string, opts performance.ListGoalsForReviewOptions) ([]performance.Goal, error)
	ListMilestones(ctx context.Context, tenantID, goalID string) ([]performance.Milestone, error)
}

type Service struct {
	Goals GoalSource
	Store *Store
	now   func() time.Time
}

// NewService builds the report service. store may be nil, in which case job
// history is unavailable.
func NewService(goals GoalSource, store *Store) *Service {
	return &Service{Goals: goals, Store: store, now: time.Now}
}

func (s *Service) JobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	if s.Store == nil {
		return nil, 0, ErrJobHistoryUnavailable
	}
	total, err := s.Store.CountJobRuns(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.Store.ListJobRuns(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// JobRun returns a single run. A missing run is reported as pgx.ErrNoRows.
func (s *Service) JobRun(ctx context.Context, tenantID, runID string) (JobRun, error) {
	if s.Store == nil {
		return JobRun{}, ErrJobHistoryUnavailable
	}
	return s.Store.JobRunByID(ctx, tenantID, runID)
}

// WriteReviewReport renders the review and every goal attached to it,
// including window matches when includeWindow is set, as a PDF.
func (s *Service) WriteReviewReport(ctx context.Context, w io.Writer, tenantID, reviewID string, includeWindow bool) error {
	review, err := s.Goals.GetReview(ctx, tenantID, reviewID)
	if err != nil {
		return err
	}
	goals, err := s.Goals.ListGoalsForReview(ctx, tenantID, reviewID, performance.ListGoalsForReviewOptions{IncludeDateWindow: includeWindow})
	if err != nil {
		return err
	}
	for i := range goals {
		milestones, err := s.Goals.ListMilestones(ctx, tenantID, goals[i].ID)
		if err != nil {
			return err
		}
		goals[i].Milestones = milestones
	}
	return renderReviewReport(w, review, goals, s.now().UTC())
}

func renderReviewReport(w io.Writer, review performance.Review, goals []performance.Goal, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Review goal report", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Review goal report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Review: %s (%s %s)", review.ID, review.Type, review.Period))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Reviewee: %s  Manager: %s", review.UserID, review.ManagerID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s  Due: %s", review.Status, review.DueDate.Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Generated: "+generatedAt.Format(time.RFC3339))
	pdf.Ln(10)

	if len(goals) == 0 {
		pdf.Cell(0, 7, "No goals are linked to this review.")
		pdf.Ln(7)
	}

	for _, goal := range goals {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, goal.Title, "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		line := fmt.Sprintf("%s / %s / %s  progress %d%%  target %s", goal.Category, goal.Priority, goal.Status, goal.Progress, goal.TargetDate.Format("2006-01-02"))
		if goal.LinkedBy == performance.LinkedByWindow {
			line += "  (date window)"
		}
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
		if goal.ProgressStatusMismatch {
			pdf.Cell(0, 6, "Progress and status disagree.")
			pdf.Ln(6)
		}
		for _, m := range goal.Milestones {
			mark := "[ ]"
			if m.Completed {
				mark = "[x]"
			}
			pdf.Cell(0, 6, fmt.Sprintf("    %s %s (due %s)", mark, m.Title, m.TargetDate.Format("2006-01-02")))
			pdf.Ln(6)
		}
		pdf.Ln(3)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render review report: %w", err)
	}
	return nil
}

package performance

import (
	"context"
	"strconv"
	"strings"
	"time"
)

func (s *Service) CreateReview(ctx context.Context, tenantID string, in ReviewInput) (Review, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.ManagerID = strings.TrimSpace(in.ManagerID)
	if in.UserID == "" {
		return Review{}, &ValidationError{Field: "userId", Reason: "is required"}
	}
	if in.ManagerID == "" {
		return Review{}, &ValidationError{Field: "managerId", Reason: "is required"}
	}
	if !in.Type.Valid() {
		return Review{}, &ValidationError{Field: "type", Reason: "unknown review type " + string(in.Type)}
	}
	if in.DueDate.IsZero() {
		return Review{}, &ValidationError{Field: "dueDate", Reason: "is required"}
	}

	id, err := s.store.CreateReview(ctx, tenantID, Review{
		UserID:     in.UserID,
		ManagerID:  in.ManagerID,
		TemplateID: strings.TrimSpace(in.TemplateID),
		Type:       in.Type,
		Period:     strings.TrimSpace(in.Period),
		Status:     ReviewStatusNotStarted,
		DueDate:    dateOnly(in.DueDate),
	})
	if err != nil {
		return Review{}, storeErr("create review", "review", "", err)
	}
	return s.GetReview(ctx, tenantID, id)
}

func (s *Service) GetReview(ctx context.Context, tenantID, reviewID string) (Review, error) {
	review, err := s.store.GetReview(ctx, tenantID, reviewID)
	if err != nil {
		return Review{}, storeErr("get review", "review", reviewID, err)
	}
	return review, nil
}

func (s *Service) ListReviews(ctx context.Context, tenantID string, filter ReviewFilter) ([]Review, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown review status " + string(filter.Status)}
	}
	reviews, err := s.store.ListReviews(ctx, tenantID, filter)
	if err != nil {
		return nil, storeErr("list reviews", "review", "", err)
	}
	return reviews, nil
}

func (s *Service) UpdateReview(ctx context.Context, tenantID, reviewID string, upd ReviewUpdate) (Review, error) {
	review, err := s.store.GetReview(ctx, tenantID, reviewID)
	if err != nil {
		return Review{}, storeErr("get review", "review", reviewID, err)
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return Review{}, &ValidationError{Field: "status", Reason: "unknown review status " + string(*upd.Status)}
		}
		s.setReviewStatus(&review, *upd.Status)
	}
	if upd.Outcome != nil {
		review.Outcome = strings.TrimSpace(*upd.Outcome)
	}
	if upd.DueDate != nil {
		if upd.DueDate.IsZero() {
			return Review{}, &ValidationError{Field: "dueDate", Reason: "is required"}
		}
		review.DueDate = dateOnly(*upd.DueDate)
	}
	if err := s.store.UpdateReview(ctx, tenantID, review); err != nil {
		return Review{}, storeErr("update review", "review", reviewID, err)
	}
	return s.GetReview(ctx, tenantID, reviewID)
}

// MarkSelfComplete records the reviewee's part as done.
func (s *Service) MarkSelfComplete(ctx context.Context, tenantID, reviewID string) (Review, error) {
	return s.markComplete(ctx, tenantID, reviewID, true)
}

// MarkManagerComplete records the manager's part as done.
func (s *Service) MarkManagerComplete(ctx context.Context, tenantID, reviewID string) (Review, error) {
	return s.markComplete(ctx, tenantID, reviewID, false)
}

func (s *Service) markComplete(ctx context.Context, tenantID, reviewID string, self bool) (Review, error) {
	review, err := s.store.GetReview(ctx, tenantID, reviewID)
	if err != nil {
		return Review{}, storeErr("get review", "review", reviewID, err)
	}
	if self {
		review.SelfCompleted = true
	} else {
		review.ManagerCompleted = true
	}
	if review.SelfCompleted && review.ManagerCompleted {
		s.setReviewStatus(&review, ReviewStatusComplete)
	} else {
		s.setReviewStatus(&review, ReviewStatusInProgress)
	}
	if err := s.store.UpdateReview(ctx, tenantID, review); err != nil {
		return Review{}, storeErr("update review", "review", reviewID, err)
	}
	return s.GetReview(ctx, tenantID, reviewID)
}

// setReviewStatus keeps completedDate in step with the complete status.
func (s *Service) setReviewStatus(review *Review, status ReviewStatus) {
	review.Status = status
	if status != ReviewStatusComplete {
		review.CompletedDate = nil
		return
	}
	if review.CompletedDate == nil {
		today := s.today()
		review.CompletedDate = &today
	}
}

// periodStart returns the first day covered by the review's period. It accepts
// "2025-03-01", "2025-03", "2025-Q1", "2025-H1" and "2025"; anything else
// falls back to the day the review was created.
func periodStart(review Review) time.Time {
	period := strings.ToUpper(strings.TrimSpace(review.Period))
	if t, err := time.Parse("2006-01-02", period); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01", period); err == nil {
		return t
	}
	if len(period) == 4 {
		if t, err := time.Parse("2006", period); err == nil {
			return t
		}
	}
	if len(period) == 7 && period[4] == '-' {
		year, err := strconv.Atoi(period[:4])
		n := period[6] - '0'
		if err == nil {
			switch {
			case period[5] == 'Q' && n >= 1 && n <= 4:
				return time.Date(year, time.Month(3*int(n)-2), 1, 0, 0, 0, 0, time.UTC)
			case period[5] == 'H' && n >= 1 && n <= 2:
				return time.Date(year, time.Month(6*int(n)-5), 1, 0, 0, 0, 0, time.UTC)
			}
		}
	}
	return dateOnly(review.CreatedAt)
}

// Package notifications sends grade alerts and keeps a per-user history of them.
package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gradesync/internal/courses"
	"gradesync/internal/grades"
	"gradesync/internal/shared/metrics"
	"gradesync/internal/shared/telemetry"
	"gradesync/internal/users"
)

// RecipientLookup resolves the default alert address of a user.
type RecipientLookup interface {
	RecipientFor(ctx context.Context, userID string) (string, error)
}

// Service sends grade alerts through every configured sender.
type Service struct {
	Repo       Repo
	Courses    *courses.Service
	Recipients RecipientLookup
	Senders    []Sender
	// Threshold triggers an auto-check alert independent of the course target.
	Threshold float64
	// AlertEmail, when set, receives alerts instead of the user's address.
	AlertEmail string
}

// AlertOutcome is the result of one explicit grade alert.
type AlertOutcome struct {
	SentVia      []string
	Result       grades.CourseGradeResult
	Notification Notification
}

// CheckedAlert describes an alert raised by AutoCheck.
type CheckedAlert struct {
	CourseID   string
	CourseName string
	Grade      float64
	Target     float64
	SentVia    []string
}

// AutoCheckResult summarizes an AutoCheck run.
type AutoCheckResult struct {
	Checked int
	Alerts  []CheckedAlert
}

func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (Notification, error) {
	return s.Repo.MarkRead(ctx, userID, notificationID)
}

// SendGradeAlert sends the current grade of a course. An explicit email overrides the default recipient.
// An unparsable override is users.ErrInvalidEmail and nothing is sent.
func (s *Service) SendGradeAlert(ctx context.Context, userID, courseID, email, requestID string) (AlertOutcome, error) {
	email, err := users.NormalizeEmail(email)
	if err != nil {
		return AlertOutcome{}, err
	}
	course, result, err := s.Courses.Calculate(ctx, userID, courseID)
	if err != nil {
		return AlertOutcome{}, err
	}
	if result.HasError() {
		return AlertOutcome{}, &courses.WeightsError{Message: result.Error}
	}

	recipient := email
	if recipient == "" {
		if recipient, err = s.defaultRecipient(ctx, userID); err != nil {
			return AlertOutcome{}, err
		}
	}

	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  course.ID,
		Type:      TypeGradeAlert,
		Subject:   "Grade Update for " + course.CourseName,
		CreatedAt: time.Now().UTC(),
		Message:   fmt.Sprintf("Current grade: %s%% (%s)", formatOptional(result.FinalGrade), letterOrNA(result.LetterGrade)),
	}
	sentVia := s.deliver(ctx, n, recipient, requestID)
	if len(sentVia) == 0 {
		metrics.IncAlertFailed()
		return AlertOutcome{}, ErrDeliveryFailed
	}
	n.SentVia = sentVia
	if err := s.Repo.Create(ctx, n); err != nil {
		return AlertOutcome{}, fmt.Errorf("record notification: %w", err)
	}
	metrics.IncAlertSent()
	return AlertOutcome{SentVia: sentVia, Result: result, Notification: n}, nil
}

// AutoCheck alerts on every course whose projected grade is below the threshold or its target.
// Courses with invalid weights or no graded work are skipped.
func (s *Service) AutoCheck(ctx context.Context, userID, requestID string) (AutoCheckResult, error) {
	list, err := s.Courses.ListCourses(ctx, userID)
	if err != nil {
		return AutoCheckResult{}, err
	}
	recipient, err := s.defaultRecipient(ctx, userID)
	if err != nil {
		return AutoCheckResult{}, err
	}

	out := AutoCheckResult{Checked: len(list), Alerts: []CheckedAlert{}}
	for _, c := range list {
		course, result, err := s.Courses.Calculate(ctx, userID, c.ID)
		if err != nil {
			return AutoCheckResult{}, err
		}
		if result.HasError() || result.ProjectedFinalGrade == nil {
			continue
		}
		projected := *result.ProjectedFinalGrade
		if projected >= s.Threshold && projected >= course.TargetGrade {
			continue
		}

		n := Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			CourseID:  course.ID,
			Type:      TypeGradeAlert,
			Subject:   "Grade Alert: " + course.CourseName,
			CreatedAt: time.Now().UTC(),
			Message:   fmt.Sprintf("Grade %s%% is below target %s%%", formatFloat(projected), formatFloat(course.TargetGrade)),
		}
		sentVia := s.deliver(ctx, n, recipient, requestID)
		if len(sentVia) == 0 {
			metrics.IncAlertFailed()
			continue
		}
		n.SentVia = sentVia
		if err := s.Repo.Create(ctx, n); err != nil {
			return AutoCheckResult{}, fmt.Errorf("record notification: %w", err)
		}
		metrics.IncAlertSent()
		out.Alerts = append(out.Alerts, CheckedAlert{
			CourseID:   course.ID,
			CourseName: course.CourseName,
			Grade:      projected,
			Target:     course.TargetGrade,
			SentVia:    sentVia,
		})
	}
	return out, nil
}

func (s *Service) deliver(ctx context.Context, n Notification, recipient, requestID string) []string {
	alert := Alert{
		NotificationID: n.ID,
		UserID:         n.UserID,
		CourseID:       n.CourseID,
		Recipient:      recipient,
		Subject:        n.Subject,
		Body:           n.Message,
		RequestID:      requestID,
	}
	sentVia := []string{}
	for _, sender := range s.Senders {
		if err := sender.Send(ctx, alert); err != nil {
			telemetry.Error("notification.send_failed", map[string]any{
				"sender":          sender.Name(),
				"notification_id": n.ID,
				"course_id":       n.CourseID,
				"request_id":      requestID,
				"error":           err.Error(),
			})
			continue
		}
		sentVia = append(sentVia, sender.Name())
	}
	return sentVia
}

func (s *Service) defaultRecipient(ctx context.Context, userID string) (string, error) {
	if s.AlertEmail != "" {
		return s.AlertEmail, nil
	}
	if s.Recipients == nil {
		return "", nil
	}
	return s.Recipients.RecipientFor(ctx, userID)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return formatFloat(*v)
}

func letterOrNA(v *string) string {
	if v == nil {
		return "N/A"
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package notifications

import (
	"errors"
	"time"
)

const TypeGradeAlert = "grade_alert"

var (
	ErrNotFound = errors.New("notification not found")
	// ErrDeliveryFailed means no sender accepted the alert.
	ErrDeliveryFailed = errors.New("failed to send notification via any service")
)

// Notification records an alert that was delivered to the user.
type Notification struct {
	ID        string
	UserID    string
	CourseID  string
	Type      string
	Subject   string
	Message   string
	SentVia   []string
	IsRead    bool
	CreatedAt time.Time
}

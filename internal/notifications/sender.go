package notifications

import (
	"context"
	"errors"
	"time"

	"gradesync/internal/queue"
	"gradesync/internal/shared/telemetry"
)

// Alert is a grade alert ready for delivery.
type Alert struct {
	NotificationID string
	UserID         string
	CourseID       string
	Recipient      string
	Subject        string
	Body           string
	RequestID      string
}

// Sender delivers alerts over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// QueueSender hands alerts to the mail worker queue.
type QueueSender struct {
	Client queue.Client
	Now    func() time.Time
}

func NewQueueSender(client queue.Client) *QueueSender {
	return &QueueSender{Client: client, Now: time.Now}
}

func (s *QueueSender) Name() string { return "email" }

func (s *QueueSender) Send(ctx context.Context, alert Alert) error {
	if alert.Recipient == "" {
		return errors.New("no recipient email")
	}
	return s.Client.Send(ctx, queue.Message{
		NotificationID: alert.NotificationID,
		UserID:         alert.UserID,
		CourseID:       alert.CourseID,
		Recipient:      alert.Recipient,
		Subject:        alert.Subject,
		Body:           alert.Body,
		RequestID:      alert.RequestID,
		EnqueuedAt:     s.Now().UTC().Format(time.RFC3339),
		Version:        queue.MessageVersion,
	})
}

// LogSender writes alerts to the structured log. Used when no queue is configured.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	telemetry.Info("notification.alert", map[string]any{
		"notification_id": alert.NotificationID,
		"user_id":         alert.UserID,
		"course_id":       alert.CourseID,
		"recipient":       alert.Recipient,
		"subject":         alert.Subject,
		"body":            alert.Body,
		"request_id":      alert.RequestID,
	})
	return nil
}

package notifications

import "context"

// Repo persists notifications. Lookups are scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, n Notification) error
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (Notification, error)
}

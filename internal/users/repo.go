package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// Repo persists users keyed by their auth subject.
type Repo interface {
	// Upsert stores the OAuth profile; it never clears AlertEmail.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	SetAlertEmail(ctx context.Context, userID, email string) error
}

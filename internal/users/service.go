package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is returned for an unparsable alert address.
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail trims and parses an address, returning the bare address without a display name.
// An empty input stays empty; anything unparsable is ErrInvalidEmail.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", ErrInvalidEmail
	}
	return addr.Address, nil
}

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the identity returned by the OAuth provider.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// SetAlertEmail changes the alert recipient. An empty email restores the login address.
func (s *Service) SetAlertEmail(ctx context.Context, userID, email string) (User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	if err := s.Repo.SetAlertEmail(ctx, userID, email); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, userID)
}

// RecipientFor returns the alert address of a user, or "" for guests and unknown users.
func (s *Service) RecipientFor(ctx context.Context, userID string) (string, error) {
	if strings.HasPrefix(userID, "guest:") {
		return "", nil
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Recipient(), nil
}

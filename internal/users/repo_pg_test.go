package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoUpsertNullsEmptyProfileFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("google:1", "ada@example.com", "Ada Lovelace", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), User{ID: "google:1", Email: "ada@example.com", FullName: "Ada Lovelace"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "full_name", "given_name", "family_name", "picture_url", "alert_email", "created_at", "updated_at"}
	mock.ExpectQuery("FROM users").
		WithArgs("google:1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("google:1", "ada@example.com", "Ada", nil, nil, nil, "alerts@example.com", now, now))
	mock.ExpectQuery("FROM users").
		WithArgs("google:2").
		WillReturnRows(sqlmock.NewRows(cols))

	user, err := repo.GetByID(context.Background(), "google:1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Recipient() != "alerts@example.com" || user.GivenName != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, err := repo.GetByID(context.Background(), "google:2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSetAlertEmailMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE users SET alert_email").
		WithArgs("google:9", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetAlertEmail(context.Background(), "google:9", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

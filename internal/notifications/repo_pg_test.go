package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var notificationCols = []string{"id", "user_id", "course_id", "notification_type", "subject", "message", "sent_via", "is_read", "created_at"}

func TestPGRepoCreateJoinsSentVia(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	created := time.Date(2026, time.February, 2, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("n-1", "user-1", nil, TypeGradeAlert, "Grade Update for Intro", "Current grade: 27% (A-)", "email, log", false, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(context.Background(), Notification{
		ID:        "n-1",
		UserID:    "user-1",
		Type:      TypeGradeAlert,
		Subject:   "Grade Update for Intro",
		Message:   "Current grade: 27% (A-)",
		SentVia:   []string{"email", "log"},
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListSplitsSentVia(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("FROM notifications").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow("n-2", "user-1", "course-1", TypeGradeAlert, "Grade Alert: Intro", "Grade 80% is below target 85%", "gmail, outlook", true, now).
			AddRow("n-1", "user-1", nil, TypeGradeAlert, "Grade Update for Intro", "Current grade: 27% (A-)", nil, false, now))

	list, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if len(list[0].SentVia) != 2 || list[0].SentVia[1] != "outlook" || list[0].CourseID != "course-1" || !list[0].IsRead {
		t.Fatalf("unexpected first notification %+v", list[0])
	}
	if len(list[1].SentVia) != 0 || list[1].CourseID != "" {
		t.Fatalf("unexpected second notification %+v", list[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkReadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}

	mock.ExpectQuery("UPDATE notifications SET is_read").
		WithArgs("n-9", "user-1").
		WillReturnRows(sqlmock.NewRows(notificationCols))

	if _, err := repo.MarkRead(context.Background(), "user-1", "n-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

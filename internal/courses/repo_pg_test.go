package courses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	courseCols     = []string{"id", "user_id", "brightspace_course_id", "course_code", "course_name", "semester", "year", "target_grade", "created_at", "updated_at"}
	assignmentCols = []string{
		"id", "course_id", "brightspace_assignment_id", "name", "category", "max_points", "due_date", "description", "created_at", "updated_at",
		"g_id", "points_earned", "percentage", "letter_grade", "graded_date", "feedback", "g_created_at", "g_updated_at",
	}
	weightCols = []string{"id", "course_id", "category", "weight", "description", "created_at", "updated_at"}
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

func TestPGRepoGetCourseNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM courses").
		WithArgs("course-1", "user-1").
		WillReturnRows(sqlmock.NewRows(courseCols))

	_, err := repo.GetCourse(context.Background(), "user-1", "course-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetCourseDetailLoadsChildren(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM courses").
		WithArgs("course-1", "user-1").
		WillReturnRows(sqlmock.NewRows(courseCols).
			AddRow("course-1", "user-1", nil, "CS 101", "Intro", "Fall", int64(2026), 85.0, now, now))
	mock.ExpectQuery("FROM assignments a").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow("a-1", "course-1", "HW1", "Homework 1", "Homework", 100.0, nil, nil, now, now,
				"g-1", 90.0, 90.0, nil, nil, "nice", now, now).
			AddRow("a-2", "course-1", nil, "Midterm", "Exam", 50.0, nil, nil, now, now,
				nil, nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectQuery("FROM syllabus_weights").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows(weightCols).
			AddRow("w-1", "course-1", "Homework", 40.0, nil, now, now).
			AddRow("w-2", "course-1", "Exam", 60.0, "Midterm and final", now, now))

	course, err := repo.GetCourseDetail(context.Background(), "user-1", "course-1")
	if err != nil {
		t.Fatalf("GetCourseDetail: %v", err)
	}
	if course.Year == nil || *course.Year != 2026 || course.BrightspaceCourseID != "" {
		t.Fatalf("unexpected course fields: %+v", course)
	}
	if len(course.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(course.Assignments))
	}
	graded := course.Assignments[0]
	if graded.Grade == nil || graded.Grade.PointsEarned == nil || *graded.Grade.PointsEarned != 90 {
		t.Fatalf("expected graded first assignment, got %+v", graded.Grade)
	}
	if graded.Grade.Feedback != "nice" || graded.BrightspaceAssignmentID != "HW1" {
		t.Fatalf("unexpected grade fields: %+v", graded)
	}
	if course.Assignments[1].Grade != nil {
		t.Fatalf("expected ungraded second assignment")
	}
	if len(course.Weights) != 2 || course.Weights[0].Category != "Homework" || course.Weights[1].Description != "Midterm and final" {
		t.Fatalf("unexpected weights: %+v", course.Weights)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertWeightReturnsStoredRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mock.ExpectQuery("INSERT INTO syllabus_weights").
		WithArgs("w-new", "course-1", "Quiz", 20.0, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("w-existing", created, updated))

	weight, err := repo.UpsertWeight(context.Background(), SyllabusWeight{ID: "w-new", CourseID: "course-1", Category: "Quiz", Weight: 20})
	if err != nil {
		t.Fatalf("UpsertWeight: %v", err)
	}
	if weight.ID != "w-existing" || !weight.CreatedAt.Equal(created) {
		t.Fatalf("expected stored id and timestamps, got %+v", weight)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteWeightMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM syllabus_weights").
		WithArgs("w-1", "course-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteWeight(context.Background(), "course-1", "w-1"); !errors.Is(err, ErrWeightNotFound) {
		t.Fatalf("expected ErrWeightNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoReplaceWeightsInTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM syllabus_weights").
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO syllabus_weights").
		WithArgs("w-1", "course-1", "Homework", 50.0, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO syllabus_weights").
		WithArgs("w-2", "course-1", "Exam", 50.0, "Finals", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceWeights(context.Background(), "course-1", []SyllabusWeight{
		{ID: "w-1", Category: "Homework", Weight: 50},
		{ID: "w-2", Category: "Exam", Weight: 50, Description: "Finals"},
	})
	if err != nil {
		t.Fatalf("ReplaceWeights: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteGradeMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM grades").
		WithArgs("a-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteGrade(context.Background(), "a-1"); !errors.Is(err, ErrGradeNotFound) {
		t.Fatalf("expected ErrGradeNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

package syllabus

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"gradesync/internal/courses"
	"gradesync/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) (*Service, *local.Store, courses.Course) {
	t.Helper()
	courseSvc := courses.NewService(courses.NewMemoryRepo(), nil)
	course, err := courseSvc.CreateCourse(context.Background(), "user-1", courses.CreateInput{CourseCode: "CS 101", CourseName: "Intro"})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	maxPoints := 10.0
	if _, err := courseSvc.AddAssignment(context.Background(), "user-1", course.ID, courses.AssignmentInput{Name: "Midterm", Category: "Exam", MaxPoints: &maxPoints}); err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}
	store := local.New(t.TempDir())
	return NewService(store, courseSvc), store, course
}

func TestImportAppliesValidWeights(t *testing.T) {
	svc, store, course := newTestService(t)
	ctx := context.Background()

	result, err := svc.Import(ctx, "user-1", course.ID, "syllabus.txt", strings.NewReader("Homework 60%\nExams: 40%\n"), true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !result.Valid || !result.Applied || result.Total != 100 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Stored) != 2 || result.Stored[1].Category != "Exam" {
		t.Fatalf("expected plural category matched to assignments, got %+v", result.Stored)
	}

	rc, err := store.Open(ctx, result.FileKey+".extracted.txt")
	if err != nil {
		t.Fatalf("open extracted text: %v", err)
	}
	defer rc.Close()
	extracted, _ := io.ReadAll(rc)
	if !strings.Contains(string(extracted), "Homework 60%") {
		t.Fatalf("unexpected extracted text %q", extracted)
	}

	detail, err := svc.Courses.GetCourse(ctx, "user-1", course.ID)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if len(detail.Weights) != 2 || detail.Weights[0].Category != "Homework" {
		t.Fatalf("expected replaced weights, got %+v", detail.Weights)
	}
}

func TestImportDoesNotApplyInvalidTotal(t *testing.T) {
	svc, _, course := newTestService(t)
	result, err := svc.Import(context.Background(), "user-1", course.ID, "syllabus.txt", strings.NewReader("Homework 50%\nExams 40%\n"), true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Valid || result.Applied || result.Total != 90 {
		t.Fatalf("expected unapplied 90%% result, got %+v", result)
	}
}

func TestImportErrors(t *testing.T) {
	svc, _, course := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "user-1", course.ID, "notes.txt", strings.NewReader("No weights here.\n"), false); !errors.Is(err, ErrNoWeights) {
		t.Fatalf("expected ErrNoWeights, got %v", err)
	}
	if _, err := svc.Import(ctx, "user-1", course.ID, "image.png", strings.NewReader("\x89PNG\r\n\x1a\n\x00\x00"), false); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := svc.Import(ctx, "user-2", course.ID, "syllabus.txt", strings.NewReader("Homework 100%\n"), false); !errors.Is(err, courses.ErrNotFound) {
		t.Fatalf("expected courses.ErrNotFound, got %v", err)
	}
}

func TestExtractTextRejectsBrokenPDF(t *testing.T) {
	if _, err := ExtractText(context.Background(), []byte("%PDF-1.4 truncated"), "application/pdf", "syllabus.pdf"); err == nil {
		t.Fatalf("expected error for truncated pdf")
	}
}

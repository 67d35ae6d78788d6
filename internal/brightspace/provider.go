// Package brightspace supplies course data from the Brightspace LMS.
// Only a synthetic provider exists; it stands in for the real API during development.
package brightspace

import (
	"context"
	"time"
)

// Course is a course as reported by Brightspace.
type Course struct {
	BrightspaceCourseID string
	CourseCode          string
	CourseName          string
	Semester            string
	Year                int
}

// Assignment is an assignment as reported by Brightspace.
type Assignment struct {
	BrightspaceAssignmentID string
	Name                    string
	Category                string
	MaxPoints               float64
	DueDate                 *time.Time
	Description             string
}

// Grade is a student's grade as reported by Brightspace.
type Grade struct {
	PointsEarned float64
	GradedDate   *time.Time
	Feedback     string
}

// Provider fetches course data for a user.
type Provider interface {
	Courses(ctx context.Context, userID string) ([]Course, error)
	Assignments(ctx context.Context, courseRef string) ([]Assignment, error)
	// Grades is keyed by BrightspaceAssignmentID.
	Grades(ctx context.Context, courseRef, userID string) (map[string]Grade, error)
}

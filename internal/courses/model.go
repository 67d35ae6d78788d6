package courses

import "time"

// Course is a student's course with its syllabus and assignments.
type Course struct {
	ID                  string
	UserID              string
	BrightspaceCourseID string
	CourseCode          string
	CourseName          string
	Semester            string
	Year                *int
	TargetGrade         float64
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Populated by GetCourseDetail only.
	Assignments []Assignment
	Weights     []SyllabusWeight
}

// Assignment is a gradable piece of work within a course.
type Assignment struct {
	ID                      string
	CourseID                string
	BrightspaceAssignmentID string
	Name                    string
	Category                string
	MaxPoints               float64
	DueDate                 *time.Time
	Description             string
	CreatedAt               time.Time
	UpdatedAt               time.Time
	Grade                   *Grade
}

// Grade is the score recorded for one assignment.
type Grade struct {
	ID           string
	AssignmentID string
	PointsEarned *float64
	Percentage   *float64
	LetterGrade  string
	GradedDate   *time.Time
	Feedback     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SyllabusWeight is a grading category and its share of the course grade.
type SyllabusWeight struct {
	ID          string
	CourseID    string
	Category    string
	Weight      float64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CoursePatch holds the optional fields of a course update.
type CoursePatch struct {
	CourseCode  *string
	CourseName  *string
	Semester    *string
	Year        *int
	TargetGrade *float64
}

// GradeInput is a grade submission for an assignment.
type GradeInput struct {
	PointsEarned float64
	LetterGrade  string
	Feedback     string
	GradedDate   *time.Time
}

// CourseGradeEntry is a recorded grade joined with its assignment.
type CourseGradeEntry struct {
	Grade      Grade
	Assignment Assignment
}

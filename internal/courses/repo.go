package courses

import "context"

// Repo defines persistence operations for courses and their children.
// Lookups that take a userID only return rows owned by that user.
type Repo interface {
	CreateCourse(ctx context.Context, course Course) error
	ListCourses(ctx context.Context, userID string) ([]Course, error)
	GetCourse(ctx context.Context, userID, courseID string) (Course, error)
	GetCourseDetail(ctx context.Context, userID, courseID string) (Course, error)
	FindCourseByBrightspaceID(ctx context.Context, userID, brightspaceID string) (Course, error)
	UpdateCourse(ctx context.Context, course Course) error
	DeleteCourse(ctx context.Context, userID, courseID string) error

	UpsertWeight(ctx context.Context, weight SyllabusWeight) (SyllabusWeight, error)
	DeleteWeight(ctx context.Context, courseID, weightID string) error
	ReplaceWeights(ctx context.Context, courseID string, weights []SyllabusWeight) error

	CreateAssignment(ctx context.Context, assignment Assignment) error
	GetAssignment(ctx context.Context, userID, assignmentID string) (Assignment, error)
	FindAssignmentByBrightspaceID(ctx context.Context, courseID, brightspaceID string) (Assignment, error)
	DeleteAssignment(ctx context.Context, courseID, assignmentID string) error

	UpsertGrade(ctx context.Context, grade Grade) (Grade, error)
	DeleteGrade(ctx context.Context, assignmentID string) error
}

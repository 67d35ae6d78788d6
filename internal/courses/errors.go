package courses

import "errors"

var (
	ErrNotFound           = errors.New("course not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrWeightNotFound     = errors.New("weight not found")
	ErrGradeNotFound      = errors.New("no grade found for this assignment")
)

// ValidationError reports invalid user input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// WeightsError is returned when a course's syllabus weights cannot produce a grade.
type WeightsError struct {
	Message string
}

func (e *WeightsError) Error() string { return e.Message }

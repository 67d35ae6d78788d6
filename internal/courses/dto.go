package courses

import "time"

// CourseResponse is the outward-facing representation of a course.
type CourseResponse struct {
	ID                  string               `json:"id"`
	UserID              string               `json:"user_id"`
	BrightspaceCourseID *string              `json:"brightspace_course_id"`
	CourseCode          string               `json:"course_code"`
	CourseName          string               `json:"course_name"`
	Semester            *string              `json:"semester"`
	Year                *int                 `json:"year"`
	TargetGrade         float64              `json:"target_grade"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	Assignments         []AssignmentResponse `json:"assignments,omitempty"`
	SyllabusWeights     []WeightResponse     `json:"syllabus_weights,omitempty"`
}

type AssignmentResponse struct {
	ID                      string         `json:"id"`
	CourseID                string         `json:"course_id"`
	BrightspaceAssignmentID *string        `json:"brightspace_assignment_id"`
	Name                    string         `json:"name"`
	Category                string         `json:"category"`
	MaxPoints               float64        `json:"max_points"`
	DueDate                 *time.Time     `json:"due_date"`
	Description             *string        `json:"description"`
	CreatedAt               time.Time      `json:"created_at"`
	Grade                   *GradeResponse `json:"grade"`
}

type GradeResponse struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	PointsEarned *float64   `json:"points_earned"`
	Percentage   *float64   `json:"percentage"`
	LetterGrade  *string    `json:"letter_grade"`
	GradedDate   *time.Time `json:"graded_date"`
	Feedback     *string    `json:"feedback"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type WeightResponse struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Category    string    `json:"category"`
	Weight      float64   `json:"weight"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// GradeWithAssignmentResponse is a grade listed with its assignment.
type GradeWithAssignmentResponse struct {
	GradeResponse
	AssignmentName     string  `json:"assignment_name"`
	AssignmentCategory string  `json:"assignment_category"`
	MaxPoints          float64 `json:"max_points"`
}

type createCourseRequest struct {
	CourseCode          string   `json:"course_code"`
	CourseName          string   `json:"course_name"`
	Semester            string   `json:"semester"`
	Year                *int     `json:"year"`
	BrightspaceCourseID string   `json:"brightspace_course_id"`
	TargetGrade         *float64 `json:"target_grade"`
}

type updateCourseRequest struct {
	CourseCode  *string  `json:"course_code"`
	CourseName  *string  `json:"course_name"`
	Semester    *string  `json:"semester"`
	Year        *int     `json:"year"`
	TargetGrade *float64 `json:"target_grade"`
}

type weightRequest struct {
	Category    string   `json:"category"`
	Weight      *float64 `json:"weight"`
	Description string   `json:"description"`
}

type assignmentRequest struct {
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	MaxPoints   *float64   `json:"max_points"`
	DueDate     *time.Time `json:"due_date"`
	Description string     `json:"description"`
}

type gradeRequest struct {
	PointsEarned *float64   `json:"points_earned"`
	LetterGrade  string     `json:"letter_grade"`
	Feedback     string     `json:"feedback"`
	GradedDate   *time.Time `json:"graded_date"`
}

func toCourseResponse(course Course) CourseResponse {
	resp := CourseResponse{
		ID:                  course.ID,
		UserID:              course.UserID,
		BrightspaceCourseID: optional(course.BrightspaceCourseID),
		CourseCode:          course.CourseCode,
		CourseName:          course.CourseName,
		Semester:            optional(course.Semester),
		Year:                course.Year,
		TargetGrade:         course.TargetGrade,
		CreatedAt:           course.CreatedAt,
		UpdatedAt:           course.UpdatedAt,
	}
	if course.Assignments != nil {
		resp.Assignments = make([]AssignmentResponse, 0, len(course.Assignments))
		for _, a := range course.Assignments {
			resp.Assignments = append(resp.Assignments, toAssignmentResponse(a))
		}
	}
	if course.Weights != nil {
		resp.SyllabusWeights = make([]WeightResponse, 0, len(course.Weights))
		for _, w := range course.Weights {
			resp.SyllabusWeights = append(resp.SyllabusWeights, toWeightResponse(w))
		}
	}
	return resp
}

func toAssignmentResponse(a Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:                      a.ID,
		CourseID:                a.CourseID,
		BrightspaceAssignmentID: optional(a.BrightspaceAssignmentID),
		Name:                    a.Name,
		Category:                a.Category,
		MaxPoints:               a.MaxPoints,
		DueDate:                 a.DueDate,
		Description:             optional(a.Description),
		CreatedAt:               a.CreatedAt,
	}
	if a.Grade != nil {
		g := toGradeResponse(*a.Grade)
		resp.Grade = &g
	}
	return resp
}

func toGradeResponse(g Grade) GradeResponse {
	return GradeResponse{
		ID:           g.ID,
		AssignmentID: g.AssignmentID,
		PointsEarned: g.PointsEarned,
		Percentage:   g.Percentage,
		LetterGrade:  optional(g.LetterGrade),
		GradedDate:   g.GradedDate,
		Feedback:     optional(g.Feedback),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func toWeightResponse(w SyllabusWeight) WeightResponse {
	return WeightResponse{
		ID:          w.ID,
		CourseID:    w.CourseID,
		Category:    w.Category,
		Weight:      w.Weight,
		Description: optional(w.Description),
		CreatedAt:   w.CreatedAt,
	}
}

func toGradeWithAssignment(entry CourseGradeEntry) GradeWithAssignmentResponse {
	return GradeWithAssignmentResponse{
		GradeResponse:      toGradeResponse(entry.Grade),
		AssignmentName:     entry.Assignment.Name,
		AssignmentCategory: entry.Assignment.Category,
		MaxPoints:          entry.Assignment.MaxPoints,
	}
}

// ToWeightResponses converts stored weights for other packages' responses.
func ToWeightResponses(weights []SyllabusWeight) []WeightResponse {
	out := make([]WeightResponse, 0, len(weights))
	for _, w := range weights {
		out = append(out, toWeightResponse(w))
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

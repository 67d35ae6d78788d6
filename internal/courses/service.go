package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gradesync/internal/brightspace"
	"gradesync/internal/grades"
	"gradesync/internal/shared/metrics"
	"gradesync/internal/shared/telemetry"
)

const (
	defaultTargetGrade = 85.0
	defaultCategory    = "Homework"
)

// DefaultWeights is the syllabus applied to imported courses.
var DefaultWeights = []SyllabusWeight{
	{Category: "Homework", Weight: 30, Description: "Weekly homework assignments"},
	{Category: "Quiz", Weight: 20, Description: "In-class quizzes"},
	{Category: "Exam", Weight: 40, Description: "Midterm and final exams"},
	{Category: "Project", Weight: 10, Description: "Course project"},
}

// Service contains business logic for courses, assignments and grades.
type Service struct {
	Repo               Repo
	Brightspace        brightspace.Provider
	DefaultTargetGrade float64
}

// NewService builds a Service with the default target grade.
func NewService(repo Repo, provider brightspace.Provider) *Service {
	return &Service{Repo: repo, Brightspace: provider, DefaultTargetGrade: defaultTargetGrade}
}

// CreateInput carries the fields of a new course.
type CreateInput struct {
	CourseCode          string
	CourseName          string
	Semester            string
	Year                *int
	BrightspaceCourseID string
	TargetGrade         *float64
}

func (s *Service) CreateCourse(ctx context.Context, userID string, in CreateInput) (Course, error) {
	code := strings.TrimSpace(in.CourseCode)
	name := strings.TrimSpace(in.CourseName)
	if code == "" || name == "" {
		return Course{}, invalid("Course code and name are required")
	}
	target := s.targetDefault()
	if in.TargetGrade != nil {
		target = *in.TargetGrade
	}
	course := Course{
		ID:                  uuid.NewString(),
		UserID:              userID,
		BrightspaceCourseID: strings.TrimSpace(in.BrightspaceCourseID),
		CourseCode:          code,
		CourseName:          name,
		Semester:            strings.TrimSpace(in.Semester),
		Year:                in.Year,
		TargetGrade:         target,
	}
	if err := s.Repo.CreateCourse(ctx, course); err != nil {
		return Course{}, fmt.Errorf("create course: %w", err)
	}
	return s.Repo.GetCourse(ctx, userID, course.ID)
}

func (s *Service) ListCourses(ctx context.Context, userID string) ([]Course, error) {
	return s.Repo.ListCourses(ctx, userID)
}

// GetCourse returns the course with its assignments and weights loaded.
func (s *Service) GetCourse(ctx context.Context, userID, courseID string) (Course, error) {
	return s.Repo.GetCourseDetail(ctx, userID, courseID)
}

func (s *Service) UpdateCourse(ctx context.Context, userID, courseID string, patch CoursePatch) (Course, error) {
	course, err := s.Repo.GetCourse(ctx, userID, courseID)
	if err != nil {
		return Course{}, err
	}
	if patch.CourseCode != nil {
		course.CourseCode = strings.TrimSpace(*patch.CourseCode)
	}
	if patch.CourseName != nil {
		course.CourseName = strings.TrimSpace(*patch.CourseName)
	}
	if patch.Semester != nil {
		course.Semester = strings.TrimSpace(*patch.Semester)
	}
	if patch.Year != nil {
		course.Year = patch.Year
	}
	if patch.TargetGrade != nil {
		course.TargetGrade = *patch.TargetGrade
	}
	if course.CourseCode == "" || course.CourseName == "" {
		return Course{}, invalid("Course code and name are required")
	}
	if err := s.Repo.UpdateCourse(ctx, course); err != nil {
		return Course{}, err
	}
	return s.Repo.GetCourse(ctx, userID, courseID)
}

func (s *Service) DeleteCourse(ctx context.Context, userID, courseID string) error {
	return s.Repo.DeleteCourse(ctx, userID, courseID)
}

// SaveWeight creates or updates the weight of a category.
func (s *Service) SaveWeight(ctx context.Context, userID, courseID, category string, weight *float64, description string) (SyllabusWeight, error) {
	category = strings.TrimSpace(category)
	if category == "" || weight == nil {
		return SyllabusWeight{}, invalid("Category and weight are required")
	}
	if *weight < 0 || *weight > 100 {
		return SyllabusWeight{}, invalid("Weight must be between 0 and 100")
	}
	if _, err := s.Repo.GetCourse(ctx, userID, courseID); err != nil {
		return SyllabusWeight{}, err
	}
	return s.Repo.UpsertWeight(ctx, SyllabusWeight{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Category:    category,
		Weight:      *weight,
		Description: strings.TrimSpace(description),
	})
}

func (s *Service) DeleteWeight(ctx context.Context, userID, courseID, weightID string) error {
	if _, err := s.Repo.GetCourse(ctx, userID, courseID); err != nil {
		return err
	}
	return s.Repo.DeleteWeight(ctx, courseID, weightID)
}

// ReplaceWeights swaps the course syllabus for the given categories, keeping their order.
func (s *Service) ReplaceWeights(ctx context.Context, userID, courseID string, weights []grades.CategoryWeight) ([]SyllabusWeight, error) {
	if _, err := s.Repo.GetCourse(ctx, userID, courseID); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(weights))
	out := make([]SyllabusWeight, 0, len(weights))
	for _, w := range weights {
		category := strings.TrimSpace(w.Category)
		if category == "" {
			return nil, invalid("Category is required")
		}
		if seen[strings.ToLower(category)] {
			return nil, invalid(fmt.Sprintf("Duplicate category %q", category))
		}
		if w.Weight < 0 || w.Weight > 100 {
			return nil, invalid("Weight must be between 0 and 100")
		}
		seen[strings.ToLower(category)] = true
		out = append(out, SyllabusWeight{
			ID:       uuid.NewString(),
			CourseID: courseID,
			Category: category,
			Weight:   w.Weight,
		})
	}
	if err := s.Repo.ReplaceWeights(ctx, courseID, out); err != nil {
		return nil, fmt.Errorf("replace weights: %w", err)
	}
	detail, err := s.Repo.GetCourseDetail(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return detail.Weights, nil
}

// AssignmentInput carries the fields of a new assignment.
type AssignmentInput struct {
	Name                    string
	Category                string
	MaxPoints               *float64
	DueDate                 *time.Time
	Description             string
	BrightspaceAssignmentID string
}

func (s *Service) AddAssignment(ctx context.Context, userID, courseID string, in AssignmentInput) (Assignment, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.MaxPoints == nil {
		return Assignment{}, invalid("Name and max_points are required")
	}
	if *in.MaxPoints <= 0 {
		return Assignment{}, invalid("max_points must be greater than 0")
	}
	if _, err := s.Repo.GetCourse(ctx, userID, courseID); err != nil {
		return Assignment{}, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultCategory
	}
	assignment := Assignment{
		ID:                      uuid.NewString(),
		CourseID:                courseID,
		BrightspaceAssignmentID: strings.TrimSpace(in.BrightspaceAssignmentID),
		Name:                    name,
		Category:                category,
		MaxPoints:               *in.MaxPoints,
		DueDate:                 in.DueDate,
		Description:             strings.TrimSpace(in.Description),
	}
	if err := s.Repo.CreateAssignment(ctx, assignment); err != nil {
		return Assignment{}, fmt.Errorf("create assignment: %w", err)
	}
	return s.Repo.GetAssignment(ctx, userID, assignment.ID)
}

func (s *Service) DeleteAssignment(ctx context.Context, userID, courseID, assignmentID string) error {
	if _, err := s.Repo.GetCourse(ctx, userID, courseID); err != nil {
		return err
	}
	return s.Repo.DeleteAssignment(ctx, courseID, assignmentID)
}

// SaveGrade records points earned on an assignment, replacing any earlier grade.
func (s *Service) SaveGrade(ctx context.Context, userID, assignmentID string, in GradeInput) (Grade, error) {
	assignment, err := s.Repo.GetAssignment(ctx, userID, assignmentID)
	if err != nil {
		return Grade{}, err
	}
	if in.PointsEarned < 0 {
		return Grade{}, invalid("points_earned must not be negative")
	}
	points := in.PointsEarned
	percentage := points / assignment.MaxPoints * 100
	grade := Grade{
		ID:           uuid.NewString(),
		AssignmentID: assignment.ID,
		PointsEarned: &points,
		Percentage:   &percentage,
		LetterGrade:  strings.TrimSpace(in.LetterGrade),
		GradedDate:   in.GradedDate,
		Feedback:     strings.TrimSpace(in.Feedback),
	}
	return s.Repo.UpsertGrade(ctx, grade)
}

func (s *Service) GetGrade(ctx context.Context, userID, assignmentID string) (Grade, error) {
	assignment, err := s.Repo.GetAssignment(ctx, userID, assignmentID)
	if err != nil {
		return Grade{}, err
	}
	if assignment.Grade == nil {
		return Grade{}, ErrGradeNotFound
	}
	return *assignment.Grade, nil
}

func (s *Service) DeleteGrade(ctx context.Context, userID, assignmentID string) error {
	assignment, err := s.Repo.GetAssignment(ctx, userID, assignmentID)
	if err != nil {
		return err
	}
	if assignment.Grade == nil {
		return ErrGradeNotFound
	}
	return s.Repo.DeleteGrade(ctx, assignment.ID)
}

// ListCourseGrades returns every recorded grade of a course with its assignment.
func (s *Service) ListCourseGrades(ctx context.Context, userID, courseID string) ([]CourseGradeEntry, error) {
	course, err := s.Repo.GetCourseDetail(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	out := []CourseGradeEntry{}
	for _, a := range course.Assignments {
		if a.Grade == nil {
			continue
		}
		out = append(out, CourseGradeEntry{Grade: *a.Grade, Assignment: a})
	}
	return out, nil
}

// Calculate computes the course grade from the stored syllabus and grades.
func (s *Service) Calculate(ctx context.Context, userID, courseID string) (Course, grades.CourseGradeResult, error) {
	course, err := s.Repo.GetCourseDetail(ctx, userID, courseID)
	if err != nil {
		return Course{}, grades.CourseGradeResult{}, err
	}
	result := Evaluate(course)
	metrics.IncGradeCalculation()
	if result.HasError() {
		metrics.IncGradeWeightError()
	} else if result.ProjectedFinalGrade != nil {
		metrics.ObserveProjectedGrade(*result.ProjectedFinalGrade)
	}
	return course, result, nil
}

// GradeNeeded reports the average required on remaining work. A nil target uses the course target.
func (s *Service) GradeNeeded(ctx context.Context, userID, courseID string, target *float64) (grades.GradeNeededResult, error) {
	course, result, err := s.Calculate(ctx, userID, courseID)
	if err != nil {
		return grades.GradeNeededResult{}, err
	}
	if result.HasError() {
		return grades.GradeNeededResult{}, &WeightsError{Message: result.Error}
	}
	goal := course.TargetGrade
	if target != nil {
		goal = *target
	}
	return grades.GradeNeeded(result, goal), nil
}

// Evaluate runs the grade engine over a loaded course.
func Evaluate(course Course) grades.CourseGradeResult {
	return grades.CourseGrade(CategoryWeights(course), GradedItems(course))
}

// CategoryWeights flattens the course syllabus in stored order.
func CategoryWeights(course Course) []grades.CategoryWeight {
	out := make([]grades.CategoryWeight, 0, len(course.Weights))
	for _, w := range course.Weights {
		out = append(out, grades.CategoryWeight{Category: w.Category, Weight: w.Weight})
	}
	return out
}

// GradedItems flattens assignments with their grades. Ungraded assignments have nil points.
func GradedItems(course Course) []grades.GradedItem {
	out := make([]grades.GradedItem, 0, len(course.Assignments))
	for _, a := range course.Assignments {
		item := grades.GradedItem{Category: a.Category, MaxPoints: a.MaxPoints}
		if a.Grade != nil && a.Grade.PointsEarned != nil {
			points := *a.Grade.PointsEarned
			item.PointsEarned = &points
		}
		out = append(out, item)
	}
	return out
}

// ImportBrightspace creates every provider course the user does not have yet,
// with its assignments, grades and the default syllabus.
func (s *Service) ImportBrightspace(ctx context.Context, userID string) ([]Course, error) {
	if s.Brightspace == nil {
		return nil, errors.New("brightspace provider not configured")
	}
	remote, err := s.Brightspace.Courses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("brightspace courses: %w", err)
	}
	metrics.IncBrightspaceSync()

	imported := []Course{}
	for _, rc := range remote {
		if _, err := s.Repo.FindCourseByBrightspaceID(ctx, userID, rc.BrightspaceCourseID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		year := rc.Year
		course := Course{
			ID:                  uuid.NewString(),
			UserID:              userID,
			BrightspaceCourseID: rc.BrightspaceCourseID,
			CourseCode:          rc.CourseCode,
			CourseName:          rc.CourseName,
			Semester:            rc.Semester,
			Year:                &year,
			TargetGrade:         s.targetDefault(),
		}
		if err := s.Repo.CreateCourse(ctx, course); err != nil {
			return nil, fmt.Errorf("create imported course: %w", err)
		}
		if _, err := s.pullBrightspace(ctx, userID, course.ID, rc.BrightspaceCourseID); err != nil {
			return nil, err
		}
		defaults := make([]SyllabusWeight, 0, len(DefaultWeights))
		for _, w := range DefaultWeights {
			w.ID = uuid.NewString()
			w.CourseID = course.ID
			defaults = append(defaults, w)
		}
		if err := s.Repo.ReplaceWeights(ctx, course.ID, defaults); err != nil {
			return nil, fmt.Errorf("default weights: %w", err)
		}

		detail, err := s.Repo.GetCourseDetail(ctx, userID, course.ID)
		if err != nil {
			return nil, err
		}
		imported = append(imported, detail)
	}

	telemetry.Info("brightspace.import", map[string]any{
		"user_id":  userID,
		"imported": len(imported),
		"offered":  len(remote),
	})
	return imported, nil
}

// SyncBrightspace adds missing assignments and refreshes grades of an existing course.
// It returns the number of assignments created.
func (s *Service) SyncBrightspace(ctx context.Context, userID, courseID string) (int, Course, error) {
	if s.Brightspace == nil {
		return 0, Course{}, errors.New("brightspace provider not configured")
	}
	course, err := s.Repo.GetCourse(ctx, userID, courseID)
	if err != nil {
		return 0, Course{}, err
	}
	ref := course.BrightspaceCourseID
	if ref == "" {
		ref = course.ID
	}
	created, err := s.pullBrightspace(ctx, userID, course.ID, ref)
	if err != nil {
		return 0, Course{}, err
	}
	metrics.IncBrightspaceSync()

	detail, err := s.Repo.GetCourseDetail(ctx, userID, courseID)
	if err != nil {
		return 0, Course{}, err
	}
	telemetry.Info("brightspace.sync", map[string]any{
		"user_id":   userID,
		"course_id": courseID,
		"created":   created,
	})
	return created, detail, nil
}

func (s *Service) pullBrightspace(ctx context.Context, userID, courseID, ref string) (int, error) {
	remoteAssignments, err := s.Brightspace.Assignments(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("brightspace assignments: %w", err)
	}
	created := 0
	for _, ra := range remoteAssignments {
		_, err := s.Repo.FindAssignmentByBrightspaceID(ctx, courseID, ra.BrightspaceAssignmentID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrAssignmentNotFound) {
			return 0, err
		}
		category := ra.Category
		if category == "" {
			category = defaultCategory
		}
		assignment := Assignment{
			ID:                      uuid.NewString(),
			CourseID:                courseID,
			BrightspaceAssignmentID: ra.BrightspaceAssignmentID,
			Name:                    ra.Name,
			Category:                category,
			MaxPoints:               ra.MaxPoints,
			DueDate:                 ra.DueDate,
			Description:             ra.Description,
		}
		if err := s.Repo.CreateAssignment(ctx, assignment); err != nil {
			return 0, fmt.Errorf("create synced assignment: %w", err)
		}
		created++
	}

	remoteGrades, err := s.Brightspace.Grades(ctx, ref, userID)
	if err != nil {
		return 0, fmt.Errorf("brightspace grades: %w", err)
	}
	for assignmentRef, rg := range remoteGrades {
		assignment, err := s.Repo.FindAssignmentByBrightspaceID(ctx, courseID, assignmentRef)
		if errors.Is(err, ErrAssignmentNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		points := rg.PointsEarned
		percentage := points / assignment.MaxPoints * 100
		_, err = s.Repo.UpsertGrade(ctx, Grade{
			ID:           uuid.NewString(),
			AssignmentID: assignment.ID,
			PointsEarned: &points,
			Percentage:   &percentage,
			GradedDate:   rg.GradedDate,
			Feedback:     rg.Feedback,
		})
		if err != nil {
			return 0, fmt.Errorf("upsert synced grade: %w", err)
		}
	}
	return created, nil
}

func (s *Service) targetDefault() float64 {
	if s.DefaultTargetGrade > 0 {
		return s.DefaultTargetGrade
	}
	return defaultTargetGrade
}

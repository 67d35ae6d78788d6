package courses

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu               sync.RWMutex
	courses          map[string]Course
	courseOrder      []string
	assignments      map[string]Assignment
	assignmentOrder  []string
	weights          map[string][]SyllabusWeight // courseID -> weights in creation order
	gradesByAssignID map[string]Grade
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		courses:          make(map[string]Course),
		assignments:      make(map[string]Assignment),
		weights:          make(map[string][]SyllabusWeight),
		gradesByAssignID: make(map[string]Grade),
	}
}

func (r *MemoryRepo) CreateCourse(ctx context.Context, course Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	course.Assignments = nil
	course.Weights = nil
	if _, exists := r.courses[course.ID]; !exists {
		r.courseOrder = append(r.courseOrder, course.ID)
	}
	r.courses[course.ID] = course
	return nil
}

func (r *MemoryRepo) ListCourses(ctx context.Context, userID string) ([]Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Course{}
	for _, id := range r.courseOrder {
		if course, ok := r.courses[id]; ok && course.UserID == userID {
			out = append(out, course)
		}
	}
	return out, nil
}

func (r *MemoryRepo) GetCourse(ctx context.Context, userID, courseID string) (Course, error) {
	if err := ctx.Err(); err != nil {
		return Course{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.courseLocked(userID, courseID)
}

func (r *MemoryRepo) GetCourseDetail(ctx context.Context, userID, courseID string) (Course, error) {
	if err := ctx.Err(); err != nil {
		return Course{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	course, err := r.courseLocked(userID, courseID)
	if err != nil {
		return Course{}, err
	}
	course.Assignments = []Assignment{}
	for _, id := range r.assignmentOrder {
		assignment, ok := r.assignments[id]
		if !ok || assignment.CourseID != courseID {
			continue
		}
		course.Assignments = append(course.Assignments, r.withGradeLocked(assignment))
	}
	course.Weights = append([]SyllabusWeight{}, r.weights[courseID]...)
	return course, nil
}

func (r *MemoryRepo) FindCourseByBrightspaceID(ctx context.Context, userID, brightspaceID string) (Course, error) {
	if err := ctx.Err(); err != nil {
		return Course{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.courseOrder {
		course, ok := r.courses[id]
		if ok && course.UserID == userID && course.BrightspaceCourseID == brightspaceID {
			return course, nil
		}
	}
	return Course{}, ErrNotFound
}

func (r *MemoryRepo) UpdateCourse(ctx context.Context, course Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, err := r.courseLocked(course.UserID, course.ID)
	if err != nil {
		return err
	}
	course.CreatedAt = existing.CreatedAt
	course.UpdatedAt = time.Now().UTC()
	course.Assignments = nil
	course.Weights = nil
	r.courses[course.ID] = course
	return nil
}

func (r *MemoryRepo) DeleteCourse(ctx context.Context, userID, courseID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.courseLocked(userID, courseID); err != nil {
		return err
	}
	delete(r.courses, courseID)
	r.courseOrder = removeID(r.courseOrder, courseID)
	delete(r.weights, courseID)
	for id, assignment := range r.assignments {
		if assignment.CourseID == courseID {
			delete(r.assignments, id)
			delete(r.gradesByAssignID, id)
			r.assignmentOrder = removeID(r.assignmentOrder, id)
		}
	}
	return nil
}

func (r *MemoryRepo) UpsertWeight(ctx context.Context, weight SyllabusWeight) (SyllabusWeight, error) {
	if err := ctx.Err(); err != nil {
		return SyllabusWeight{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	list := r.weights[weight.CourseID]
	for i := range list {
		if list[i].Category == weight.Category {
			list[i].Weight = weight.Weight
			list[i].Description = weight.Description
			list[i].UpdatedAt = now
			return list[i], nil
		}
	}
	weight.CreatedAt = now
	weight.UpdatedAt = now
	r.weights[weight.CourseID] = append(list, weight)
	return weight, nil
}

func (r *MemoryRepo) DeleteWeight(ctx context.Context, courseID, weightID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.weights[courseID]
	for i := range list {
		if list[i].ID == weightID {
			r.weights[courseID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrWeightNotFound
}

func (r *MemoryRepo) ReplaceWeights(ctx context.Context, courseID string, weights []SyllabusWeight) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	list := make([]SyllabusWeight, 0, len(weights))
	for _, w := range weights {
		w.CourseID = courseID
		w.CreatedAt = now
		w.UpdatedAt = now
		list = append(list, w)
	}
	r.weights[courseID] = list
	return nil
}

func (r *MemoryRepo) CreateAssignment(ctx context.Context, assignment Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	assignment.Grade = nil
	if _, exists := r.assignments[assignment.ID]; !exists {
		r.assignmentOrder = append(r.assignmentOrder, assignment.ID)
	}
	r.assignments[assignment.ID] = assignment
	return nil
}

func (r *MemoryRepo) GetAssignment(ctx context.Context, userID, assignmentID string) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return Assignment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	assignment, ok := r.assignments[assignmentID]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	if _, err := r.courseLocked(userID, assignment.CourseID); err != nil {
		return Assignment{}, ErrAssignmentNotFound
	}
	return r.withGradeLocked(assignment), nil
}

func (r *MemoryRepo) FindAssignmentByBrightspaceID(ctx context.Context, courseID, brightspaceID string) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return Assignment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.assignmentOrder {
		assignment, ok := r.assignments[id]
		if ok && assignment.CourseID == courseID && assignment.BrightspaceAssignmentID == brightspaceID {
			return r.withGradeLocked(assignment), nil
		}
	}
	return Assignment{}, ErrAssignmentNotFound
}

func (r *MemoryRepo) DeleteAssignment(ctx context.Context, courseID, assignmentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[assignmentID]
	if !ok || assignment.CourseID != courseID {
		return ErrAssignmentNotFound
	}
	delete(r.assignments, assignmentID)
	delete(r.gradesByAssignID, assignmentID)
	r.assignmentOrder = removeID(r.assignmentOrder, assignmentID)
	return nil
}

func (r *MemoryRepo) UpsertGrade(ctx context.Context, grade Grade) (Grade, error) {
	if err := ctx.Err(); err != nil {
		return Grade{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[grade.AssignmentID]; !ok {
		return Grade{}, ErrAssignmentNotFound
	}
	now := time.Now().UTC()
	if existing, ok := r.gradesByAssignID[grade.AssignmentID]; ok {
		grade.ID = existing.ID
		grade.CreatedAt = existing.CreatedAt
	} else {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	r.gradesByAssignID[grade.AssignmentID] = grade
	return grade, nil
}

func (r *MemoryRepo) DeleteGrade(ctx context.Context, assignmentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gradesByAssignID[assignmentID]; !ok {
		return ErrGradeNotFound
	}
	delete(r.gradesByAssignID, assignmentID)
	return nil
}

func (r *MemoryRepo) courseLocked(userID, courseID string) (Course, error) {
	course, ok := r.courses[courseID]
	if !ok || course.UserID != userID {
		return Course{}, ErrNotFound
	}
	return course, nil
}

func (r *MemoryRepo) withGradeLocked(assignment Assignment) Assignment {
	if grade, ok := r.gradesByAssignID[assignment.ID]; ok {
		g := grade
		assignment.Grade = &g
	}
	return assignment
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)

package courses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const courseColumns = `id, user_id, brightspace_course_id, course_code, course_name, semester, year, target_grade, created_at, updated_at`

func (r *PGRepo) CreateCourse(ctx context.Context, course Course) error {
	const query = `
INSERT INTO courses (id, user_id, brightspace_course_id, course_code, course_name, semester, year, target_grade, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		course.ID,
		course.UserID,
		nullableString(course.BrightspaceCourseID),
		course.CourseCode,
		course.CourseName,
		nullableString(course.Semester),
		nullableInt(course.Year),
		course.TargetGrade,
	)
	return err
}

func (r *PGRepo) ListCourses(ctx context.Context, userID string) ([]Course, error) {
	query := `SELECT ` + courseColumns + `
FROM courses
WHERE user_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, course)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetCourse(ctx context.Context, userID, courseID string) (Course, error) {
	query := `SELECT ` + courseColumns + `
FROM courses
WHERE id = $1 AND user_id = $2
LIMIT 1`
	course, err := scanCourse(r.DB.QueryRowContext(ctx, query, courseID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return course, nil
}

func (r *PGRepo) GetCourseDetail(ctx context.Context, userID, courseID string) (Course, error) {
	course, err := r.GetCourse(ctx, userID, courseID)
	if err != nil {
		return Course{}, err
	}

	assignments, err := r.listAssignments(ctx, courseID)
	if err != nil {
		return Course{}, fmt.Errorf("list assignments course=%s: %w", courseID, err)
	}
	weights, err := r.listWeights(ctx, courseID)
	if err != nil {
		return Course{}, fmt.Errorf("list weights course=%s: %w", courseID, err)
	}
	course.Assignments = assignments
	course.Weights = weights
	return course, nil
}

func (r *PGRepo) FindCourseByBrightspaceID(ctx context.Context, userID, brightspaceID string) (Course, error) {
	query := `SELECT ` + courseColumns + `
FROM courses
WHERE user_id = $1 AND brightspace_course_id = $2
LIMIT 1`
	course, err := scanCourse(r.DB.QueryRowContext(ctx, query, userID, brightspaceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return course, nil
}

func (r *PGRepo) UpdateCourse(ctx context.Context, course Course) error {
	const query = `
UPDATE courses
SET course_code = $3,
    course_name = $4,
    semester = $5,
    year = $6,
    target_grade = $7,
    updated_at = now()
WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query,
		course.ID,
		course.UserID,
		course.CourseCode,
		course.CourseName,
		nullableString(course.Semester),
		nullableInt(course.Year),
		course.TargetGrade,
	)
	if err != nil {
		return err
	}
	return requireRow(res, ErrNotFound)
}

func (r *PGRepo) DeleteCourse(ctx context.Context, userID, courseID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM courses WHERE id = $1 AND user_id = $2`, courseID, userID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrNotFound)
}

func (r *PGRepo) UpsertWeight(ctx context.Context, weight SyllabusWeight) (SyllabusWeight, error) {
	const query = `
INSERT INTO syllabus_weights (id, course_id, category, weight, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (course_id, category) DO UPDATE SET
  weight = EXCLUDED.weight,
  description = EXCLUDED.description,
  updated_at = now()
RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		weight.ID,
		weight.CourseID,
		weight.Category,
		weight.Weight,
		nullableString(weight.Description),
	).Scan(&weight.ID, &weight.CreatedAt, &weight.UpdatedAt)
	if err != nil {
		return SyllabusWeight{}, err
	}
	return weight, nil
}

func (r *PGRepo) DeleteWeight(ctx context.Context, courseID, weightID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM syllabus_weights WHERE id = $1 AND course_id = $2`, weightID, courseID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrWeightNotFound)
}

func (r *PGRepo) ReplaceWeights(ctx context.Context, courseID string, weights []SyllabusWeight) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM syllabus_weights WHERE course_id = $1`, courseID); err != nil {
		return err
	}
	// Offsets keep creation order stable for the breakdown.
	base := time.Now().UTC()
	const insert = `
INSERT INTO syllabus_weights (id, course_id, category, weight, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`
	for i, w := range weights {
		createdAt := base.Add(time.Duration(i) * time.Microsecond)
		if _, err := tx.ExecContext(ctx, insert, w.ID, courseID, w.Category, w.Weight, nullableString(w.Description), createdAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PGRepo) CreateAssignment(ctx context.Context, assignment Assignment) error {
	const query = `
INSERT INTO assignments (id, course_id, brightspace_assignment_id, name, category, max_points, due_date, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		assignment.ID,
		assignment.CourseID,
		nullableString(assignment.BrightspaceAssignmentID),
		assignment.Name,
		assignment.Category,
		assignment.MaxPoints,
		nullableTime(assignment.DueDate),
		nullableString(assignment.Description),
	)
	return err
}

const assignmentSelect = `
SELECT a.id, a.course_id, a.brightspace_assignment_id, a.name, a.category, a.max_points, a.due_date, a.description, a.created_at, a.updated_at,
       g.id, g.points_earned, g.percentage, g.letter_grade, g.graded_date, g.feedback, g.created_at, g.updated_at
FROM assignments a
LEFT JOIN grades g ON g.assignment_id = a.id`

func (r *PGRepo) GetAssignment(ctx context.Context, userID, assignmentID string) (Assignment, error) {
	query := assignmentSelect + `
JOIN courses c ON c.id = a.course_id
WHERE a.id = $1 AND c.user_id = $2
LIMIT 1`
	assignment, err := scanAssignment(r.DB.QueryRowContext(ctx, query, assignmentID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return assignment, nil
}

func (r *PGRepo) FindAssignmentByBrightspaceID(ctx context.Context, courseID, brightspaceID string) (Assignment, error) {
	query := assignmentSelect + `
WHERE a.course_id = $1 AND a.brightspace_assignment_id = $2
LIMIT 1`
	assignment, err := scanAssignment(r.DB.QueryRowContext(ctx, query, courseID, brightspaceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return assignment, nil
}

func (r *PGRepo) DeleteAssignment(ctx context.Context, courseID, assignmentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1 AND course_id = $2`, assignmentID, courseID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrAssignmentNotFound)
}

func (r *PGRepo) UpsertGrade(ctx context.Context, grade Grade) (Grade, error) {
	const query = `
INSERT INTO grades (id, assignment_id, points_earned, percentage, letter_grade, graded_date, feedback, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (assignment_id) DO UPDATE SET
  points_earned = EXCLUDED.points_earned,
  percentage = EXCLUDED.percentage,
  letter_grade = EXCLUDED.letter_grade,
  graded_date = EXCLUDED.graded_date,
  feedback = EXCLUDED.feedback,
  updated_at = now()
RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		grade.ID,
		grade.AssignmentID,
		nullableFloat(grade.PointsEarned),
		nullableFloat(grade.Percentage),
		nullableString(grade.LetterGrade),
		nullableTime(grade.GradedDate),
		nullableString(grade.Feedback),
	).Scan(&grade.ID, &grade.CreatedAt, &grade.UpdatedAt)
	if err != nil {
		return Grade{}, err
	}
	return grade, nil
}

func (r *PGRepo) DeleteGrade(ctx context.Context, assignmentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM grades WHERE assignment_id = $1`, assignmentID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrGradeNotFound)
}

func (r *PGRepo) listAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	query := assignmentSelect + `
WHERE a.course_id = $1
ORDER BY a.created_at ASC, a.id ASC`
	rows, err := r.DB.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assignment{}
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment)
	}
	return out, rows.Err()
}

func (r *PGRepo) listWeights(ctx context.Context, courseID string) ([]SyllabusWeight, error) {
	const query = `
SELECT id, course_id, category, weight, description, created_at, updated_at
FROM syllabus_weights
WHERE course_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SyllabusWeight{}
	for rows.Next() {
		var w SyllabusWeight
		var description sql.NullString
		if err := rows.Scan(&w.ID, &w.CourseID, &w.Category, &w.Weight, &description, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.Description = description.String
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (Course, error) {
	var course Course
	var brightspaceID sql.NullString
	var semester sql.NullString
	var year sql.NullInt64
	err := row.Scan(
		&course.ID,
		&course.UserID,
		&brightspaceID,
		&course.CourseCode,
		&course.CourseName,
		&semester,
		&year,
		&course.TargetGrade,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return Course{}, err
	}
	course.BrightspaceCourseID = brightspaceID.String
	course.Semester = semester.String
	if year.Valid {
		y := int(year.Int64)
		course.Year = &y
	}
	return course, nil
}

func scanAssignment(row rowScanner) (Assignment, error) {
	var a Assignment
	var brightspaceID sql.NullString
	var dueDate sql.NullTime
	var description sql.NullString
	var gradeID sql.NullString
	var pointsEarned sql.NullFloat64
	var percentage sql.NullFloat64
	var letter sql.NullString
	var gradedDate sql.NullTime
	var feedback sql.NullString
	var gradeCreated sql.NullTime
	var gradeUpdated sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.CourseID,
		&brightspaceID,
		&a.Name,
		&a.Category,
		&a.MaxPoints,
		&dueDate,
		&description,
		&a.CreatedAt,
		&a.UpdatedAt,
		&gradeID,
		&pointsEarned,
		&percentage,
		&letter,
		&gradedDate,
		&feedback,
		&gradeCreated,
		&gradeUpdated,
	)
	if err != nil {
		return Assignment{}, err
	}
	a.BrightspaceAssignmentID = brightspaceID.String
	a.Description = description.String
	if dueDate.Valid {
		a.DueDate = &dueDate.Time
	}
	if gradeID.Valid {
		g := Grade{
			ID:           gradeID.String,
			AssignmentID: a.ID,
			LetterGrade:  letter.String,
			Feedback:     feedback.String,
			CreatedAt:    gradeCreated.Time,
			UpdatedAt:    gradeUpdated.Time,
		}
		if pointsEarned.Valid {
			g.PointsEarned = &pointsEarned.Float64
		}
		if percentage.Valid {
			g.Percentage = &percentage.Float64
		}
		if gradedDate.Valid {
			g.GradedDate = &gradedDate.Time
		}
		a.Grade = &g
	}
	return a, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}

var _ Repo = (*PGRepo)(nil)

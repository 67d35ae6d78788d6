// Package syllabus imports grading weights from uploaded syllabus documents.
package syllabus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"gradesync/internal/courses"
	"gradesync/internal/grades"
	"gradesync/internal/shared/metrics"
	"gradesync/internal/shared/storage/object"
	"gradesync/internal/shared/telemetry"
)

const defaultMaxBytes = 10 << 20

// Service stores syllabus uploads and turns them into course weights.
type Service struct {
	Store   object.ObjectStore
	Courses *courses.Service
	// MaxBytes caps the upload size; zero means 10 MiB.
	MaxBytes int64
}

// NewService constructs a Service.
func NewService(store object.ObjectStore, courseSvc *courses.Service) *Service {
	return &Service{Store: store, Courses: courseSvc}
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return defaultMaxBytes
}

// ImportResult is the outcome of one syllabus upload.
type ImportResult struct {
	FileKey string
	Weights []grades.CategoryWeight
	Total   float64
	Valid   bool
	Applied bool
	Stored  []courses.SyllabusWeight
}

// Import saves the file, extracts weight lines and, when apply is set and the
// weights sum to 100, replaces the course syllabus with them.
func (s *Service) Import(ctx context.Context, userID, courseID, fileName string, r io.Reader, apply bool) (ImportResult, error) {
	course, err := s.Courses.GetCourse(ctx, userID, courseID)
	if err != nil {
		return ImportResult{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes()+1))
	if err != nil {
		return ImportResult{}, fmt.Errorf("read syllabus: %w", err)
	}
	if int64(len(data)) > s.maxBytes() {
		return ImportResult{}, ErrTooLarge
	}

	obj, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		return ImportResult{}, fmt.Errorf("store syllabus course=%s: %w", courseID, err)
	}

	text, err := ExtractText(ctx, data, obj.ContentType, fileName)
	if err != nil {
		return ImportResult{}, err
	}
	if _, err := s.Store.Put(ctx, obj.Key+".extracted.txt", "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		return ImportResult{}, fmt.Errorf("store extracted text key=%s: %w", obj.Key, err)
	}

	weights := ParseWeights(text)
	if len(weights) == 0 {
		return ImportResult{}, ErrNoWeights
	}
	weights = MatchCategories(weights, assignmentCategories(course))
	total, valid := Total(weights)
	metrics.IncSyllabusImport()

	result := ImportResult{FileKey: obj.Key, Weights: weights, Total: total, Valid: valid}
	if apply && valid {
		stored, err := s.Courses.ReplaceWeights(ctx, userID, courseID, weights)
		if err != nil {
			return ImportResult{}, err
		}
		result.Applied = true
		result.Stored = stored
	}

	telemetry.Info("syllabus.import", map[string]any{
		"user_id":    userID,
		"course_id":  courseID,
		"file_key":   obj.Key,
		"size_bytes": obj.SizeBytes,
		"categories": len(weights),
		"total":      total,
		"applied":    result.Applied,
	})
	return result, nil
}

func assignmentCategories(course courses.Course) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, a := range course.Assignments {
		if !seen[a.Category] {
			seen[a.Category] = true
			out = append(out, a.Category)
		}
	}
	for _, w := range course.Weights {
		if !seen[w.Category] {
			seen[w.Category] = true
			out = append(out, w.Category)
		}
	}
	return out
}

package brightspace

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const syntheticAssignmentCount = 5

// SyntheticProvider returns generated course data.
type SyntheticProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSyntheticProvider builds a provider. A nil rng is seeded from the clock; a nil now uses time.Now.
func NewSyntheticProvider(rng *rand.Rand, now func() time.Time) *SyntheticProvider {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &SyntheticProvider{rng: rng, now: now}
}

func (p *SyntheticProvider) Courses(ctx context.Context, userID string) ([]Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	year := p.now().Year()
	return []Course{
		{
			BrightspaceCourseID: "BS001",
			CourseCode:          "CS 3520",
			CourseName:          "Programming in C++",
			Semester:            "Spring",
			Year:                year,
		},
		{
			BrightspaceCourseID: "BS002",
			CourseCode:          "CS 4500",
			CourseName:          "Software Development",
			Semester:            "Spring",
			Year:                year,
		},
	}, nil
}

func (p *SyntheticProvider) Assignments(ctx context.Context, courseRef string) ([]Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.now().UTC()
	out := make([]Assignment, 0, syntheticAssignmentCount)
	for i := 1; i <= syntheticAssignmentCount; i++ {
		due := now.Add(time.Duration(i*7) * 24 * time.Hour)
		out = append(out, Assignment{
			BrightspaceAssignmentID: fmt.Sprintf("HW%d", i),
			Name:                    fmt.Sprintf("Homework %d", i),
			Category:                "Homework",
			MaxPoints:               100,
			DueDate:                 &due,
			Description:             fmt.Sprintf("Assignment %d", i),
		})
	}
	return out, nil
}

func (p *SyntheticProvider) Grades(ctx context.Context, courseRef, userID string) (map[string]Grade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.now().UTC()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Grade, syntheticAssignmentCount)
	for i := 1; i <= syntheticAssignmentCount; i++ {
		graded := now.Add(-time.Duration(1+p.rng.Intn(30)) * 24 * time.Hour)
		out[fmt.Sprintf("HW%d", i)] = Grade{
			PointsEarned: 75 + p.rng.Float64()*25,
			GradedDate:   &graded,
			Feedback:     "Good work!",
		}
	}
	return out, nil
}

var _ Provider = (*SyntheticProvider)(nil)

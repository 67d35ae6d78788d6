// Package grades turns syllabus weights and graded items into course grade metrics.
// Every function is pure and safe for concurrent use; inputs are never modified.
package grades

import "encoding/json"

// CategoryWeight is one syllabus category and its share of the course grade (0-100).
type CategoryWeight struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
}

// GradedItem is an assignment flattened with its grade. A nil PointsEarned means ungraded.
type GradedItem struct {
	Category     string   `json:"category"`
	MaxPoints    float64  `json:"max_points"`
	PointsEarned *float64 `json:"points_earned"`
}

// CategoryResult is one breakdown entry of a course grade.
type CategoryResult struct {
	Category             string   `json:"category"`
	Weight               float64  `json:"weight"`
	Average              *float64 `json:"average"`
	WeightedContribution *float64 `json:"weighted_contribution"`
}

// CourseGradeResult is the aggregated grade of a course.
// Callers must check Error before trusting the numeric fields.
type CourseGradeResult struct {
	FinalGrade           *float64         `json:"final_grade"`
	ProjectedFinalGrade  *float64         `json:"projected_final_grade"`
	LetterGrade          *string          `json:"letter_grade"`
	Breakdown            []CategoryResult `json:"breakdown"`
	TotalWeightApplied   float64          `json:"total_weight_applied"`
	CompletionPercentage float64          `json:"completion_percentage"`
	Error                string           `json:"error,omitempty"`
}

// HasError reports whether the weights failed validation.
func (r CourseGradeResult) HasError() bool {
	return r.Error != ""
}

type courseGradeError struct {
	FinalGrade  *float64         `json:"final_grade"`
	LetterGrade *string          `json:"letter_grade"`
	Breakdown   []CategoryResult `json:"breakdown"`
	Error       string           `json:"error"`
}

// MarshalJSON emits the reduced error shape when Error is set.
func (r CourseGradeResult) MarshalJSON() ([]byte, error) {
	if r.HasError() {
		breakdown := r.Breakdown
		if breakdown == nil {
			breakdown = []CategoryResult{}
		}
		return json.Marshal(courseGradeError{Breakdown: breakdown, Error: r.Error})
	}
	type plain CourseGradeResult
	out := plain(r)
	if out.Breakdown == nil {
		out.Breakdown = []CategoryResult{}
	}
	return json.Marshal(out)
}

// GradeNeededResult answers what average the remaining work needs to reach a target.
type GradeNeededResult struct {
	TargetGrade     float64  `json:"target_grade"`
	CurrentGrade    float64  `json:"current_grade"`
	RemainingWeight float64  `json:"remaining_weight"`
	NeededAverage   *float64 `json:"needed_average"`
	IsAchievable    bool     `json:"is_achievable"`
}

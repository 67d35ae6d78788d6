package grades

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	fullWeight      = 100.0
	weightTolerance = 0.01
)

const errNoWeights = "No syllabus weights defined for this course"

// CategoryAverage returns the percentage earned across the graded items of a category.
// It returns nil when the category has no graded items or their max points sum to zero.
func CategoryAverage(items []GradedItem, category string) *float64 {
	var earned, possible float64
	graded := 0
	for _, item := range items {
		if item.Category != category || item.PointsEarned == nil {
			continue
		}
		earned += *item.PointsEarned
		possible += item.MaxPoints
		graded++
	}
	if graded == 0 || possible == 0 {
		return nil
	}
	return ptr(earned / possible * 100)
}

// CourseGrade aggregates graded items against the syllabus weights.
// Weight problems are reported through Error on the returned result.
func CourseGrade(weights []CategoryWeight, items []GradedItem) CourseGradeResult {
	if len(weights) == 0 {
		return errorResult(errNoWeights)
	}
	total := 0.0
	for _, w := range weights {
		total += w.Weight
	}
	if math.Abs(total-fullWeight) > weightTolerance {
		return errorResult(fmt.Sprintf("Syllabus weights must sum to 100%% (currently %s%%)", formatTotal(total)))
	}

	breakdown := make([]CategoryResult, 0, len(weights))
	var weighted, applied float64
	for _, w := range weights {
		entry := CategoryResult{Category: w.Category, Weight: w.Weight}
		if avg := CategoryAverage(items, w.Category); avg != nil {
			contribution := *avg * w.Weight / 100
			weighted += contribution
			applied += w.Weight
			entry.Average = avg
			entry.WeightedContribution = ptr(contribution)
		}
		breakdown = append(breakdown, entry)
	}

	var final, projected *float64
	if applied > 0 {
		final = ptr(weighted)
		if applied < fullWeight {
			projected = ptr(weighted / applied * 100)
		} else {
			projected = ptr(weighted)
		}
	}

	return CourseGradeResult{
		FinalGrade:           roundPtr(final),
		ProjectedFinalGrade:  roundPtr(projected),
		LetterGrade:          LetterGrade(projected),
		Breakdown:            breakdown,
		TotalWeightApplied:   applied,
		CompletionPercentage: Round2(applied),
	}
}

// GradeNeeded reports the average required on the remaining work to reach target.
func GradeNeeded(result CourseGradeResult, target float64) GradeNeededResult {
	if result.FinalGrade == nil {
		// Nothing banked yet; treated as achievable even when target exceeds 100.
		return GradeNeededResult{
			TargetGrade:     target,
			CurrentGrade:    0,
			RemainingWeight: fullWeight,
			NeededAverage:   ptr(target),
			IsAchievable:    true,
		}
	}

	final := *result.FinalGrade
	remaining := fullWeight - result.TotalWeightApplied
	if remaining <= 0 {
		return GradeNeededResult{
			TargetGrade:     target,
			CurrentGrade:    Round2(final),
			RemainingWeight: 0,
			NeededAverage:   nil,
			IsAchievable:    final >= target,
		}
	}

	needed := (target - final) / remaining * 100
	return GradeNeededResult{
		TargetGrade:     target,
		CurrentGrade:    Round2(final),
		RemainingWeight: remaining,
		NeededAverage:   ptr(Round2(needed)),
		IsAchievable:    needed <= 100,
	}
}

// Round2 rounds to two decimal places using the exact binary value of v.
// Exact ties go to the even digit, so 79.125 becomes 79.12 while 0.005 (stored just above the tie) becomes 0.01.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil || r == 0 {
		return 0
	}
	return r
}

func errorResult(msg string) CourseGradeResult {
	return CourseGradeResult{Breakdown: []CategoryResult{}, Error: msg}
}

// formatTotal renders a weight total as the shortest round-trip decimal, always with a
// fractional part ("90.0", "100.5") and in exponent form outside [1e-4, 1e16).
func formatTotal(total float64) string {
	if abs := math.Abs(total); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(total, 'g', -1, 64)
	}
	s := strconv.FormatFloat(total, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(Round2(*v))
}

func ptr[T any](v T) *T {
	return &v
}

package grades

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func earned(v float64) *float64 { return &v }

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func standardWeights() []CategoryWeight {
	return []CategoryWeight{
		{Category: "Homework", Weight: 30},
		{Category: "Exam", Weight: 70},
	}
}

func TestCategoryAverage(t *testing.T) {
	items := []GradedItem{
		{Category: "Homework", MaxPoints: 100, PointsEarned: earned(90)},
		{Category: "Homework", MaxPoints: 50, PointsEarned: earned(45)},
		{Category: "Homework", MaxPoints: 100, PointsEarned: nil},
		{Category: "Exam", MaxPoints: 200, PointsEarned: nil},
		{Category: "Quiz", MaxPoints: 0, PointsEarned: earned(0)},
	}

	cases := []struct {
		name     string
		category string
		want     *float64
	}{
		{name: "ignores ungraded items", category: "Homework", want: earned(90)},
		{name: "only ungraded items", category: "Exam", want: nil},
		{name: "zero max points", category: "Quiz", want: nil},
		{name: "unknown category", category: "Project", want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CategoryAverage(items, tc.category)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil average, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %v, got nil", *tc.want)
			}
			if !approxEqual(*got, *tc.want) {
				t.Fatalf("expected %v, got %v", *tc.want, *got)
			}
		})
	}
}

func TestCategoryAverageZeroScoreIsNotNil(t *testing.T) {
	items := []GradedItem{{Category: "Exam", MaxPoints: 100, PointsEarned: earned(0)}}
	got := CategoryAverage(items, "Exam")
	if got == nil {
		t.Fatalf("expected 0 average, got nil")
	}
	if *got != 0 {
		t.Fatalf("expected 0, got %v", *got)
	}
}

func TestCourseGradeFullyGraded(t *testing.T) {
	items := []GradedItem{
		{Category: "Homework", MaxPoints: 100, PointsEarned: earned(90)},
		{Category: "Exam", MaxPoints: 200, PointsEarned: earned(150)},
	}

	result := CourseGrade(standardWeights(), items)
	if result.HasError() {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.FinalGrade == nil || *result.FinalGrade != 79.5 {
		t.Fatalf("expected final_grade 79.5, got %v", result.FinalGrade)
	}
	if result.ProjectedFinalGrade == nil || *result.ProjectedFinalGrade != 79.5 {
		t.Fatalf("expected projected_final_grade 79.5, got %v", result.ProjectedFinalGrade)
	}
	if result.LetterGrade == nil || *result.LetterGrade != "C+" {
		t.Fatalf("expected letter C+, got %v", result.LetterGrade)
	}
	if result.TotalWeightApplied != 100 {
		t.Fatalf("expected total_weight_applied 100, got %v", result.TotalWeightApplied)
	}
	if result.CompletionPercentage != 100 {
		t.Fatalf("expected completion 100, got %v", result.CompletionPercentage)
	}
	if len(result.Breakdown) != 2 {
		t.Fatalf("expected 2 breakdown entries, got %d", len(result.Breakdown))
	}
	exam := result.Breakdown[1]
	if exam.Category != "Exam" || exam.Average == nil || !approxEqual(*exam.Average, 75) {
		t.Fatalf("unexpected exam entry: %+v", exam)
	}
	if exam.WeightedContribution == nil || !approxEqual(*exam.WeightedContribution, 52.5) {
		t.Fatalf("expected exam contribution 52.5, got %v", exam.WeightedContribution)
	}
}

func TestCourseGradePartiallyGraded(t *testing.T) {
	items := []GradedItem{
		{Category: "Homework", MaxPoints: 100, PointsEarned: earned(90)},
		{Category: "Exam", MaxPoints: 200, PointsEarned: nil},
	}

	result := CourseGrade(standardWeights(), items)
	if result.HasError() {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.TotalWeightApplied != 30 {
		t.Fatalf("expected total_weight_applied 30, got %v", result.TotalWeightApplied)
	}
	if result.FinalGrade == nil || *result.FinalGrade != 27 {
		t.Fatalf("expected final_grade 27, got %v", result.FinalGrade)
	}
	if result.ProjectedFinalGrade == nil || *result.ProjectedFinalGrade != 90 {
		t.Fatalf("expected projected_final_grade 90, got %v", result.ProjectedFinalGrade)
	}
	if result.LetterGrade == nil || *result.LetterGrade != "A-" {
		t.Fatalf("expected letter A-, got %v", result.LetterGrade)
	}
	if result.CompletionPercentage != 30 {
		t.Fatalf("expected completion 30, got %v", result.CompletionPercentage)
	}
	exam := result.Breakdown[1]
	if exam.Average != nil || exam.WeightedContribution != nil {
		t.Fatalf("expected null exam entry, got %+v", exam)
	}
}

func TestCourseGradeNothingGraded(t *testing.T) {
	items := []GradedItem{{Category: "Homework", MaxPoints: 100}}

	result := CourseGrade(standardWeights(), items)
	if result.HasError() {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.FinalGrade != nil || result.ProjectedFinalGrade != nil || result.LetterGrade != nil {
		t.Fatalf("expected null grades, got %+v", result)
	}
	if len(result.Breakdown) != 2 {
		t.Fatalf("expected breakdown for every category, got %d", len(result.Breakdown))
	}
	if result.CompletionPercentage != 0 {
		t.Fatalf("expected completion 0, got %v", result.CompletionPercentage)
	}
}

func TestCourseGradeBreakdownFollowsWeightOrder(t *testing.T) {
	weights := []CategoryWeight{
		{Category: "Project", Weight: 10},
		{Category: "Exam", Weight: 40},
		{Category: "Quiz", Weight: 20},
		{Category: "Homework", Weight: 30},
	}
	result := CourseGrade(weights, nil)
	for i, w := range weights {
		if result.Breakdown[i].Category != w.Category {
			t.Fatalf("breakdown[%d]: expected %s, got %s", i, w.Category, result.Breakdown[i].Category)
		}
	}
}

func TestCourseGradeWeightPreconditions(t *testing.T) {
	cases := []struct {
		name    string
		weights []CategoryWeight
		wantErr string
	}{
		{name: "empty", weights: nil, wantErr: "No syllabus weights defined for this course"},
		{
			name:    "under",
			weights: []CategoryWeight{{Category: "Homework", Weight: 30}, {Category: "Exam", Weight: 60}},
			wantErr: "Syllabus weights must sum to 100% (currently 90.0%)",
		},
		{
			name:    "over",
			weights: []CategoryWeight{{Category: "Homework", Weight: 50.5}, {Category: "Exam", Weight: 50}},
			wantErr: "Syllabus weights must sum to 100% (currently 100.5%)",
		},
		{
			name:    "integral total over",
			weights: []CategoryWeight{{Category: "Homework", Weight: 60}, {Category: "Exam", Weight: 60}},
			wantErr: "Syllabus weights must sum to 100% (currently 120.0%)",
		},
		{
			name:    "float sum keeps full precision",
			weights: []CategoryWeight{{Category: "Homework", Weight: 33.3}, {Category: "Quiz", Weight: 33.3}, {Category: "Exam", Weight: 33.3}},
			wantErr: "Syllabus weights must sum to 100% (currently 99.89999999999999%)",
		},
		{
			name:    "just outside tolerance",
			weights: []CategoryWeight{{Category: "Homework", Weight: 99.98}},
			wantErr: "Syllabus weights must sum to 100% (currently 99.98%)",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CourseGrade(tc.weights, nil)
			if result.Error != tc.wantErr {
				t.Fatalf("expected error %q, got %q", tc.wantErr, result.Error)
			}
			if result.FinalGrade != nil || result.LetterGrade != nil {
				t.Fatalf("expected null grades on error")
			}
			if result.Breakdown == nil || len(result.Breakdown) != 0 {
				t.Fatalf("expected empty breakdown on error, got %v", result.Breakdown)
			}
		})
	}
}

func TestCourseGradeWithinTolerance(t *testing.T) {
	weights := []CategoryWeight{{Category: "Homework", Weight: 33.333}, {Category: "Exam", Weight: 66.666}}
	result := CourseGrade(weights, nil)
	if result.HasError() {
		t.Fatalf("expected weights within tolerance to pass, got %q", result.Error)
	}
}

func TestCourseGradeIsDeterministic(t *testing.T) {
	items := []GradedItem{
		{Category: "Homework", MaxPoints: 30, PointsEarned: earned(17)},
		{Category: "Exam", MaxPoints: 90, PointsEarned: earned(61.5)},
	}
	snapshot := append([]GradedItem(nil), items...)

	first := CourseGrade(standardWeights(), items)
	second := CourseGrade(standardWeights(), items)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if !reflect.DeepEqual(items, snapshot) {
		t.Fatalf("inputs were modified")
	}
}

func TestCourseGradeErrorJSONShape(t *testing.T) {
	result := CourseGrade(nil, nil)
	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"final_grade":  nil,
		"letter_grade": nil,
		"breakdown":    []any{},
		"error":        "No syllabus weights defined for this course",
	}
	if !reflect.DeepEqual(body, want) {
		t.Fatalf("unexpected error body: %s", payload)
	}
}

func TestCourseGradeJSONOmitsErrorKey(t *testing.T) {
	items := []GradedItem{{Category: "Homework", MaxPoints: 100, PointsEarned: earned(90)}}
	payload, err := json.Marshal(CourseGrade(standardWeights(), items))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("expected no error key, got %s", payload)
	}
	for _, key := range []string{"final_grade", "projected_final_grade", "letter_grade", "breakdown", "total_weight_applied", "completion_percentage"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("missing key %q in %s", key, payload)
		}
	}
}

func TestGradeNeededPartial(t *testing.T) {
	result := CourseGradeResult{FinalGrade: earned(27), TotalWeightApplied: 30}
	got := GradeNeeded(result, 85)

	if got.RemainingWeight != 70 {
		t.Fatalf("expected remaining 70, got %v", got.RemainingWeight)
	}
	if got.NeededAverage == nil || *got.NeededAverage != 82.86 {
		t.Fatalf("expected needed 82.86, got %v", got.NeededAverage)
	}
	if !got.IsAchievable {
		t.Fatalf("expected achievable")
	}
	if got.CurrentGrade != 27 || got.TargetGrade != 85 {
		t.Fatalf("unexpected current/target: %+v", got)
	}
}

func TestGradeNeededUnreachable(t *testing.T) {
	result := CourseGradeResult{FinalGrade: earned(20), TotalWeightApplied: 80}
	got := GradeNeeded(result, 85)
	if got.NeededAverage == nil || *got.NeededAverage != 325 {
		t.Fatalf("expected needed 325, got %v", got.NeededAverage)
	}
	if got.IsAchievable {
		t.Fatalf("expected not achievable")
	}
}

func TestGradeNeededAlreadyExceeded(t *testing.T) {
	result := CourseGradeResult{FinalGrade: earned(60), TotalWeightApplied: 60}
	got := GradeNeeded(result, 50)
	if got.NeededAverage == nil || *got.NeededAverage != -25 {
		t.Fatalf("expected needed -25, got %v", got.NeededAverage)
	}
	if !got.IsAchievable {
		t.Fatalf("expected negative need to be achievable")
	}
}

func TestGradeNeededFullyGraded(t *testing.T) {
	result := CourseGradeResult{FinalGrade: earned(70), TotalWeightApplied: 100}

	below := GradeNeeded(result, 85)
	if below.RemainingWeight != 0 || below.NeededAverage != nil || below.IsAchievable {
		t.Fatalf("unexpected result below target: %+v", below)
	}

	met := GradeNeeded(result, 70)
	if !met.IsAchievable {
		t.Fatalf("expected target equal to final grade to be achievable")
	}
}

func TestGradeNeededNothingGraded(t *testing.T) {
	got := GradeNeeded(CourseGradeResult{}, 85)
	if got.CurrentGrade != 0 || got.RemainingWeight != 100 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.NeededAverage == nil || *got.NeededAverage != 85 {
		t.Fatalf("expected needed to equal target, got %v", got.NeededAverage)
	}
	if !got.IsAchievable {
		t.Fatalf("expected achievable")
	}
}

// A target above 100 with nothing graded is still reported achievable.
func TestGradeNeededNothingGradedImpossibleTarget(t *testing.T) {
	got := GradeNeeded(CourseGradeResult{}, 120)
	if !got.IsAchievable {
		t.Fatalf("expected ungraded course to report achievable for any target")
	}
	if got.NeededAverage == nil || *got.NeededAverage != 120 {
		t.Fatalf("expected needed 120, got %v", got.NeededAverage)
	}
}

func TestGradeNeededFromCourseGrade(t *testing.T) {
	items := []GradedItem{{Category: "Homework", MaxPoints: 100, PointsEarned: earned(90)}}
	got := GradeNeeded(CourseGrade(standardWeights(), items), 85)
	if got.NeededAverage == nil || *got.NeededAverage != 82.86 {
		t.Fatalf("expected needed 82.86, got %v", got.NeededAverage)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		82.857142: 82.86,
		79.5:      79.5,
		0.005:     0.01,
		-25.004:   -25,
		90.000001: 90,
		79.125:    79.12,
		79.375:    79.38,
		0.125:     0.12,
		0.015:     0.01,
		2.675:     2.67,
		-0.001:    0,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v): expected %v, got %v", in, want, got)
		}
	}
}

func TestCourseGradeExactTieRoundsToEven(t *testing.T) {
	weights := []CategoryWeight{{Category: "Exam", Weight: 100}}
	items := []GradedItem{{Category: "Exam", MaxPoints: 100, PointsEarned: earned(79.125)}}

	result := CourseGrade(weights, items)

	if result.FinalGrade == nil || *result.FinalGrade != 79.12 {
		t.Fatalf("expected final 79.12, got %v", result.FinalGrade)
	}
	if result.ProjectedFinalGrade == nil || *result.ProjectedFinalGrade != 79.12 {
		t.Fatalf("expected projected 79.12, got %v", result.ProjectedFinalGrade)
	}
}

func TestGradeNeededExactTieRoundsToEven(t *testing.T) {
	// needed = (20.5-20)/80*100 = 0.625 exactly.
	final := 20.0
	result := CourseGradeResult{FinalGrade: &final, TotalWeightApplied: 20}

	got := GradeNeeded(result, 20.5)

	if got.NeededAverage == nil || *got.NeededAverage != 0.62 {
		t.Fatalf("expected needed 0.62, got %v", got.NeededAverage)
	}
	if !got.IsAchievable || got.RemainingWeight != 80 {
		t.Fatalf("unexpected result %+v", got)
	}
}

package syllabus

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"gradesync/internal/grades"
)

// weightLine matches "Homework ..... 30%", "Exams: 40 %" or "- Final Project - 12.5%".
var weightLine = regexp.MustCompile(`^[\s\-*•]*([A-Za-z][A-Za-z &/()'-]*?)[\s.:\-–]*(\d{1,3}(?:\.\d+)?)\s*%`)

// ParseWeights extracts category weights from syllabus text in document order.
// The first line naming a category wins; later mentions are ignored.
func ParseWeights(text string) []grades.CategoryWeight {
	out := []grades.CategoryWeight{}
	seen := map[string]bool{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := weightLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		category := strings.Join(strings.Fields(m[1]), " ")
		if len(category) < 3 {
			continue
		}
		weight, err := strconv.ParseFloat(m[2], 64)
		if err != nil || weight > 100 {
			continue
		}
		key := strings.ToLower(category)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, grades.CategoryWeight{Category: category, Weight: weight})
	}
	return out
}

// Total sums the weights and reports whether they satisfy the grade engine's tolerance.
func Total(weights []grades.CategoryWeight) (float64, bool) {
	var sum float64
	for _, w := range weights {
		sum += w.Weight
	}
	valid := len(weights) > 0 && sum >= 100-weightTolerance && sum <= 100+weightTolerance
	return grades.Round2(sum), valid
}

const weightTolerance = 0.01

// MatchCategories renames parsed categories to the course's existing assignment
// categories when they differ only by case or a plural "s".
func MatchCategories(weights []grades.CategoryWeight, known []string) []grades.CategoryWeight {
	index := make(map[string]string, len(known))
	for _, k := range known {
		index[categoryKey(k)] = k
	}
	out := make([]grades.CategoryWeight, 0, len(weights))
	for _, w := range weights {
		if existing, ok := index[categoryKey(w.Category)]; ok {
			w.Category = existing
		}
		out = append(out, w)
	}
	return out
}

func categoryKey(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if len(key) > 3 && strings.HasSuffix(key, "zes") {
		return strings.TrimSuffix(key, "zes")
	}
	return strings.TrimSuffix(key, "s")
}

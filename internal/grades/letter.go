package grades

type letterBand struct {
	min    float64
	letter string
}

// Bands are closed-open: [min, previous min).
var letterBands = []letterBand{
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

const failingLetter = "F"

// LetterGrade maps a percentage to its letter grade. A nil percentage has no letter.
func LetterGrade(percentage *float64) *string {
	if percentage == nil {
		return nil
	}
	return ptr(Letter(*percentage))
}

// Letter maps a percentage to its letter grade.
func Letter(percentage float64) string {
	for _, band := range letterBands {
		if percentage >= band.min {
			return band.letter
		}
	}
	return failingLetter
}

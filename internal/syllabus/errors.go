package syllabus

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported syllabus file type")
	ErrTooLarge        = errors.New("syllabus file too large")
	ErrNoWeights       = errors.New("no grade weights found in syllabus")
)

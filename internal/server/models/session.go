package models

import (
	"slices"
	"time"
)

// StudySession tracks a linear pass over a job's flashcards. At most one
// session exists per job. CurrentIndex is a 0-based pointer into the ordered
// flashcard sequence and always stays within [0, card count).
type StudySession struct {
	ID           string
	JobID        string
	CurrentIndex int
	Learned      []int
	NeedsReview  []int
	StartedAt    time.Time
	CompletedAt  *time.Time
	StudySeconds int64
}

// AddIndex inserts i into a sorted index set, ignoring duplicates.
func AddIndex(set []int, i int) []int {
	pos, found := slices.BinarySearch(set, i)
	if found {
		return set
	}
	return slices.Insert(set, pos, i)
}

// RemoveIndex removes i from a sorted index set if present.
func RemoveIndex(set []int, i int) []int {
	pos, found := slices.BinarySearch(set, i)
	if !found {
		return set
	}
	return slices.Delete(set, pos, pos+1)
}

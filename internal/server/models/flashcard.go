package models

import "time"

// Flashcard is one generated question/answer pair belonging to a job.
// Position is the fixed display ordinal among siblings; a job's flashcards
// always form a contiguous sequence 0..N-1. Flashcards are written in a
// single batch at the end of a successful run and never mutated.
type Flashcard struct {
	ID        string
	JobID     string
	Question  string
	Answer    string
	Position  int
	CreatedAt time.Time
}

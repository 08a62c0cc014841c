package pipeline

import "fmt"

// StageError is a stage-aware pipeline failure. Its text is what polling
// clients see as the job's failure reason, so it must stay human-readable.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageFailure(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

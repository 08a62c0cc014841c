// Package models defines server-side data models for video processing jobs,
// generated flashcards, and study sessions.
package models

import "time"

// JobStatus enumerates the lifecycle states of a processing job.
type JobStatus string

const (
	StatusUploading  JobStatus = "uploading"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether a job in this status will never change again.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition enforces the allowed status edges:
// uploading -> processing -> {completed | failed}.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case StatusUploading:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// SourceKind distinguishes the two mutually exclusive job source variants.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
)

// Source describes where the video for a job comes from. For file sources
// Path/Size/MimeType are set; for URL sources only URL is set.
type Source struct {
	Kind     SourceKind
	Path     string
	Size     int64
	MimeType string
	URL      string
}

// Job is one video's lifecycle record through the pipeline.
//
// Status moves monotonically forward; Progress is meaningful only while
// Status is processing and never decreases within a run. Transcript is set
// exactly once. The pipeline is the only writer after creation.
type Job struct {
	ID            string
	OwnerID       string
	Source        Source
	Status        JobStatus
	Progress      int
	Transcript    string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

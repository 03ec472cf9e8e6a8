package models

import "time"

// GenerationStatus captures the lifecycle of an asynchronous generation.
type GenerationStatus string

const (
	GenerationStatusQueued   GenerationStatus = "QUEUED"
	GenerationStatusRunning  GenerationStatus = "RUNNING"
	GenerationStatusFinished GenerationStatus = "FINISHED"
	GenerationStatusFailed   GenerationStatus = "FAILED"
)

// GenerationJob tracks one queued generation request.
type GenerationJob struct {
	ID           string           `json:"id"`
	Status       GenerationStatus `json:"status"`
	TimetableID  *string          `json:"timetableId,omitempty"`
	ErrorMessage *string          `json:"error,omitempty"`
	CreatedBy    string           `json:"createdBy,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	StartedAt    *time.Time       `json:"startedAt,omitempty"`
	FinishedAt   *time.Time       `json:"finishedAt,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (j GenerationJob) Done() bool {
	return j.Status == GenerationStatusFinished || j.Status == GenerationStatusFailed
}

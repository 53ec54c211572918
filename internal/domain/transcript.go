package domain

import "time"

// TranscriptStatus tracks generation of a transcript version by the pipeline.
type TranscriptStatus string

const (
	TranscriptStatusQueued     TranscriptStatus = "QUEUED"
	TranscriptStatusProcessing TranscriptStatus = "PROCESSING"
	TranscriptStatusCompleted  TranscriptStatus = "COMPLETED"
	TranscriptStatusFailed     TranscriptStatus = "FAILED"
	TranscriptStatusRejected   TranscriptStatus = "REJECTED"
)

// Transcript is one generated transcript version for a media item. Multiple
// versions may exist; at most one carries IsCurrent. UserApproved records the
// owner's review, DesiredVisibility the visibility they asked for on publish.
type Transcript struct {
	ID                string
	MediaID           string
	Text              string
	Summary           string
	Keywords          []string
	SRTKey            string
	VTTKey            string
	Status            TranscriptStatus
	ErrorMessage      string
	IsCurrent         bool
	UserApproved      bool
	DesiredVisibility *Visibility
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

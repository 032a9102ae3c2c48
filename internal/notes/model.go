package notes

import "time"

// Image analysis statuses. A record starts NOT_RECOGNIZED and moves forward
// only; DONE and ERROR are terminal absent a new result message.
const (
	StatusNotRecognized = "NOT_RECOGNIZED"
	StatusProcessing    = "PROCESSING"
	StatusDone          = "DONE"
	StatusError         = "ERROR"
)

// Note is a member-owned note holding zero or more handwritten-note images.
type Note struct {
	ID        string
	MemberID  string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteImage tracks one uploaded image through the recognition pipeline.
// RecognizedText is non-nil exactly when Status is DONE.
type NoteImage struct {
	ID             string
	NoteID         string
	StorageKey     string
	FileName       string
	Status         string
	RecognizedText *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidStatus reports whether s is a known image status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNotRecognized, StatusProcessing, StatusDone, StatusError:
		return true
	}
	return false
}

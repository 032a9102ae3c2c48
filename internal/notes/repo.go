package notes

import "context"

// Repo defines persistence operations for notes and their images.
//
// UpdateImageResult writes recognized text and status in a single atomic
// step; no reader may observe a DONE image without text or text on a
// non-DONE image. It returns ErrNotFound when the image does not exist and
// ErrInvalidResult when text and status disagree.
type Repo interface {
	CreateNote(ctx context.Context, note Note) error
	GetNote(ctx context.Context, noteID string) (Note, error)
	ListNotesByMember(ctx context.Context, memberID string) ([]Note, error)
	DeleteNote(ctx context.Context, noteID string) error

	CreateImage(ctx context.Context, img NoteImage) error
	GetImage(ctx context.Context, imageID string) (NoteImage, error)
	ListImagesByNote(ctx context.Context, noteID string) ([]NoteImage, error)
	UpdateImageResult(ctx context.Context, imageID string, text *string, status string) error
}

// validateResult guards the text/status pairing shared by both repo
// implementations.
func validateResult(text *string, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidResult
	}
	if (status == StatusDone) != (text != nil) {
		return ErrInvalidResult
	}
	return nil
}

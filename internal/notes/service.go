package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"note-backend/internal/members"
	"note-backend/internal/shared/metrics"
	"note-backend/internal/shared/storage/object"
	"note-backend/internal/shared/telemetry"
)

const dispatchDeadline = time.Minute

// Dispatcher submits one stored image for recognition. Implemented by the
// OCR dispatcher; faked in tests.
type Dispatcher interface {
	Submit(ctx context.Context, noteImageID, fileName string, image []byte) error
}

// Service contains business logic for notes and the upload half of the
// recognition pipeline.
type Service struct {
	Repo       Repo
	Members    members.Repo
	Store      object.ObjectStore
	Dispatcher Dispatcher
}

// ImageUpload carries one uploaded file into Create.
type ImageUpload struct {
	FileName string
	Reader   io.Reader
}

// Create persists the note and every image, then fires recognition
// submissions without waiting for them. Each image gets exactly one record
// in status NOT_RECOGNIZED before its dispatch is attempted; a dispatch
// failure is logged and leaves the record untouched.
func (s *Service) Create(ctx context.Context, memberID, title, content string, images []ImageUpload) (Note, []NoteImage, error) {
	if strings.TrimSpace(memberID) == "" || strings.TrimSpace(title) == "" {
		return Note{}, nil, ErrInvalidInput
	}

	if err := s.checkMember(ctx, memberID); err != nil {
		return Note{}, nil, err
	}

	note := Note{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Title:     strings.TrimSpace(title),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	note.UpdatedAt = note.CreatedAt
	if err := s.Repo.CreateNote(ctx, note); err != nil {
		return Note{}, nil, err
	}

	var imgs []NoteImage
	for _, upload := range images {
		storageKey, _, _, err := s.Store.Save(ctx, memberID, note.ID, upload.FileName, upload.Reader)
		if err != nil {
			return Note{}, nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}

		img := NoteImage{
			ID:         uuid.NewString(),
			NoteID:     note.ID,
			StorageKey: storageKey,
			FileName:   upload.FileName,
			Status:     StatusNotRecognized,
			CreatedAt:  time.Now().UTC(),
		}
		img.UpdatedAt = img.CreatedAt
		if err := s.Repo.CreateImage(ctx, img); err != nil {
			return Note{}, nil, err
		}
		imgs = append(imgs, img)

		s.dispatchAsync(img)
	}

	return note, imgs, nil
}

// Detail returns a note with its images.
func (s *Service) Detail(ctx context.Context, noteID string) (Note, []NoteImage, error) {
	if strings.TrimSpace(noteID) == "" {
		return Note{}, nil, ErrInvalidInput
	}
	note, err := s.Repo.GetNote(ctx, noteID)
	if err != nil {
		return Note{}, nil, err
	}
	imgs, err := s.Repo.ListImagesByNote(ctx, noteID)
	if err != nil {
		return Note{}, nil, err
	}
	return note, imgs, nil
}

// List returns a member's notes, newest first.
func (s *Service) List(ctx context.Context, memberID string) ([]Note, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListNotesByMember(ctx, memberID)
}

// Delete removes a note and all of its images regardless of their analysis
// status. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, noteID, memberID string) error {
	note, err := s.Repo.GetNote(ctx, noteID)
	if err != nil {
		return err
	}
	if note.MemberID != memberID {
		return ErrForbidden
	}
	return s.Repo.DeleteNote(ctx, noteID)
}

// OpenImage streams a note image's stored bytes. The image must belong to
// the given note.
func (s *Service) OpenImage(ctx context.Context, noteID, imageID string) (io.ReadCloser, error) {
	img, err := s.Repo.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img.NoteID != noteID {
		return nil, ErrNotFound
	}
	return s.Store.Open(ctx, img.StorageKey)
}

func (s *Service) checkMember(ctx context.Context, memberID string) error {
	// Guest identities are not persisted; only real members are verified.
	if s.Members == nil || strings.HasPrefix(memberID, "guest:") {
		return nil
	}
	if _, err := s.Members.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, members.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// dispatchAsync submits the image for recognition on a detached goroutine.
// The upload response never waits on it; the outcome is observed through
// logs and metrics only, and the eventual result arrives on the queue.
func (s *Service) dispatchAsync(img NoteImage) {
	if s.Dispatcher == nil {
		telemetry.Warn("dispatch.skipped", map[string]any{
			"note_image_id": img.ID,
			"reason":        "dispatcher not configured",
		})
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				telemetry.Error("dispatch.panic", map[string]any{
					"note_image_id": img.ID,
					"error":         fmt.Sprint(r),
				})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchDeadline)
		defer cancel()

		rc, err := s.Store.Open(ctx, img.StorageKey)
		if err != nil {
			s.logDispatchFailure(img, fmt.Errorf("open stored image: %w", err))
			return
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			s.logDispatchFailure(img, fmt.Errorf("read stored image: %w", err))
			return
		}

		if err := s.Dispatcher.Submit(ctx, img.ID, img.FileName, data); err != nil {
			s.logDispatchFailure(img, err)
			return
		}

		metrics.IncImagesSubmitted()
		telemetry.Info("dispatch.submitted", map[string]any{
			"note_image_id": img.ID,
			"note_id":       img.NoteID,
		})
	}()
}

// A failed submission does not roll back the record or the stored bytes;
// the record stays NOT_RECOGNIZED until an external retry or cleanup.
func (s *Service) logDispatchFailure(img NoteImage, err error) {
	metrics.IncDispatchFailed()
	telemetry.Error("dispatch.failed", map[string]any{
		"note_image_id": img.ID,
		"note_id":       img.NoteID,
		"error":         err.Error(),
	})
}

package notes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo used when no database
// is configured (dev) and in tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	notes  map[string]Note
	images map[string]NoteImage
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		notes:  make(map[string]Note),
		images: make(map[string]NoteImage),
	}
}

// CreateNote stores a note.
func (r *MemoryRepo) CreateNote(ctx context.Context, note Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.ID] = note
	return nil
}

// GetNote returns a note by ID.
func (r *MemoryRepo) GetNote(ctx context.Context, noteID string) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[noteID]
	if !ok {
		return Note{}, ErrNotFound
	}
	return note, nil
}

// ListNotesByMember returns a member's notes ordered newest-first.
func (r *MemoryRepo) ListNotesByMember(ctx context.Context, memberID string) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Note
	for _, note := range r.notes {
		if note.MemberID == memberID {
			out = append(out, note)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteNote removes a note and all of its images, at any image status.
func (r *MemoryRepo) DeleteNote(ctx context.Context, noteID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[noteID]; !ok {
		return ErrNotFound
	}
	delete(r.notes, noteID)
	for id, img := range r.images {
		if img.NoteID == noteID {
			delete(r.images, id)
		}
	}
	return nil
}

// CreateImage stores an image record.
func (r *MemoryRepo) CreateImage(ctx context.Context, img NoteImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[img.ID] = img
	return nil
}

// GetImage returns an image record by ID.
func (r *MemoryRepo) GetImage(ctx context.Context, imageID string) (NoteImage, error) {
	if err := ctx.Err(); err != nil {
		return NoteImage{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.images[imageID]
	if !ok {
		return NoteImage{}, ErrNotFound
	}
	return img, nil
}

// ListImagesByNote returns a note's images in upload order.
func (r *MemoryRepo) ListImagesByNote(ctx context.Context, noteID string) ([]NoteImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []NoteImage
	for _, img := range r.images {
		if img.NoteID == noteID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateImageResult writes text and status under the lock so readers never
// see a torn pair. Last write wins for duplicate deliveries.
func (r *MemoryRepo) UpdateImageResult(ctx context.Context, imageID string, text *string, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateResult(text, status); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[imageID]
	if !ok {
		return ErrNotFound
	}
	img.RecognizedText = text
	img.Status = status
	img.UpdatedAt = time.Now().UTC()
	r.images[imageID] = img
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

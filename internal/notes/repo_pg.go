package notes

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateNote inserts a new note.
func (r *PGRepo) CreateNote(ctx context.Context, note Note) error {
	const query = `
INSERT INTO notes (id, member_id, title, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		note.ID,
		note.MemberID,
		note.Title,
		nullableString(note.Content),
		note.CreatedAt,
	)
	return err
}

// GetNote returns a note by ID.
func (r *PGRepo) GetNote(ctx context.Context, noteID string) (Note, error) {
	const query = `
SELECT id, member_id, title, content, created_at, updated_at
FROM notes
WHERE id = $1
LIMIT 1`
	var note Note
	var content sql.NullString
	err := r.DB.QueryRowContext(ctx, query, noteID).Scan(
		&note.ID,
		&note.MemberID,
		&note.Title,
		&content,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}
	if content.Valid {
		note.Content = content.String
	}
	return note, nil
}

// ListNotesByMember returns a member's notes ordered newest-first.
func (r *PGRepo) ListNotesByMember(ctx context.Context, memberID string) ([]Note, error) {
	const query = `
SELECT id, member_id, title, content, created_at, updated_at
FROM notes
WHERE member_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var note Note
		var content sql.NullString
		if err := rows.Scan(&note.ID, &note.MemberID, &note.Title, &content, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, err
		}
		if content.Valid {
			note.Content = content.String
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

// DeleteNote removes a note; its images go with it via ON DELETE CASCADE.
func (r *PGRepo) DeleteNote(ctx context.Context, noteID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, noteID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateImage inserts a new image record.
func (r *PGRepo) CreateImage(ctx context.Context, img NoteImage) error {
	const query = `
INSERT INTO note_images (id, note_id, storage_key, file_name, status, recognized_text, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		img.ID,
		img.NoteID,
		img.StorageKey,
		img.FileName,
		img.Status,
		img.RecognizedText,
		img.CreatedAt,
	)
	return err
}

// GetImage returns an image record by ID.
func (r *PGRepo) GetImage(ctx context.Context, imageID string) (NoteImage, error) {
	const query = `
SELECT id, note_id, storage_key, file_name, status, recognized_text, created_at, updated_at
FROM note_images
WHERE id = $1
LIMIT 1`
	return r.scanImage(r.DB.QueryRowContext(ctx, query, imageID))
}

// ListImagesByNote returns a note's images in upload order.
func (r *PGRepo) ListImagesByNote(ctx context.Context, noteID string) ([]NoteImage, error) {
	const query = `
SELECT id, note_id, storage_key, file_name, status, recognized_text, created_at, updated_at
FROM note_images
WHERE note_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoteImage
	for rows.Next() {
		var img NoteImage
		var text sql.NullString
		if err := rows.Scan(&img.ID, &img.NoteID, &img.StorageKey, &img.FileName, &img.Status, &text, &img.CreatedAt, &img.UpdatedAt); err != nil {
			return nil, err
		}
		if text.Valid {
			img.RecognizedText = &text.String
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// UpdateImageResult writes text and status in one statement so concurrent
// readers always see a consistent pair. Last write wins for duplicate
// deliveries.
func (r *PGRepo) UpdateImageResult(ctx context.Context, imageID string, text *string, status string) error {
	if err := validateResult(text, status); err != nil {
		return err
	}
	const query = `
UPDATE note_images
SET recognized_text = $1,
    status = $2,
    updated_at = now()
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, text, status, imageID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanImage(row rowScanner) (NoteImage, error) {
	var img NoteImage
	var text sql.NullString
	err := row.Scan(
		&img.ID,
		&img.NoteID,
		&img.StorageKey,
		&img.FileName,
		&img.Status,
		&text,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NoteImage{}, ErrNotFound
		}
		return NoteImage{}, err
	}
	if text.Valid {
		img.RecognizedText = &text.String
	}
	return img, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)

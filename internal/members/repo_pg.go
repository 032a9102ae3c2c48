package members

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, member Member) error {
	const query = `
INSERT INTO members (id, email, name, picture_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		member.ID,
		member.Email,
		nullableString(member.Name),
		nullableString(member.PictureURL),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, memberID string) (Member, error) {
	const query = `
SELECT id, email, name, picture_url, created_at, updated_at
FROM members
WHERE id = $1
LIMIT 1`
	var member Member
	var name sql.NullString
	var pictureURL sql.NullString
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, memberID).Scan(
		&member.ID,
		&member.Email,
		&name,
		&pictureURL,
		&member.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	if name.Valid {
		member.Name = name.String
	}
	if pictureURL.Valid {
		member.PictureURL = pictureURL.String
	}
	if updatedAt.Valid {
		member.UpdatedAt = updatedAt.Time
	} else {
		member.UpdatedAt = time.Now().UTC()
	}
	return member, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

package members

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "member not found" }

type Repo interface {
	Upsert(ctx context.Context, member Member) error
	GetByID(ctx context.Context, memberID string) (Member, error)
}

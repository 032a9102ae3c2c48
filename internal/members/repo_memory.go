package members

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	members map[string]Member
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{members: make(map[string]Member)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, member Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.members[member.ID]
	now := time.Now().UTC()
	if !ok {
		member.CreatedAt = now
	} else {
		member.CreatedAt = existing.CreatedAt
	}
	member.UpdatedAt = now
	r.members[member.ID] = member
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, memberID string) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[memberID]
	if !ok {
		return Member{}, ErrNotFound
	}
	return member, nil
}

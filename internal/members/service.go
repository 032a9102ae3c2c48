package members

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the member identity from OAuth so notes have a
// stable owner.
func (s *Service) UpsertFromAuth(ctx context.Context, member Member) error {
	if s == nil || s.Repo == nil {
		return errors.New("members service not configured")
	}
	if strings.TrimSpace(member.ID) == "" || strings.TrimSpace(member.Email) == "" {
		return errors.New("member id and email are required")
	}
	return s.Repo.Upsert(ctx, member)
}

func (s *Service) GetByID(ctx context.Context, memberID string) (Member, error) {
	if s == nil || s.Repo == nil {
		return Member{}, errors.New("members service not configured")
	}
	if strings.TrimSpace(memberID) == "" {
		return Member{}, errors.New("member id is required")
	}
	return s.Repo.GetByID(ctx, memberID)
}

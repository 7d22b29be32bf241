package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type MemberService struct {
	uow UnitOfWork
}

func NewMemberService(uow UnitOfWork) *MemberService {
	return &MemberService{uow: uow}
}

// Join registers m and returns its id. The name lookup runs inside the same
// transaction as the insert; concurrent joins that slip past it are stopped by
// the unique index on members.name, which also surfaces as ErrDuplicateName.
func (s *MemberService) Join(ctx context.Context, m *domain.Member) (int64, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return 0, fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}

	err := s.uow.ExecTx(ctx, func(r Repositories) error {
		return joinMember(ctx, r.Members, m)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "member joined", "member_id", m.ID)
	return m.ID, nil
}

// Update renames a member.
func (s *MemberService) Update(ctx context.Context, id int64, name string) (*domain.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}

	var updated *domain.Member
	err := s.uow.ExecTx(ctx, func(r Repositories) error {
		m, err := r.Members.FindOne(ctx, id)
		if err != nil {
			return err
		}
		if m.Name == name {
			updated = m
			return nil
		}
		if err := validateDuplicateMember(ctx, r.Members, name, id); err != nil {
			return err
		}
		m.Name = name
		if err := r.Members.Update(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *MemberService) FindMembers(ctx context.Context) ([]*domain.Member, error) {
	return s.uow.Repositories().Members.FindAll(ctx)
}

func (s *MemberService) FindOne(ctx context.Context, id int64) (*domain.Member, error) {
	return s.uow.Repositories().Members.FindOne(ctx, id)
}

func joinMember(ctx context.Context, members MemberRepository, m *domain.Member) error {
	if err := validateDuplicateMember(ctx, members, m.Name, 0); err != nil {
		return err
	}
	return members.Save(ctx, m)
}

func validateDuplicateMember(ctx context.Context, members MemberRepository, name string, selfID int64) error {
	found, err := members.FindByName(ctx, name)
	if err != nil {
		return err
	}
	for _, m := range found {
		if m.ID != selfID {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	return nil
}

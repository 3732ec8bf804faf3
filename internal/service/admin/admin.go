// Package admin holds the back-office operations: user listing, profile
// verification and blocking.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	ListUsers(ctx context.Context, f repo.UserFilter, limit, offset int) ([]repo.User, int, error)
	SetUserStatus(ctx context.Context, id uuid.UUID, status string) error
	SetVerification(ctx context.Context, kind repo.ProfileKind, userID uuid.UUID, status, note string) error
}

// SessionKiller ends every session of a user.
type SessionKiller interface {
	ForceLogout(ctx context.Context, userID uuid.UUID) error
}

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type Reindexer interface {
	ReindexDoctor(ctx context.Context, doctorID uuid.UUID) error
}

type UserQuery struct {
	Role   string
	Status string
	Phone  string
	Page   pagination.Params
}

type Service interface {
	ListUsers(ctx context.Context, q UserQuery) (pagination.Response[repo.User], error)
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	SetVerification(ctx context.Context, userID uuid.UUID, status, note string) error
	Block(ctx context.Context, userID uuid.UUID) error
	Unblock(ctx context.Context, userID uuid.UUID) error
}

type adminService struct {
	store    Store
	sessions SessionKiller
	bus      Publisher
	index    Reindexer
}

func New(store Store, sessions SessionKiller, bus Publisher, index Reindexer) Service {
	return &adminService{store: store, sessions: sessions, bus: bus, index: index}
}

func (s *adminService) ListUsers(ctx context.Context, q UserQuery) (pagination.Response[repo.User], error) {
	switch q.Role {
	case "", repo.RolePatient, repo.RoleDoctor, repo.RoleHospital, repo.RoleAdmin:
	default:
		return pagination.Response[repo.User]{}, ErrInvalidFilter
	}
	switch q.Status {
	case "", repo.UserStatusActive, repo.UserStatusBlocked:
	default:
		return pagination.Response[repo.User]{}, ErrInvalidFilter
	}

	rows, total, err := s.store.ListUsers(ctx, repo.UserFilter{
		Role:   q.Role,
		Status: q.Status,
		Phone:  strings.TrimSpace(q.Phone),
	}, q.Page.Limit, q.Page.Offset())
	if err != nil {
		return pagination.Response[repo.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResponse(rows, total, q.Page), nil
}

func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// decision is a verification verdict; rejections must say why.
type decision struct {
	Status string `json:"status" validate:"oneof=approved rejected"`
	Note   string `json:"note" validate:"required_if=Status rejected"`
}

func (d decision) check() error {
	err := validation.Struct(d)
	var verr validation.Errors
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &verr):
		return err
	case verr.Has("status"):
		return ErrInvalidDecision
	}
	return ErrNoteRequired
}

func (s *adminService) SetVerification(ctx context.Context, userID uuid.UUID, status, note string) error {
	note = strings.TrimSpace(note)
	if err := (decision{Status: status, Note: note}).check(); err != nil {
		return err
	}

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	kind, ok := repo.ProfileKindForRole(u.Role)
	if !ok {
		return ErrNotVerifiable
	}

	if err := s.store.SetVerification(ctx, kind, userID, status, note); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return ErrProfileIncomplete
		}
		return fmt.Errorf("set verification: %w", err)
	}

	ev := events.ProfileEvent{UserID: userID, Role: u.Role, Status: status, Note: note}
	if err := s.bus.Publish(ctx, events.SubjectProfileVerified, ev); err != nil {
		slog.Warn("failed to publish verification", "user_id", userID, "error", err)
	}
	s.reindex(ctx, u)
	return nil
}

// Block marks the user blocked and ends all of their sessions.
func (s *adminService) Block(ctx context.Context, userID uuid.UUID) error {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role == repo.RoleAdmin {
		return ErrCannotBlockAdmin
	}
	if err := s.setStatus(ctx, u, repo.UserStatusBlocked); err != nil {
		return err
	}
	if err := s.sessions.ForceLogout(ctx, userID); err != nil {
		return fmt.Errorf("force logout: %w", err)
	}
	return nil
}

func (s *adminService) Unblock(ctx context.Context, userID uuid.UUID) error {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.setStatus(ctx, u, repo.UserStatusActive)
}

func (s *adminService) setStatus(ctx context.Context, u *repo.User, status string) error {
	if err := s.store.SetUserStatus(ctx, u.ID, status); err != nil {
		if repo.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set status: %w", err)
	}
	s.reindex(ctx, u)
	return nil
}

// reindex refreshes the search document of doctors; blocked or rejected
// doctors drop out of the index.
func (s *adminService) reindex(ctx context.Context, u *repo.User) {
	if u.Role != repo.RoleDoctor {
		return
	}
	if err := s.index.ReindexDoctor(ctx, u.ID); err != nil {
		slog.Warn("failed to reindex doctor", "user_id", u.ID, "error", err)
	}
}

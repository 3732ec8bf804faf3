// Package masterdata serves the lookup lists (specializations, cities,
// feedback questions...) that profiles and feedback reference by ID.
package masterdata

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

// parentKinds lists the kinds whose items hang under another kind.
var parentKinds = map[string]string{
	repo.KindCity: repo.KindState,
}

type Store interface {
	CreateMasterItem(ctx context.Context, m *repo.MasterItem) error
	GetMasterItem(ctx context.Context, id uuid.UUID) (*repo.MasterItem, error)
	UpdateMasterItem(ctx context.Context, m *repo.MasterItem) error
	DeactivateMasterItem(ctx context.Context, id uuid.UUID) error
	ListMasterItems(ctx context.Context, kind string, parentID *uuid.UUID, activeOnly bool) ([]repo.MasterItem, error)
}

type Input struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Code      *string    `json:"code" validate:"omitempty,max=32"`
	ParentID  *uuid.UUID `json:"parent_id"`
	SortOrder int        `json:"sort_order"`
	IsActive  *bool      `json:"is_active"`
}

type Service interface {
	List(ctx context.Context, kind string, parentID *uuid.UUID) ([]repo.MasterItem, error)
	// ListAll includes inactive items for the admin console.
	ListAll(ctx context.Context, kind string) ([]repo.MasterItem, error)
	Create(ctx context.Context, kind string, in Input) (*repo.MasterItem, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*repo.MasterItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type masterdataService struct {
	store Store
}

func New(store Store) Service {
	return &masterdataService{store: store}
}

func CheckKind(kind string) error {
	if !slices.Contains(repo.MasterKinds, kind) {
		return ErrUnknownKind
	}
	return nil
}

func (s *masterdataService) List(ctx context.Context, kind string, parentID *uuid.UUID) ([]repo.MasterItem, error) {
	if err := CheckKind(kind); err != nil {
		return nil, err
	}
	return s.store.ListMasterItems(ctx, kind, parentID, true)
}

func (s *masterdataService) ListAll(ctx context.Context, kind string) ([]repo.MasterItem, error) {
	if err := CheckKind(kind); err != nil {
		return nil, err
	}
	return s.store.ListMasterItems(ctx, kind, nil, false)
}

func (s *masterdataService) validate(ctx context.Context, kind string, in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return in, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if in.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.Code))
		if code == "" {
			in.Code = nil
		} else {
			in.Code = &code
		}
	}

	want, hasParent := parentKinds[kind]
	if in.ParentID == nil {
		return in, nil
	}
	if !hasParent {
		return in, ErrInvalidParent
	}
	parent, err := s.store.GetMasterItem(ctx, *in.ParentID)
	if err != nil {
		if repo.IsNotFound(err) {
			return in, ErrInvalidParent
		}
		return in, err
	}
	if parent.Kind != want {
		return in, ErrInvalidParent
	}
	return in, nil
}

func (s *masterdataService) Create(ctx context.Context, kind string, in Input) (*repo.MasterItem, error) {
	if err := CheckKind(kind); err != nil {
		return nil, err
	}
	in, err := s.validate(ctx, kind, in)
	if err != nil {
		return nil, err
	}

	m := &repo.MasterItem{
		Kind:      kind,
		Name:      in.Name,
		Code:      in.Code,
		ParentID:  in.ParentID,
		SortOrder: in.SortOrder,
	}
	if err := s.store.CreateMasterItem(ctx, m); err != nil {
		if repo.IsConstraint(err, repo.ConstraintMasterKindCode) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("create master item: %w", err)
	}
	return m, nil
}

func (s *masterdataService) Update(ctx context.Context, id uuid.UUID, in Input) (*repo.MasterItem, error) {
	m, err := s.store.GetMasterItem(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	in, err = s.validate(ctx, m.Kind, in)
	if err != nil {
		return nil, err
	}

	m.Name, m.Code, m.ParentID, m.SortOrder = in.Name, in.Code, in.ParentID, in.SortOrder
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if err := s.store.UpdateMasterItem(ctx, m); err != nil {
		if repo.IsConstraint(err, repo.ConstraintMasterKindCode) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("update master item: %w", err)
	}
	return m, nil
}

// Delete hides the item. Profiles keep referencing it.
func (s *masterdataService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeactivateMasterItem(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

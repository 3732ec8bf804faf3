package faq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

const AudienceAll = "all"

const audienceRule = "required,oneof=patient doctor hospital all"

type Store interface {
	CreateFAQ(ctx context.Context, f *repo.FAQ) error
	GetFAQ(ctx context.Context, id uuid.UUID) (*repo.FAQ, error)
	UpdateFAQ(ctx context.Context, f *repo.FAQ) error
	DeleteFAQ(ctx context.Context, id uuid.UUID) error
	ListFAQs(ctx context.Context, audiences []string) ([]repo.FAQ, error)
}

type Input struct {
	Audience  string `json:"audience" validate:"required,oneofci=patient doctor hospital all"`
	Question  string `json:"question" validate:"required,max=500"`
	Answer    string `json:"answer" validate:"required,max=5000"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

type Service interface {
	// List returns the audience's FAQs together with those meant for all.
	List(ctx context.Context, audience string) ([]repo.FAQ, error)
	Create(ctx context.Context, in Input) (*repo.FAQ, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*repo.FAQ, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type faqService struct {
	store Store
}

func New(store Store) Service {
	return &faqService{store: store}
}

func checkAudience(a string) (string, error) {
	a = strings.ToLower(strings.TrimSpace(a))
	if err := validation.Var("audience", a, audienceRule); err != nil {
		return "", ErrInvalidAudience
	}
	return a, nil
}

func (s *faqService) List(ctx context.Context, audience string) ([]repo.FAQ, error) {
	if audience == "" {
		return s.store.ListFAQs(ctx, []string{AudienceAll})
	}
	a, err := checkAudience(audience)
	if err != nil {
		return nil, err
	}
	audiences := []string{AudienceAll}
	if a != AudienceAll {
		audiences = append(audiences, a)
	}
	return s.store.ListFAQs(ctx, audiences)
}

func normalize(in Input) (Input, error) {
	in.Audience = strings.ToLower(strings.TrimSpace(in.Audience))
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)

	err := validation.Struct(in)
	var verr validation.Errors
	switch {
	case err == nil:
		return in, nil
	case !errors.As(err, &verr):
		return in, err
	case verr.Has("audience"):
		return in, ErrInvalidAudience
	}
	return in, fmt.Errorf("%w: %w", ErrInvalidText, verr)
}

func (s *faqService) Create(ctx context.Context, in Input) (*repo.FAQ, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	f := &repo.FAQ{Audience: in.Audience, Question: in.Question, Answer: in.Answer, SortOrder: in.SortOrder}
	if err := s.store.CreateFAQ(ctx, f); err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}
	return f, nil
}

func (s *faqService) Update(ctx context.Context, id uuid.UUID, in Input) (*repo.FAQ, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	f, err := s.store.GetFAQ(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	f.Audience, f.Question, f.Answer, f.SortOrder = in.Audience, in.Question, in.Answer, in.SortOrder
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	if err := s.store.UpdateFAQ(ctx, f); err != nil {
		return nil, fmt.Errorf("update faq: %w", err)
	}
	return f, nil
}

func (s *faqService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteFAQ(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Package feedback collects platform feedback and post-appointment reviews.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

type Store interface {
	CreatePlatformFeedback(ctx context.Context, f *repo.PlatformFeedback) error
	ListPlatformFeedback(ctx context.Context, limit, offset int) ([]repo.PlatformFeedback, int, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*repo.Appointment, error)
	GetEstablishment(ctx context.Context, id uuid.UUID) (*repo.Establishment, error)
	CreateAppointmentFeedback(ctx context.Context, f *repo.AppointmentFeedback, hospitalID *uuid.UUID) error
	ListDoctorReviews(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]repo.AppointmentFeedback, int, error)
	MasterItemsByIDs(ctx context.Context, kind string, ids []uuid.UUID) ([]repo.MasterItem, error)
}

type AppointmentInput struct {
	Rating int `json:"rating" validate:"min=1,max=5"`
	// Answers maps feedback_question IDs to free-form answers.
	Answers map[string]any `json:"answers"`
	Comment string         `json:"comment" validate:"max=2000"`
}

type platformInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Message string `json:"message" validate:"max=2000"`
}

type Service interface {
	SubmitPlatformFeedback(ctx context.Context, userID uuid.UUID, rating int, message string) (*repo.PlatformFeedback, error)
	ListPlatformFeedback(ctx context.Context, p pagination.Params) (pagination.Response[repo.PlatformFeedback], error)
	SubmitAppointmentFeedback(ctx context.Context, patientID, appointmentID uuid.UUID, in AppointmentInput) (*repo.AppointmentFeedback, error)
	ListDoctorReviews(ctx context.Context, doctorID uuid.UUID, p pagination.Params) (pagination.Response[repo.AppointmentFeedback], error)
}

type feedbackService struct {
	store Store
}

func New(store Store) Service {
	return &feedbackService{store: store}
}

// check maps tag failures onto ErrInvalidRating and ErrMessageTooLong.
func check(in any) error {
	err := validation.Struct(in)
	if err == nil {
		return nil
	}
	var verr validation.Errors
	if !errors.As(err, &verr) {
		return err
	}
	if verr.Has("rating") {
		return ErrInvalidRating
	}
	return ErrMessageTooLong
}

func (s *feedbackService) SubmitPlatformFeedback(ctx context.Context, userID uuid.UUID, rating int, message string) (*repo.PlatformFeedback, error) {
	message = strings.TrimSpace(message)
	if err := check(platformInput{Rating: rating, Message: message}); err != nil {
		return nil, err
	}

	f := &repo.PlatformFeedback{UserID: userID, Rating: rating, Message: message}
	if err := s.store.CreatePlatformFeedback(ctx, f); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return f, nil
}

func (s *feedbackService) ListPlatformFeedback(ctx context.Context, p pagination.Params) (pagination.Response[repo.PlatformFeedback], error) {
	rows, total, err := s.store.ListPlatformFeedback(ctx, p.Limit, p.Offset())
	if err != nil {
		return pagination.Response[repo.PlatformFeedback]{}, err
	}
	return pagination.NewResponse(rows, total, p), nil
}

func (s *feedbackService) SubmitAppointmentFeedback(ctx context.Context, patientID, appointmentID uuid.UUID, in AppointmentInput) (*repo.AppointmentFeedback, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := check(in); err != nil {
		return nil, err
	}

	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	// Someone else's appointment looks the same as a missing one.
	if a.PatientID != patientID {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != repo.AppointmentCompleted {
		return nil, ErrNotCompleted
	}

	if err := s.checkAnswers(ctx, in.Answers); err != nil {
		return nil, err
	}

	var hospitalID *uuid.UUID
	est, err := s.store.GetEstablishment(ctx, a.EstablishmentID)
	if err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("get establishment: %w", err)
	}
	if est != nil && est.Kind == repo.EstablishmentHospital {
		hospitalID = &est.OwnerID
	}

	f := &repo.AppointmentFeedback{
		AppointmentID: a.ID,
		PatientID:     patientID,
		DoctorID:      a.DoctorID,
		Rating:        in.Rating,
		Answers:       repo.JSONMap(in.Answers),
		Comment:       in.Comment,
	}
	if err := s.store.CreateAppointmentFeedback(ctx, f, hospitalID); err != nil {
		if repo.IsConstraint(err, repo.ConstraintAppointmentFeedback) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("create appointment feedback: %w", err)
	}
	return f, nil
}

func (s *feedbackService) checkAnswers(ctx context.Context, answers map[string]any) error {
	if len(answers) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(answers))
	for k := range answers {
		id, err := uuid.Parse(k)
		if err != nil {
			return ErrUnknownQuestion
		}
		ids = append(ids, id)
	}
	found, err := s.store.MasterItemsByIDs(ctx, repo.KindFeedbackQuestion, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return ErrUnknownQuestion
	}
	return nil
}

func (s *feedbackService) ListDoctorReviews(ctx context.Context, doctorID uuid.UUID, p pagination.Params) (pagination.Response[repo.AppointmentFeedback], error) {
	rows, total, err := s.store.ListDoctorReviews(ctx, doctorID, p.Limit, p.Offset())
	if err != nil {
		return pagination.Response[repo.AppointmentFeedback]{}, err
	}
	return pagination.NewResponse(rows, total, p), nil
}

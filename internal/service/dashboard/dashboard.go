// Package dashboard aggregates the counters shown on the admin, doctor and
// hospital home screens.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
)

type Store interface {
	CountUsersByRole(ctx context.Context) (map[string]int, error)
	CountProfilesByVerification(ctx context.Context, kind repo.ProfileKind) (map[string]int, error)
	CountAppointmentsByStatus(ctx context.Context, f repo.AppointmentFilter) (map[string]int, error)
	CountAppointments(ctx context.Context, f repo.AppointmentFilter) (int, error)
	PlatformFeedbackStats(ctx context.Context) (repo.FeedbackStats, error)
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
	CountEstablishments(ctx context.Context, ownerID uuid.UUID) (int, error)
	CountDoctorsAtOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type AdminStats struct {
	UsersByRole          map[string]int `json:"users_by_role"`
	DoctorsByStatus      map[string]int `json:"doctors_by_verification"`
	HospitalsByStatus    map[string]int `json:"hospitals_by_verification"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	AppointmentsToday    int            `json:"appointments_today"`
	FeedbackCount        int            `json:"feedback_count"`
	FeedbackAverage      float64        `json:"feedback_average"`
}

type DoctorStats struct {
	Today       int     `json:"today"`
	Upcoming    int     `json:"upcoming"`
	Completed   int     `json:"completed"`
	Cancelled   int     `json:"cancelled"`
	AvgRating   float64 `json:"avg_rating"`
	RatingCount int     `json:"rating_count"`
}

type HospitalStats struct {
	Establishments       int            `json:"establishments"`
	Doctors              int            `json:"doctors"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	AppointmentsToday    int            `json:"appointments_today"`
}

type Service interface {
	Admin(ctx context.Context) (*AdminStats, error)
	Doctor(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error)
	Hospital(ctx context.Context, ownerID uuid.UUID) (*HospitalStats, error)
}

type dashboardService struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// New builds the service; loc decides where "today" starts.
func New(store Store, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{store: store, loc: loc, now: time.Now}
}

func (s *dashboardService) today() (time.Time, time.Time) {
	n := s.now().In(s.loc)
	start := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

func (s *dashboardService) Admin(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	var err error

	if out.UsersByRole, err = s.store.CountUsersByRole(ctx); err != nil {
		return nil, err
	}
	if out.DoctorsByStatus, err = s.store.CountProfilesByVerification(ctx, repo.DoctorProfiles); err != nil {
		return nil, err
	}
	if out.HospitalsByStatus, err = s.store.CountProfilesByVerification(ctx, repo.HospitalProfiles); err != nil {
		return nil, err
	}
	if out.AppointmentsByStatus, err = s.store.CountAppointmentsByStatus(ctx, repo.AppointmentFilter{}); err != nil {
		return nil, err
	}

	from, to := s.today()
	if out.AppointmentsToday, err = s.store.CountAppointments(ctx, repo.AppointmentFilter{
		Status: repo.AppointmentBooked, From: &from, To: &to,
	}); err != nil {
		return nil, err
	}

	fb, err := s.store.PlatformFeedbackStats(ctx)
	if err != nil {
		return nil, err
	}
	out.FeedbackCount, out.FeedbackAverage = fb.Count, fb.Avg
	return &out, nil
}

func (s *dashboardService) Doctor(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	p, err := s.store.GetDoctorProfile(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	byStatus, err := s.store.CountAppointmentsByStatus(ctx, repo.AppointmentFilter{DoctorID: &doctorID})
	if err != nil {
		return nil, err
	}

	from, to := s.today()
	today, err := s.store.CountAppointments(ctx, repo.AppointmentFilter{
		DoctorID: &doctorID, Status: repo.AppointmentBooked, From: &from, To: &to,
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	upcoming, err := s.store.CountAppointments(ctx, repo.AppointmentFilter{
		DoctorID: &doctorID, Status: repo.AppointmentBooked, From: &now,
	})
	if err != nil {
		return nil, err
	}

	return &DoctorStats{
		Today:       today,
		Upcoming:    upcoming,
		Completed:   byStatus[repo.AppointmentCompleted],
		Cancelled:   byStatus[repo.AppointmentCancelled],
		AvgRating:   p.AvgRating,
		RatingCount: p.RatingCount,
	}, nil
}

func (s *dashboardService) Hospital(ctx context.Context, ownerID uuid.UUID) (*HospitalStats, error) {
	var out HospitalStats
	var err error

	if out.Establishments, err = s.store.CountEstablishments(ctx, ownerID); err != nil {
		return nil, err
	}
	if out.Doctors, err = s.store.CountDoctorsAtOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if out.AppointmentsByStatus, err = s.store.CountAppointmentsByStatus(ctx, repo.AppointmentFilter{OwnerID: &ownerID}); err != nil {
		return nil, err
	}
	from, to := s.today()
	if out.AppointmentsToday, err = s.store.CountAppointments(ctx, repo.AppointmentFilter{
		OwnerID: &ownerID, Status: repo.AppointmentBooked, From: &from, To: &to,
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

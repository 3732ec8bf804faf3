// Package scheduling turns weekly timings into bookable slots.
package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/config"
	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
)

const DateLayout = "2006-01-02"

type Store interface {
	IsListableDoctor(ctx context.Context, userID uuid.UUID) (bool, error)
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
	ListTimings(ctx context.Context, f repo.TimingFilter) ([]repo.Timing, error)
	BookedForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]repo.Appointment, error)
}

type Slot struct {
	EstablishmentID uuid.UUID `json:"establishment_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Fee             int64     `json:"fee"`
}

type Options struct {
	Location     *time.Location
	MaxDaysAhead int
	MinLead      time.Duration
}

func OptionsFromConfig(cfg config.BookingConfig) Options {
	return Options{
		Location:     cfg.Location(),
		MaxDaysAhead: cfg.MaxDaysAhead,
		MinLead:      time.Duration(cfg.MinLeadMinutes) * time.Minute,
	}
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// AvailableSlots lists the open slots of the doctor on date (YYYY-MM-DD in
	// the service time zone), optionally at a single establishment.
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, establishmentID *uuid.UUID, date string) ([]Slot, error)
	// FindSlot returns the open slot starting exactly at start.
	FindSlot(ctx context.Context, doctorID, establishmentID uuid.UUID, start time.Time) (*Slot, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	store Store
	opts  Options
	now   func() time.Time
}

func New(store Store, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &schedulingService{store: store, opts: opts, now: time.Now}
}

func (s *schedulingService) AvailableSlots(ctx context.Context, doctorID uuid.UUID, establishmentID *uuid.UUID, date string) ([]Slot, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.opts.Location)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if err := s.checkWindow(day); err != nil {
		return nil, err
	}
	return s.slotsOn(ctx, doctorID, establishmentID, day)
}

func (s *schedulingService) FindSlot(ctx context.Context, doctorID, establishmentID uuid.UUID, start time.Time) (*Slot, error) {
	local := start.In(s.opts.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.opts.Location)
	if err := s.checkWindow(day); err != nil {
		return nil, err
	}

	slots, err := s.slotsOn(ctx, doctorID, &establishmentID, day)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].Start.Equal(start) {
			return &slots[i], nil
		}
	}
	return nil, ErrSlotNotAvailable
}

func (s *schedulingService) checkWindow(day time.Time) error {
	now := s.now().In(s.opts.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.opts.Location)
	if day.Before(today) {
		return ErrPastDate
	}
	if s.opts.MaxDaysAhead > 0 && day.After(today.AddDate(0, 0, s.opts.MaxDaysAhead)) {
		return ErrDateTooFar
	}
	return nil
}

func (s *schedulingService) slotsOn(ctx context.Context, doctorID uuid.UUID, establishmentID *uuid.UUID, day time.Time) ([]Slot, error) {
	ok, err := s.store.IsListableDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}

	weekday := int(day.Weekday())
	timings, err := s.store.ListTimings(ctx, repo.TimingFilter{
		EstablishmentID: establishmentID,
		DoctorID:        &doctorID,
		DayOfWeek:       &weekday,
		ActiveOnly:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("list timings: %w", err)
	}
	if len(timings) == 0 {
		return []Slot{}, nil
	}

	profile, err := s.store.GetDoctorProfile(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	dayEnd := day.AddDate(0, 0, 1)
	booked, err := s.store.BookedForDoctor(ctx, doctorID, day, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list booked: %w", err)
	}

	earliest := s.now().Add(s.opts.MinLead)
	out := make([]Slot, 0)
	for _, t := range timings {
		fee := profile.ConsultationFee
		if t.ConsultationFee != nil {
			fee = *t.ConsultationFee
		}
		for m := t.StartMinute; m+t.SlotDurationMinutes <= t.EndMinute; m += t.SlotDurationMinutes {
			// time.Date normalizes minutes past 59 and follows DST shifts.
			start := time.Date(day.Year(), day.Month(), day.Day(), 0, m, 0, 0, s.opts.Location)
			end := start.Add(time.Duration(t.SlotDurationMinutes) * time.Minute)
			if start.Before(earliest) || overlapsAny(start, end, booked) {
				continue
			}
			out = append(out, Slot{EstablishmentID: t.EstablishmentID, Start: start, End: end, Fee: fee})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func overlapsAny(start, end time.Time, booked []repo.Appointment) bool {
	for _, a := range booked {
		if a.StartTime.Before(end) && start.Before(a.EndTime) {
			return true
		}
	}
	return false
}

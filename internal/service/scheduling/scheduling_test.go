package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
)

type fakeStore struct {
	listable map[uuid.UUID]bool
	profile  repo.DoctorProfile
	timings  []repo.Timing
	booked   []repo.Appointment
}

func (f *fakeStore) IsListableDoctor(_ context.Context, id uuid.UUID) (bool, error) {
	return f.listable[id], nil
}

func (f *fakeStore) GetDoctorProfile(context.Context, uuid.UUID) (*repo.DoctorProfile, error) {
	p := f.profile
	return &p, nil
}

func (f *fakeStore) ListTimings(_ context.Context, q repo.TimingFilter) ([]repo.Timing, error) {
	var out []repo.Timing
	for _, t := range f.timings {
		if q.EstablishmentID != nil && t.EstablishmentID != *q.EstablishmentID {
			continue
		}
		if q.DayOfWeek != nil && t.DayOfWeek != *q.DayOfWeek {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) BookedForDoctor(_ context.Context, _ uuid.UUID, from, to time.Time) ([]repo.Appointment, error) {
	var out []repo.Appointment
	for _, a := range f.booked {
		if a.StartTime.Before(to) && a.EndTime.After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

var kolkata = time.FixedZone("IST", 5*3600+1800)

// Monday 2026-03-02 08:01 IST.
var fixedNow = time.Date(2026, 3, 2, 8, 1, 0, 0, kolkata)

func setup(t *testing.T) (*schedulingService, *fakeStore, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()
	doctorID, clinic, hospital := uuid.New(), uuid.New(), uuid.New()
	fee := int64(800)
	st := &fakeStore{
		listable: map[uuid.UUID]bool{doctorID: true},
		profile:  repo.DoctorProfile{UserID: doctorID, ConsultationFee: 500},
		timings: []repo.Timing{
			{EstablishmentID: hospital, DoctorID: doctorID, DayOfWeek: 1, StartMinute: 14 * 60, EndMinute: 15 * 60, SlotDurationMinutes: 30, ConsultationFee: &fee},
			{EstablishmentID: clinic, DoctorID: doctorID, DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 10*60 + 10, SlotDurationMinutes: 20},
			{EstablishmentID: clinic, DoctorID: doctorID, DayOfWeek: 2, StartMinute: 9 * 60, EndMinute: 10 * 60, SlotDurationMinutes: 30},
		},
	}
	svc := New(st, Options{Location: kolkata, MaxDaysAhead: 30, MinLead: time.Hour}).(*schedulingService)
	svc.now = func() time.Time { return fixedNow }
	return svc, st, doctorID, clinic, hospital
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, kolkata)
}

func TestAvailableSlotsSplitsTimings(t *testing.T) {
	svc, _, doctorID, clinic, hospital := setup(t)

	slots, err := svc.AvailableSlots(context.Background(), doctorID, nil, "2026-03-02")
	require.NoError(t, err)

	var starts []string
	for _, s := range slots {
		starts = append(starts, s.Start.Format("15:04"))
	}
	// 09:00 starts inside the one hour lead; 10:00 would end past 10:10.
	assert.Equal(t, []string{"09:20", "09:40", "14:00", "14:30"}, starts)
	assert.Equal(t, clinic, slots[0].EstablishmentID)
	assert.Equal(t, int64(500), slots[0].Fee)
	assert.Equal(t, hospital, slots[2].EstablishmentID)
	assert.Equal(t, int64(800), slots[2].Fee)
	assert.Equal(t, at(14, 30), slots[2].End)
}

func TestAvailableSlotsDropsBooked(t *testing.T) {
	svc, st, doctorID, clinic, _ := setup(t)
	st.booked = []repo.Appointment{
		{StartTime: at(9, 40), EndTime: at(10, 0)},
		// Overlaps the 14:00 slot partially.
		{StartTime: at(14, 15), EndTime: at(14, 20)},
	}

	slots, err := svc.AvailableSlots(context.Background(), doctorID, &clinic, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, at(9, 20), slots[0].Start)

	slots, err = svc.AvailableSlots(context.Background(), doctorID, nil, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, at(14, 30), slots[1].Start)
}

func TestAvailableSlotsWindow(t *testing.T) {
	svc, _, doctorID, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AvailableSlots(ctx, doctorID, nil, "2026-03-01")
	assert.ErrorIs(t, err, ErrPastDate)

	_, err = svc.AvailableSlots(ctx, doctorID, nil, "2026-04-02")
	assert.ErrorIs(t, err, ErrDateTooFar)

	_, err = svc.AvailableSlots(ctx, doctorID, nil, "2026-04-01")
	assert.NoError(t, err)

	_, err = svc.AvailableSlots(ctx, doctorID, nil, "02/03/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.AvailableSlots(ctx, uuid.New(), nil, "2026-03-02")
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	slots, err := svc.AvailableSlots(ctx, doctorID, nil, "2026-03-04")
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NotNil(t, slots)
}

func TestFindSlot(t *testing.T) {
	svc, _, doctorID, clinic, hospital := setup(t)
	ctx := context.Background()

	s, err := svc.FindSlot(ctx, doctorID, clinic, at(9, 40).UTC())
	require.NoError(t, err)
	assert.Equal(t, clinic, s.EstablishmentID)

	_, err = svc.FindSlot(ctx, doctorID, hospital, at(9, 40))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	_, err = svc.FindSlot(ctx, doctorID, clinic, at(9, 45))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	_, err = svc.FindSlot(ctx, doctorID, clinic, at(9, 0).AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestNewDefaultsToUTC(t *testing.T) {
	svc := New(&fakeStore{}, Options{}).(*schedulingService)
	assert.Equal(t, time.UTC, svc.opts.Location)
}

package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/scheduling"
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
)

type fakeStore struct {
	appts          map[uuid.UUID]*repo.Appointment
	establishments map[uuid.UUID]*repo.Establishment
	lastFilter     repo.AppointmentFilter
}

func (f *fakeStore) GetAppointment(_ context.Context, id uuid.UUID) (*repo.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// CreateAppointment mimics both booking constraints.
func (f *fakeStore) CreateAppointment(_ context.Context, a *repo.Appointment) error {
	for _, o := range f.appts {
		if o.Status != repo.AppointmentBooked {
			continue
		}
		if o.DoctorID == a.DoctorID && o.StartTime.Before(a.EndTime) && a.StartTime.Before(o.EndTime) {
			return &repo.ConstraintError{Constraint: repo.ConstraintDoctorOverlap, Err: &pq.Error{Code: "23P01"}}
		}
		if o.PatientID == a.PatientID && o.StartTime.Equal(a.StartTime) {
			return &repo.ConstraintError{Constraint: repo.ConstraintPatientStartBooked, Err: &pq.Error{Code: "23505"}}
		}
	}
	a.ID = uuid.New()
	a.Status = repo.AppointmentBooked
	cp := *a
	f.appts[a.ID] = &cp
	return nil
}

func (f *fakeStore) RescheduleAppointment(ctx context.Context, oldID uuid.UUID, next *repo.Appointment) error {
	old := f.appts[oldID]
	if old.Status != repo.AppointmentBooked {
		return repo.ErrStale
	}
	old.Status = repo.AppointmentRescheduled
	next.RescheduledFromID = &oldID
	if err := f.CreateAppointment(ctx, next); err != nil {
		old.Status = repo.AppointmentBooked
		return err
	}
	old.RescheduledToID = &next.ID
	return nil
}

func (f *fakeStore) CancelAppointment(_ context.Context, id, by uuid.UUID, reason string) error {
	a := f.appts[id]
	if a.Status != repo.AppointmentBooked {
		return repo.ErrStale
	}
	a.Status = repo.AppointmentCancelled
	a.CancelledBy = &by
	a.CancelReason = &reason
	return nil
}

func (f *fakeStore) CompleteAppointment(_ context.Context, id uuid.UUID) error {
	a := f.appts[id]
	if a.Status != repo.AppointmentBooked {
		return repo.ErrStale
	}
	a.Status = repo.AppointmentCompleted
	return nil
}

func (f *fakeStore) ListAppointments(_ context.Context, q repo.AppointmentFilter, _, _ int) ([]repo.Appointment, int, error) {
	f.lastFilter = q
	var out []repo.Appointment
	for _, a := range f.appts {
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetEstablishment(_ context.Context, id uuid.UUID) (*repo.Establishment, error) {
	e, ok := f.establishments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return e, nil
}

// fakeSlots offers every half hour on the clinic.
type fakeSlots struct {
	clinic uuid.UUID
	doctor uuid.UUID
}

func (f *fakeSlots) FindSlot(_ context.Context, doctorID, establishmentID uuid.UUID, start time.Time) (*scheduling.Slot, error) {
	if doctorID != f.doctor {
		return nil, scheduling.ErrDoctorNotFound
	}
	if establishmentID != f.clinic || start.Minute()%30 != 0 {
		return nil, scheduling.ErrSlotNotAvailable
	}
	return &scheduling.Slot{EstablishmentID: establishmentID, Start: start, End: start.Add(30 * time.Minute), Fee: 700}, nil
}

type fakeBus struct {
	published []string
	last      events.AppointmentEvent
}

func (b *fakeBus) Publish(_ context.Context, subject string, payload any) error {
	b.published = append(b.published, subject)
	b.last = payload.(events.AppointmentEvent)
	return nil
}

type harness struct {
	svc      *appointmentService
	store    *fakeStore
	bus      *fakeBus
	patient  Actor
	doctor   Actor
	hospital Actor
	clinic   uuid.UUID
}

var slotStart = time.Date(2030, 5, 6, 9, 0, 0, 0, time.UTC)

func newHarness() *harness {
	h := &harness{
		patient:  Actor{ID: uuid.New(), Role: repo.RolePatient},
		doctor:   Actor{ID: uuid.New(), Role: repo.RoleDoctor},
		hospital: Actor{ID: uuid.New(), Role: repo.RoleHospital},
		clinic:   uuid.New(),
		bus:      &fakeBus{},
	}
	h.store = &fakeStore{
		appts: map[uuid.UUID]*repo.Appointment{},
		establishments: map[uuid.UUID]*repo.Establishment{
			h.clinic: {ID: h.clinic, OwnerID: h.hospital.ID},
		},
	}
	svc := New(h.store, &fakeSlots{clinic: h.clinic, doctor: h.doctor.ID}, h.bus).(*appointmentService)
	svc.now = func() time.Time { return slotStart.Add(-24 * time.Hour) }
	h.svc = svc
	return h
}

func (h *harness) book(t *testing.T, start time.Time) *repo.Appointment {
	t.Helper()
	a, err := h.svc.Book(context.Background(), h.patient.ID, BookRequest{
		DoctorID:        h.doctor.ID,
		EstablishmentID: h.clinic,
		StartTime:       start,
		Reason:          " fever ",
	})
	require.NoError(t, err)
	return a
}

func TestBook(t *testing.T) {
	h := newHarness()
	a := h.book(t, slotStart)

	assert.Equal(t, repo.AppointmentBooked, h.store.appts[a.ID].Status)
	assert.Equal(t, "fever", a.Reason)
	assert.Equal(t, int64(700), a.ConsultationFee)
	assert.Equal(t, slotStart.Add(30*time.Minute), a.EndTime)
	assert.Equal(t, []string{events.SubjectAppointmentBooked}, h.bus.published)
	assert.Equal(t, a.ID, h.bus.last.AppointmentID)
}

func TestBookRejections(t *testing.T) {
	h := newHarness()
	h.book(t, slotStart)
	ctx := context.Background()

	other := uuid.New()
	_, err := h.svc.Book(ctx, other, BookRequest{DoctorID: h.doctor.ID, EstablishmentID: h.clinic, StartTime: slotStart})
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	_, err = h.svc.Book(ctx, h.patient.ID, BookRequest{DoctorID: h.doctor.ID, EstablishmentID: h.clinic, StartTime: slotStart.Add(10 * time.Minute)})
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	_, err = h.svc.Book(ctx, h.patient.ID, BookRequest{DoctorID: uuid.New(), EstablishmentID: h.clinic, StartTime: slotStart})
	assert.ErrorIs(t, err, ErrDoctorUnavailable)

	_, err = h.svc.Book(ctx, h.doctor.ID, BookRequest{DoctorID: h.doctor.ID, EstablishmentID: h.clinic, StartTime: slotStart.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.Book(ctx, h.patient.ID, BookRequest{DoctorID: h.doctor.ID, EstablishmentID: h.clinic, StartTime: slotStart.Add(time.Hour), Reason: strings.Repeat("x", 501)})
	assert.ErrorIs(t, err, ErrReasonTooLong)

	_, err = h.svc.Book(ctx, h.patient.ID, BookRequest{DoctorID: h.doctor.ID, StartTime: slotStart.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookDuplicateForPatient(t *testing.T) {
	h := newHarness()
	h.book(t, slotStart)

	// A second doctor at the same start time.
	second := uuid.New()
	h.svc.slots = &fakeSlots{clinic: h.clinic, doctor: second}
	_, err := h.svc.Book(context.Background(), h.patient.ID, BookRequest{DoctorID: second, EstablishmentID: h.clinic, StartTime: slotStart})
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestReschedule(t *testing.T) {
	h := newHarness()
	a := h.book(t, slotStart)

	next, err := h.svc.Reschedule(context.Background(), h.patient, a.ID, slotStart.Add(time.Hour))
	require.NoError(t, err)

	old := h.store.appts[a.ID]
	assert.Equal(t, repo.AppointmentRescheduled, old.Status)
	require.NotNil(t, old.RescheduledToID)
	assert.Equal(t, next.ID, *old.RescheduledToID)
	assert.Equal(t, a.ID, *h.store.appts[next.ID].RescheduledFromID)
	assert.Equal(t, "fever", next.Reason)

	assert.Equal(t, events.SubjectAppointmentRescheduled, h.bus.published[1])
	require.NotNil(t, h.bus.last.PreviousStart)
	assert.Equal(t, slotStart, *h.bus.last.PreviousStart)

	_, err = h.svc.Reschedule(context.Background(), h.patient, a.ID, slotStart.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotReschedulable)
}

func TestRescheduleActors(t *testing.T) {
	h := newHarness()
	a := h.book(t, slotStart)
	stranger := Actor{ID: uuid.New(), Role: repo.RoleHospital}

	_, err := h.svc.Reschedule(context.Background(), stranger, a.ID, slotStart.Add(time.Hour))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.svc.Reschedule(context.Background(), h.hospital, a.ID, slotStart.Add(time.Hour))
	assert.NoError(t, err)
}

func TestRescheduleIntoTakenSlotKeepsOriginal(t *testing.T) {
	h := newHarness()
	a := h.book(t, slotStart)
	other := uuid.New()
	_, err := h.svc.Book(context.Background(), other, BookRequest{DoctorID: h.doctor.ID, EstablishmentID: h.clinic, StartTime: slotStart.Add(time.Hour)})
	require.NoError(t, err)

	_, err = h.svc.Reschedule(context.Background(), h.doctor, a.ID, slotStart.Add(time.Hour))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.Equal(t, repo.AppointmentBooked, h.store.appts[a.ID].Status)
}

func TestCancel(t *testing.T) {
	h := newHarness()
	a := h.book(t, slotStart)
	ctx := context.Background()

	assert.ErrorIs(t, h.svc.Cancel(ctx, Actor{ID: uuid.New(), Role: repo.RolePatient}, a.ID, ""), ErrForbidden)
	require.NoError(t, h.svc.Cancel(ctx, h.doctor, a.ID, " clinic closed "))

	got := h.store.appts[a.ID]
	assert.Equal(t, repo.AppointmentCancelled, got.Status)
	assert.Equal(t, "clinic closed", *got.CancelReason)
	assert.Equal(t, h.doctor.ID, *got.CancelledBy)
	assert.Equal(t, "clinic closed", h.bus.last.Reason)

	assert.ErrorIs(t, h.svc.Cancel(ctx, h.patient, a.ID, ""), ErrNotCancellable)
	assert.ErrorIs(t, h.svc.Cancel(ctx, h.patient, uuid.New(), ""), ErrNotFound)

	b := h.book(t, slotStart.Add(time.Hour))
	admin := Actor{ID: uuid.New(), Role: repo.RoleAdmin}
	assert.NoError(t, h.svc.Cancel(ctx, admin, b.ID, "duplicate"))
}

func TestComplete(t *testing.T) {
	h := newHarness()
	a := h.book(t, slotStart)
	ctx := context.Background()

	assert.ErrorIs(t, h.svc.Complete(ctx, h.doctor, a.ID), ErrTooEarly)

	h.svc.now = func() time.Time { return slotStart.Add(time.Minute) }
	assert.ErrorIs(t, h.svc.Complete(ctx, h.patient, a.ID), ErrForbidden)
	require.NoError(t, h.svc.Complete(ctx, h.hospital, a.ID))
	assert.Equal(t, repo.AppointmentCompleted, h.store.appts[a.ID].Status)
	assert.Equal(t, events.SubjectAppointmentCompleted, h.bus.published[len(h.bus.published)-1])

	assert.ErrorIs(t, h.svc.Complete(ctx, h.doctor, a.ID), ErrNotCompletable)
}

func TestGetHidesOtherPeoplesAppointments(t *testing.T) {
	h := newHarness()
	a := h.book(t, slotStart)

	_, err := h.svc.Get(context.Background(), Actor{ID: uuid.New(), Role: repo.RolePatient}, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := h.svc.Get(context.Background(), h.patient, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestList(t *testing.T) {
	h := newHarness()
	h.book(t, slotStart)
	h.book(t, slotStart.Add(time.Hour))
	ctx := context.Background()

	res, err := h.svc.ListForPatient(ctx, h.patient.ID, ListQuery{Status: repo.AppointmentBooked, Page: pagination.New(1, 20)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	_, err = h.svc.ListForHospital(ctx, h.hospital.ID, ListQuery{Page: pagination.New(1, 20)})
	require.NoError(t, err)
	require.NotNil(t, h.store.lastFilter.OwnerID)
	assert.Equal(t, h.hospital.ID, *h.store.lastFilter.OwnerID)

	_, err = h.svc.ListAll(ctx, ListQuery{Status: "pending"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

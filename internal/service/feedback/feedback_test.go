package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
)

type rating struct {
	kind repo.ProfileKind
	id   uuid.UUID
	r    int
}

type fakeStore struct {
	platform       []repo.PlatformFeedback
	appts          map[uuid.UUID]*repo.Appointment
	establishments map[uuid.UUID]*repo.Establishment
	reviews        map[uuid.UUID]repo.AppointmentFeedback
	questions      map[uuid.UUID]bool
	ratings        []rating
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appts:          map[uuid.UUID]*repo.Appointment{},
		establishments: map[uuid.UUID]*repo.Establishment{},
		reviews:        map[uuid.UUID]repo.AppointmentFeedback{},
		questions:      map[uuid.UUID]bool{},
	}
}

func (f *fakeStore) CreatePlatformFeedback(_ context.Context, fb *repo.PlatformFeedback) error {
	fb.ID = uuid.New()
	f.platform = append(f.platform, *fb)
	return nil
}

func (f *fakeStore) ListPlatformFeedback(context.Context, int, int) ([]repo.PlatformFeedback, int, error) {
	return f.platform, len(f.platform), nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id uuid.UUID) (*repo.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) GetEstablishment(_ context.Context, id uuid.UUID) (*repo.Establishment, error) {
	e, ok := f.establishments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) CreateAppointmentFeedback(_ context.Context, fb *repo.AppointmentFeedback, hospitalID *uuid.UUID) error {
	if _, ok := f.reviews[fb.AppointmentID]; ok {
		return &repo.ConstraintError{Constraint: repo.ConstraintAppointmentFeedback, Err: &pq.Error{Code: "23505"}}
	}
	fb.ID = uuid.New()
	f.reviews[fb.AppointmentID] = *fb
	f.ratings = append(f.ratings, rating{repo.DoctorProfiles, fb.DoctorID, fb.Rating})
	if hospitalID != nil {
		f.ratings = append(f.ratings, rating{repo.HospitalProfiles, *hospitalID, fb.Rating})
	}
	return nil
}

func (f *fakeStore) ListDoctorReviews(_ context.Context, doctorID uuid.UUID, _, _ int) ([]repo.AppointmentFeedback, int, error) {
	var out []repo.AppointmentFeedback
	for _, r := range f.reviews {
		if r.DoctorID == doctorID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) MasterItemsByIDs(_ context.Context, kind string, ids []uuid.UUID) ([]repo.MasterItem, error) {
	var out []repo.MasterItem
	for _, id := range ids {
		if kind == repo.KindFeedbackQuestion && f.questions[id] {
			out = append(out, repo.MasterItem{ID: id, Kind: kind})
		}
	}
	return out, nil
}

func completedAt(st *fakeStore, kind string) (*repo.Appointment, uuid.UUID) {
	owner := uuid.New()
	est := &repo.Establishment{ID: uuid.New(), OwnerID: owner, Kind: kind}
	st.establishments[est.ID] = est
	a := &repo.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		DoctorID:        uuid.New(),
		EstablishmentID: est.ID,
		Status:          repo.AppointmentCompleted,
	}
	st.appts[a.ID] = a
	return a, owner
}

func TestPlatformFeedback(t *testing.T) {
	svc := New(newFakeStore())
	ctx := context.Background()

	f, err := svc.SubmitPlatformFeedback(ctx, uuid.New(), 4, "  great app ")
	require.NoError(t, err)
	assert.Equal(t, "great app", f.Message)

	for _, r := range []int{0, 6, -1} {
		_, err := svc.SubmitPlatformFeedback(ctx, uuid.New(), r, "")
		assert.ErrorIs(t, err, ErrInvalidRating)
	}
	_, err = svc.SubmitPlatformFeedback(ctx, uuid.New(), 3, strings.Repeat("x", 2001))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	res, err := svc.ListPlatformFeedback(ctx, pagination.New(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestAppointmentFeedbackRatesDoctorAndHospital(t *testing.T) {
	st := newFakeStore()
	svc := New(st)
	a, hospitalID := completedAt(st, repo.EstablishmentHospital)
	q := uuid.New()
	st.questions[q] = true

	f, err := svc.SubmitAppointmentFeedback(context.Background(), a.PatientID, a.ID, AppointmentInput{
		Rating:  5,
		Answers: map[string]any{q.String(): "yes"},
		Comment: "kind doctor",
	})
	require.NoError(t, err)
	assert.Equal(t, a.DoctorID, f.DoctorID)
	assert.Equal(t, []rating{
		{repo.DoctorProfiles, a.DoctorID, 5},
		{repo.HospitalProfiles, hospitalID, 5},
	}, st.ratings)

	_, err = svc.SubmitAppointmentFeedback(context.Background(), a.PatientID, a.ID, AppointmentInput{Rating: 4})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	reviews, err := svc.ListDoctorReviews(context.Background(), a.DoctorID, pagination.New(1, 10))
	require.NoError(t, err)
	assert.Len(t, reviews.Data, 1)
}

func TestAppointmentFeedbackAtClinicRatesDoctorOnly(t *testing.T) {
	st := newFakeStore()
	a, _ := completedAt(st, repo.EstablishmentClinic)

	_, err := New(st).SubmitAppointmentFeedback(context.Background(), a.PatientID, a.ID, AppointmentInput{Rating: 3})
	require.NoError(t, err)
	require.Len(t, st.ratings, 1)
	assert.Equal(t, repo.DoctorProfiles, st.ratings[0].kind)
}

func TestAppointmentFeedbackRejections(t *testing.T) {
	st := newFakeStore()
	svc := New(st)
	a, _ := completedAt(st, repo.EstablishmentClinic)
	ctx := context.Background()

	_, err := svc.SubmitAppointmentFeedback(ctx, uuid.New(), a.ID, AppointmentInput{Rating: 3})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = svc.SubmitAppointmentFeedback(ctx, a.PatientID, uuid.New(), AppointmentInput{Rating: 3})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = svc.SubmitAppointmentFeedback(ctx, a.PatientID, a.ID, AppointmentInput{Rating: 3, Answers: map[string]any{uuid.NewString(): 1}})
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	_, err = svc.SubmitAppointmentFeedback(ctx, a.PatientID, a.ID, AppointmentInput{Rating: 3, Answers: map[string]any{"q1": 1}})
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	_, err = svc.SubmitAppointmentFeedback(ctx, a.PatientID, a.ID, AppointmentInput{Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.SubmitAppointmentFeedback(ctx, a.PatientID, a.ID, AppointmentInput{Rating: 2, Comment: strings.Repeat("x", 2001)})
	assert.ErrorIs(t, err, ErrMessageTooLong)

	a.Status = repo.AppointmentBooked
	_, err = svc.SubmitAppointmentFeedback(ctx, a.PatientID, a.ID, AppointmentInput{Rating: 3})
	assert.ErrorIs(t, err, ErrNotCompleted)
	assert.Empty(t, st.ratings)
}

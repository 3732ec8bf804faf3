package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
	"github.com/Alijeyrad/healthmarket_backend/pkg/search"
)

type fakeStore struct {
	doctors   map[uuid.UUID]*repo.DoctorProfile
	hospitals map[uuid.UUID]*repo.HospitalProfile
	master    map[uuid.UUID]repo.MasterItem
	lastQuery repo.DoctorFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		doctors:   map[uuid.UUID]*repo.DoctorProfile{},
		hospitals: map[uuid.UUID]*repo.HospitalProfile{},
		master:    map[uuid.UUID]repo.MasterItem{},
	}
}

func listable(d *repo.DoctorProfile) bool {
	return d.Step == repo.StepCompleted && d.VerificationStatus == repo.VerificationApproved
}

func (f *fakeStore) ListApprovedDoctors(_ context.Context, q repo.DoctorFilter, limit, offset int) ([]repo.DoctorProfile, int, error) {
	f.lastQuery = q
	var out []repo.DoctorProfile
	for _, d := range f.doctors {
		if !listable(d) {
			continue
		}
		if len(q.IDs) > 0 {
			found := false
			for _, id := range q.IDs {
				if id == d.UserID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *d)
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeStore) IsListableDoctor(_ context.Context, id uuid.UUID) (bool, error) {
	d, ok := f.doctors[id]
	return ok && listable(d), nil
}

func (f *fakeStore) GetDoctorProfile(_ context.Context, id uuid.UUID) (*repo.DoctorProfile, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) ListApprovedHospitals(_ context.Context, _ *uuid.UUID, _, _ int) ([]repo.HospitalProfile, int, error) {
	var out []repo.HospitalProfile
	for _, h := range f.hospitals {
		if h.VerificationStatus == repo.VerificationApproved {
			out = append(out, *h)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) GetHospitalProfile(_ context.Context, id uuid.UUID) (*repo.HospitalProfile, error) {
	h, ok := f.hospitals[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *fakeStore) ListEstablishmentsForDoctor(context.Context, uuid.UUID) ([]repo.Establishment, error) {
	return []repo.Establishment{{ID: uuid.New(), Name: "City Clinic"}}, nil
}

func (f *fakeStore) ListEstablishmentsByOwner(_ context.Context, owner uuid.UUID, _ bool) ([]repo.Establishment, error) {
	return []repo.Establishment{{ID: uuid.New(), OwnerID: owner}}, nil
}

func (f *fakeStore) MasterItemsByIDs(_ context.Context, kind string, ids []uuid.UUID) ([]repo.MasterItem, error) {
	var out []repo.MasterItem
	for _, id := range ids {
		if m, ok := f.master[id]; ok && m.Kind == kind {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeIndex struct {
	enabled  bool
	failWith error
	hits     []string
	upserted map[string]search.DoctorDocument
	deleted  []string
	ensured  bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{enabled: true, upserted: map[string]search.DoctorDocument{}}
}

func (x *fakeIndex) Enabled() bool { return x.enabled }

func (x *fakeIndex) EnsureSchema(context.Context) error {
	x.ensured = true
	return nil
}

func (x *fakeIndex) UpsertDoctor(_ context.Context, d search.DoctorDocument) error {
	x.upserted[d.ID] = d
	return nil
}

func (x *fakeIndex) DeleteDoctor(_ context.Context, id string) error {
	x.deleted = append(x.deleted, id)
	return nil
}

func (x *fakeIndex) SearchDoctors(context.Context, search.Query) (search.Result, error) {
	if x.failWith != nil {
		return search.Result{}, x.failWith
	}
	return search.Result{IDs: x.hits, Total: len(x.hits)}, nil
}

func addDoctor(st *fakeStore, name, status string) uuid.UUID {
	id := uuid.New()
	st.doctors[id] = &repo.DoctorProfile{
		UserID:             id,
		FullName:           name,
		Step:               repo.StepCompleted,
		VerificationStatus: status,
		AvgRating:          4.5,
		RatingCount:        2,
	}
	return id
}

func TestSearchDoctorsUsesIndexOrder(t *testing.T) {
	st := newFakeStore()
	a := addDoctor(st, "Asha", repo.VerificationApproved)
	b := addDoctor(st, "Bala", repo.VerificationApproved)
	idx := newFakeIndex()
	idx.hits = []string{b.String(), "not-a-uuid", a.String()}
	svc := New(st, idx)

	res, err := svc.SearchDoctors(context.Background(), SearchQuery{Query: " a ", Page: pagination.New(1, 10)})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, b, res.Data[0].UserID)
	assert.Equal(t, a, res.Data[1].UserID)
	assert.Equal(t, 3, res.Total)
}

func TestSearchDoctorsFallsBackToDatabase(t *testing.T) {
	st := newFakeStore()
	addDoctor(st, "Asha", repo.VerificationApproved)
	addDoctor(st, "Pending", repo.VerificationPending)
	spec := uuid.New()

	for _, idx := range []*fakeIndex{
		{enabled: false},
		{enabled: true, failWith: errors.New("typesense down")},
	} {
		svc := New(st, idx)
		res, err := svc.SearchDoctors(context.Background(), SearchQuery{
			Query:            "asha",
			SpecializationID: &spec,
			Page:             pagination.New(1, 10),
		})
		require.NoError(t, err)
		assert.Len(t, res.Data, 1)
		assert.Equal(t, "asha", st.lastQuery.Query)
		assert.Equal(t, spec.String(), st.lastQuery.SpecializationID)
	}
}

func TestGetDoctor(t *testing.T) {
	st := newFakeStore()
	ok := addDoctor(st, "Asha", repo.VerificationApproved)
	pending := addDoctor(st, "Pending", repo.VerificationPending)
	svc := New(st, newFakeIndex())

	d, err := svc.GetDoctor(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, 4.5, d.AvgRating)
	assert.Len(t, d.Establishments, 1)

	_, err = svc.GetDoctor(context.Background(), pending)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	_, err = svc.GetDoctor(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestGetHospitalHidesUnapproved(t *testing.T) {
	st := newFakeStore()
	id := uuid.New()
	st.hospitals[id] = &repo.HospitalProfile{UserID: id, Step: repo.StepCompleted, VerificationStatus: repo.VerificationRejected}
	svc := New(st, newFakeIndex())

	_, err := svc.GetHospital(context.Background(), id)
	assert.ErrorIs(t, err, ErrHospitalNotFound)

	st.hospitals[id].VerificationStatus = repo.VerificationApproved
	h, err := svc.GetHospital(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, h.Establishments, 1)
}

func TestReindexDoctor(t *testing.T) {
	st := newFakeStore()
	spec := uuid.New()
	city := uuid.New()
	st.master[spec] = repo.MasterItem{ID: spec, Kind: repo.KindSpecialization, Name: "Cardiology"}
	st.master[city] = repo.MasterItem{ID: city, Kind: repo.KindCity, Name: "Pune"}

	id := addDoctor(st, "Asha", repo.VerificationApproved)
	st.doctors[id].SpecializationIDs = pq.StringArray{spec.String()}
	st.doctors[id].CityID = &city

	idx := newFakeIndex()
	svc := New(st, idx)
	require.NoError(t, svc.ReindexDoctor(context.Background(), id))

	doc := idx.upserted[id.String()]
	assert.Equal(t, "Asha", doc.FullName)
	assert.Equal(t, []string{"Cardiology"}, doc.Specializations)
	assert.Equal(t, "Pune", doc.City)

	st.doctors[id].VerificationStatus = repo.VerificationRejected
	require.NoError(t, svc.ReindexDoctor(context.Background(), id))
	assert.Equal(t, []string{id.String()}, idx.deleted)
}

func TestSyncIndex(t *testing.T) {
	st := newFakeStore()
	addDoctor(st, "Asha", repo.VerificationApproved)
	addDoctor(st, "Bala", repo.VerificationApproved)
	addDoctor(st, "Chen", repo.VerificationPending)
	idx := newFakeIndex()

	n, err := New(st, idx).SyncIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, idx.ensured)

	_, err = New(st, &fakeIndex{}).SyncIndex(context.Background())
	assert.ErrorIs(t, err, search.ErrDisabled)
}

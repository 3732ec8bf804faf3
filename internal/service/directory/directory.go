// Package directory serves public discovery of approved doctors and
// hospitals and keeps the doctor search index in sync.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
	"github.com/Alijeyrad/healthmarket_backend/pkg/search"
)

type Store interface {
	ListApprovedDoctors(ctx context.Context, f repo.DoctorFilter, limit, offset int) ([]repo.DoctorProfile, int, error)
	IsListableDoctor(ctx context.Context, userID uuid.UUID) (bool, error)
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
	ListApprovedHospitals(ctx context.Context, cityID *uuid.UUID, limit, offset int) ([]repo.HospitalProfile, int, error)
	GetHospitalProfile(ctx context.Context, userID uuid.UUID) (*repo.HospitalProfile, error)
	ListEstablishmentsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]repo.Establishment, error)
	ListEstablishmentsByOwner(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]repo.Establishment, error)
	MasterItemsByIDs(ctx context.Context, kind string, ids []uuid.UUID) ([]repo.MasterItem, error)
}

type SearchQuery struct {
	Query            string
	SpecializationID *uuid.UUID
	CityID           *uuid.UUID
	Page             pagination.Params
}

type DoctorDetail struct {
	Profile        *repo.DoctorProfile  `json:"profile"`
	Establishments []repo.Establishment `json:"establishments"`
	AvgRating      float64              `json:"avg_rating"`
	RatingCount    int                  `json:"rating_count"`
}

type HospitalDetail struct {
	Profile        *repo.HospitalProfile `json:"profile"`
	Establishments []repo.Establishment  `json:"establishments"`
}

type Service interface {
	SearchDoctors(ctx context.Context, q SearchQuery) (pagination.Response[repo.DoctorProfile], error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorDetail, error)
	ListHospitals(ctx context.Context, cityID *uuid.UUID, p pagination.Params) (pagination.Response[repo.HospitalProfile], error)
	GetHospital(ctx context.Context, id uuid.UUID) (*HospitalDetail, error)

	// ReindexDoctor upserts the doctor's search document when listable and
	// removes it otherwise.
	ReindexDoctor(ctx context.Context, doctorID uuid.UUID) error
	// SyncIndex rebuilds the search index from the database.
	SyncIndex(ctx context.Context) (int, error)
}

type directoryService struct {
	store Store
	index search.DoctorIndex
}

func New(store Store, index search.DoctorIndex) Service {
	return &directoryService{store: store, index: index}
}

// ---------------------------------------------------------------------------
// Doctors
// ---------------------------------------------------------------------------

func (s *directoryService) SearchDoctors(ctx context.Context, q SearchQuery) (pagination.Response[repo.DoctorProfile], error) {
	q.Query = strings.TrimSpace(q.Query)

	if s.index.Enabled() {
		res, err := s.searchIndex(ctx, q)
		if err == nil {
			return res, nil
		}
		slog.Warn("doctor search index failed, using database", "error", err)
	}

	f := repo.DoctorFilter{Query: q.Query, CityID: q.CityID}
	if q.SpecializationID != nil {
		f.SpecializationID = q.SpecializationID.String()
	}
	docs, total, err := s.store.ListApprovedDoctors(ctx, f, q.Page.Limit, q.Page.Offset())
	if err != nil {
		return pagination.Response[repo.DoctorProfile]{}, fmt.Errorf("list doctors: %w", err)
	}
	return pagination.NewResponse(docs, total, q.Page), nil
}

// searchIndex ranks with Typesense and loads rows from the database, which
// stays the source of truth for what is listable.
func (s *directoryService) searchIndex(ctx context.Context, q SearchQuery) (pagination.Response[repo.DoctorProfile], error) {
	sq := search.Query{Text: q.Query, Page: q.Page.Page, Limit: q.Page.Limit}
	if q.SpecializationID != nil {
		sq.SpecializationID = q.SpecializationID.String()
	}
	if q.CityID != nil {
		sq.CityID = q.CityID.String()
	}

	hits, err := s.index.SearchDoctors(ctx, sq)
	if err != nil {
		return pagination.Response[repo.DoctorProfile]{}, err
	}

	ids := make([]uuid.UUID, 0, len(hits.IDs))
	for _, raw := range hits.IDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return pagination.NewResponse([]repo.DoctorProfile{}, hits.Total, q.Page), nil
	}

	rows, _, err := s.store.ListApprovedDoctors(ctx, repo.DoctorFilter{IDs: ids}, len(ids), 0)
	if err != nil {
		return pagination.Response[repo.DoctorProfile]{}, fmt.Errorf("load doctors: %w", err)
	}

	byID := make(map[uuid.UUID]repo.DoctorProfile, len(rows))
	for _, r := range rows {
		byID[r.UserID] = r
	}
	ordered := make([]repo.DoctorProfile, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return pagination.NewResponse(ordered, hits.Total, q.Page), nil
}

func (s *directoryService) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorDetail, error) {
	ok, err := s.store.IsListableDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}

	p, err := s.store.GetDoctorProfile(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	ests, err := s.store.ListEstablishmentsForDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DoctorDetail{
		Profile:        p,
		Establishments: ests,
		AvgRating:      p.AvgRating,
		RatingCount:    p.RatingCount,
	}, nil
}

// ---------------------------------------------------------------------------
// Hospitals
// ---------------------------------------------------------------------------

func (s *directoryService) ListHospitals(ctx context.Context, cityID *uuid.UUID, p pagination.Params) (pagination.Response[repo.HospitalProfile], error) {
	rows, total, err := s.store.ListApprovedHospitals(ctx, cityID, p.Limit, p.Offset())
	if err != nil {
		return pagination.Response[repo.HospitalProfile]{}, fmt.Errorf("list hospitals: %w", err)
	}
	return pagination.NewResponse(rows, total, p), nil
}

func (s *directoryService) GetHospital(ctx context.Context, id uuid.UUID) (*HospitalDetail, error) {
	p, err := s.store.GetHospitalProfile(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrHospitalNotFound
		}
		return nil, fmt.Errorf("get hospital: %w", err)
	}
	if p.VerificationStatus != repo.VerificationApproved || p.Step != repo.StepCompleted {
		return nil, ErrHospitalNotFound
	}
	ests, err := s.store.ListEstablishmentsByOwner(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return &HospitalDetail{Profile: p, Establishments: ests}, nil
}

// ---------------------------------------------------------------------------
// Index maintenance
// ---------------------------------------------------------------------------

func (s *directoryService) ReindexDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if !s.index.Enabled() {
		return nil
	}

	ok, err := s.store.IsListableDoctor(ctx, doctorID)
	if err != nil {
		return err
	}
	if !ok {
		return s.index.DeleteDoctor(ctx, doctorID.String())
	}

	p, err := s.store.GetDoctorProfile(ctx, doctorID)
	if err != nil {
		return err
	}
	doc, err := s.document(ctx, p)
	if err != nil {
		return err
	}
	return s.index.UpsertDoctor(ctx, doc)
}

func (s *directoryService) SyncIndex(ctx context.Context) (int, error) {
	if !s.index.Enabled() {
		return 0, search.ErrDisabled
	}
	if err := s.index.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	const batch = 100
	indexed := 0
	for offset := 0; ; offset += batch {
		rows, _, err := s.store.ListApprovedDoctors(ctx, repo.DoctorFilter{}, batch, offset)
		if err != nil {
			return indexed, err
		}
		for i := range rows {
			doc, err := s.document(ctx, &rows[i])
			if err != nil {
				return indexed, err
			}
			if err := s.index.UpsertDoctor(ctx, doc); err != nil {
				return indexed, err
			}
			indexed++
		}
		if len(rows) < batch {
			return indexed, nil
		}
	}
}

func (s *directoryService) document(ctx context.Context, p *repo.DoctorProfile) (search.DoctorDocument, error) {
	doc := search.DoctorDocument{
		ID:                p.UserID.String(),
		FullName:          p.FullName,
		SpecializationIDs: []string(p.SpecializationIDs),
		ExperienceYears:   p.ExperienceYears,
		ConsultationFee:   p.ConsultationFee,
		AvgRating:         p.AvgRating,
		RatingCount:       p.RatingCount,
	}

	specIDs := make([]uuid.UUID, 0, len(p.SpecializationIDs))
	for _, raw := range p.SpecializationIDs {
		if id, err := uuid.Parse(raw); err == nil {
			specIDs = append(specIDs, id)
		}
	}
	specs, err := s.store.MasterItemsByIDs(ctx, repo.KindSpecialization, specIDs)
	if err != nil {
		return doc, err
	}
	for _, m := range specs {
		doc.Specializations = append(doc.Specializations, m.Name)
	}

	if p.CityID != nil {
		doc.CityID = p.CityID.String()
		cities, err := s.store.MasterItemsByIDs(ctx, repo.KindCity, []uuid.UUID{*p.CityID})
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return doc, err
		}
		if len(cities) > 0 {
			doc.City = cities[0].Name
		}
	}
	return doc, nil
}

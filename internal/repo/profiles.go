package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	tableDoctorProfiles   = "doctor_profiles"
	tableHospitalProfiles = "hospital_profiles"
	tablePatientProfiles  = "patient_profiles"
)

// ErrStale is returned by conditional updates whose guard no longer holds.
var ErrStale = errors.New("repo: stale state")

// StepAdvance moves an onboarding step forward only if it still equals From.
type StepAdvance struct {
	From string
	To   string
}

// ProfileKind selects the doctor or hospital profile table.
type ProfileKind string

const (
	DoctorProfiles   ProfileKind = tableDoctorProfiles
	HospitalProfiles ProfileKind = tableHospitalProfiles
)

// ProfileKindForRole maps a users.role to its onboarding table.
func ProfileKindForRole(role string) (ProfileKind, bool) {
	switch role {
	case RoleDoctor:
		return DoctorProfiles, true
	case RoleHospital:
		return HospitalProfiles, true
	}
	return "", false
}

func (c *Client) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	var p DoctorProfile
	if err := getOne(ctx, c.q.From(tableDoctorProfiles).Where(goqu.Ex{"user_id": userID}), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetHospitalProfile(ctx context.Context, userID uuid.UUID) (*HospitalProfile, error) {
	var p HospitalProfile
	if err := getOne(ctx, c.q.From(tableHospitalProfiles).Where(goqu.Ex{"user_id": userID}), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	if err := getOne(ctx, c.q.From(tablePatientProfiles).Where(goqu.Ex{"user_id": userID}), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveSection writes section fields. With adv set, the write only applies
// while the step still equals adv.From, otherwise ErrStale. Reaching the
// completed step also stamps completed_at and marks the profile pending.
func (c *Client) SaveSection(ctx context.Context, kind ProfileKind, userID uuid.UUID, fields map[string]any, adv *StepAdvance) error {
	now := time.Now().UTC()
	rec := goqu.Record{"updated_at": now}
	for k, v := range fields {
		if s, ok := v.([]string); ok {
			v = pq.StringArray(s)
		}
		rec[k] = v
	}

	where := goqu.Ex{"user_id": userID}
	if adv != nil {
		where["step"] = adv.From
		rec["step"] = adv.To
		if adv.To == StepCompleted {
			rec["completed_at"] = now
			rec["verification_status"] = VerificationPending
		}
	}

	n, err := exec(ctx, c.q.Update(string(kind)).Set(rec).Where(where).Executor())
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	if n == 0 {
		if adv != nil {
			return ErrStale
		}
		return ErrNotFound
	}
	return nil
}

// SetVerification records an admin decision on a completed profile.
func (c *Client) SetVerification(ctx context.Context, kind ProfileKind, userID uuid.UUID, status, note string) error {
	now := time.Now().UTC()
	rec := goqu.Record{
		"verification_status": status,
		"verification_note":   note,
		"updated_at":          now,
		"verified_at":         nil,
	}
	if status == VerificationApproved {
		rec["verified_at"] = now
	}

	n, err := exec(ctx, c.q.Update(string(kind)).
		Set(rec).
		Where(goqu.Ex{"user_id": userID, "step": StepCompleted}).
		Executor())
	if err != nil {
		return fmt.Errorf("set verification: %w", err)
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

// ApplyRating folds one rating into the running average in a single statement.
func (c *Client) ApplyRating(ctx context.Context, kind ProfileKind, userID uuid.UUID, rating int) error {
	return execOne(ctx, c.q.Update(string(kind)).
		Set(goqu.Record{
			"avg_rating":   goqu.L("(avg_rating * rating_count + ?) / (rating_count + 1)", rating),
			"rating_count": goqu.L("rating_count + 1"),
		}).
		Where(goqu.Ex{"user_id": userID}).
		Executor())
}

func (c *Client) UpsertPatientProfile(ctx context.Context, p *PatientProfile) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := exec(ctx, c.q.Insert(tablePatientProfiles).
		Rows(*p).
		OnConflict(goqu.DoUpdate("user_id", goqu.Record{
			"full_name":         p.FullName,
			"gender":            p.Gender,
			"date_of_birth":     p.DateOfBirth,
			"blood_group":       p.BloodGroup,
			"city_id":           p.CityID,
			"emergency_contact": p.EmergencyContact,
			"completed":         p.Completed,
			"updated_at":        now,
		})).
		Executor())
	if err != nil {
		return fmt.Errorf("upsert patient profile: %w", err)
	}
	return nil
}

// DoctorFilter narrows public doctor listings. Only approved, completed
// profiles of active users are ever returned.
type DoctorFilter struct {
	Query            string
	SpecializationID string
	CityID           *uuid.UUID
	IDs              []uuid.UUID
}

func (c *Client) listableDoctors(f DoctorFilter) *goqu.SelectDataset {
	ds := c.q.From(goqu.T(tableDoctorProfiles).As("d")).
		Join(goqu.T(tableUsers).As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("d.user_id")))).
		Where(
			goqu.I("d.verification_status").Eq(VerificationApproved),
			goqu.I("d.step").Eq(StepCompleted),
			goqu.I("u.status").Eq(UserStatusActive),
			goqu.I("u.deleted_at").IsNull(),
		)
	if f.Query != "" {
		ds = ds.Where(goqu.I("d.full_name").ILike("%" + f.Query + "%"))
	}
	if f.SpecializationID != "" {
		ds = ds.Where(goqu.L("d.specialization_ids @> ?", pq.StringArray{f.SpecializationID}))
	}
	if f.CityID != nil {
		ds = ds.Where(goqu.I("d.city_id").Eq(*f.CityID))
	}
	if len(f.IDs) > 0 {
		ds = ds.Where(goqu.I("d.user_id").In(f.IDs))
	}
	return ds
}

func (c *Client) ListApprovedDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]DoctorProfile, int, error) {
	ds := c.listableDoctors(f)
	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	var out []DoctorProfile
	err = ds.Select(goqu.I("d.*")).
		Order(goqu.I("d.avg_rating").Desc(), goqu.I("d.rating_count").Desc(), goqu.I("d.user_id").Asc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	return out, int(total), nil
}

// IsListableDoctor reports whether the user is an approved, completed doctor.
func (c *Client) IsListableDoctor(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := c.listableDoctors(DoctorFilter{IDs: []uuid.UUID{userID}}).CountContext(ctx)
	if err != nil {
		return false, fmt.Errorf("check doctor: %w", err)
	}
	return n > 0, nil
}

func (c *Client) ListApprovedHospitals(ctx context.Context, cityID *uuid.UUID, limit, offset int) ([]HospitalProfile, int, error) {
	ds := c.q.From(tableHospitalProfiles).Where(goqu.Ex{
		"verification_status": VerificationApproved,
		"step":                StepCompleted,
	})
	if cityID != nil {
		ds = ds.Where(goqu.Ex{"city_id": *cityID})
	}

	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count hospitals: %w", err)
	}

	var out []HospitalProfile
	err = ds.Order(goqu.C("name").Asc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("list hospitals: %w", err)
	}
	return out, int(total), nil
}

func (c *Client) CountProfilesByVerification(ctx context.Context, kind ProfileKind) (map[string]int, error) {
	var rows []struct {
		Status string `db:"verification_status"`
		Count  int    `db:"count"`
	}
	err := c.q.From(string(kind)).
		Select("verification_status", goqu.COUNT("*").As("count")).
		GroupBy("verification_status").
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", kind, err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

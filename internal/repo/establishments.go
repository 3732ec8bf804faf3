package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	tableEstablishments = "establishments"
	tableTimings        = "establishment_timings"
)

func (c *Client) CreateEstablishment(ctx context.Context, e *Establishment) error {
	now := time.Now().UTC()
	if e.ID == uuid.Nil {
		e.ID = newID()
	}
	e.IsActive = true
	e.CreatedAt, e.UpdatedAt = now, now

	if _, err := exec(ctx, c.q.Insert(tableEstablishments).Rows(*e).Executor()); err != nil {
		return fmt.Errorf("insert establishment: %w", err)
	}
	return nil
}

func (c *Client) GetEstablishment(ctx context.Context, id uuid.UUID) (*Establishment, error) {
	var e Establishment
	if err := getOne(ctx, c.q.From(tableEstablishments).Where(goqu.Ex{"id": id}), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEstablishment(ctx context.Context, e *Establishment) error {
	e.UpdatedAt = time.Now().UTC()
	return execOne(ctx, c.q.Update(tableEstablishments).
		Set(goqu.Record{
			"name":       e.Name,
			"address":    e.Address,
			"city_id":    e.CityID,
			"latitude":   e.Latitude,
			"longitude":  e.Longitude,
			"phone":      e.Phone,
			"updated_at": e.UpdatedAt,
		}).
		Where(goqu.Ex{"id": e.ID}).
		Executor())
}

// DeactivateEstablishment hides the establishment and disables its timings.
func (c *Client) DeactivateEstablishment(ctx context.Context, id uuid.UUID) error {
	return c.WithTx(ctx, func(tx *Client) error {
		now := time.Now().UTC()
		if err := execOne(ctx, tx.q.Update(tableEstablishments).
			Set(goqu.Record{"is_active": false, "updated_at": now}).
			Where(goqu.Ex{"id": id}).Executor()); err != nil {
			return err
		}
		_, err := exec(ctx, tx.q.Update(tableTimings).
			Set(goqu.Record{"is_active": false, "updated_at": now}).
			Where(goqu.Ex{"establishment_id": id}).Executor())
		return err
	})
}

func (c *Client) ListEstablishmentsByOwner(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]Establishment, error) {
	ds := c.q.From(tableEstablishments).Where(goqu.Ex{"owner_id": ownerID})
	if activeOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	var out []Establishment
	if err := ds.Order(goqu.C("created_at").Asc()).ScanStructsContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("list establishments: %w", err)
	}
	return out, nil
}

// ListEstablishmentsForDoctor returns the active establishments where the
// doctor has at least one active timing.
func (c *Client) ListEstablishmentsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Establishment, error) {
	sub := c.q.From(tableTimings).
		Select("establishment_id").
		Where(goqu.Ex{"doctor_id": doctorID, "is_active": true})

	var out []Establishment
	err := c.q.From(tableEstablishments).
		Where(goqu.Ex{"is_active": true}, goqu.C("id").In(sub)).
		Order(goqu.C("name").Asc()).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("list doctor establishments: %w", err)
	}
	return out, nil
}

func (c *Client) CountEstablishments(ctx context.Context, ownerID uuid.UUID) (int, error) {
	n, err := c.q.From(tableEstablishments).
		Where(goqu.Ex{"owner_id": ownerID, "is_active": true}).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("count establishments: %w", err)
	}
	return int(n), nil
}

// CountDoctorsAtOwner counts distinct doctors with active timings at the
// owner's establishments.
func (c *Client) CountDoctorsAtOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	_, err := c.q.From(goqu.T(tableTimings).As("t")).
		Join(goqu.T(tableEstablishments).As("e"), goqu.On(goqu.I("e.id").Eq(goqu.I("t.establishment_id")))).
		Select(goqu.COUNT(goqu.DISTINCT("t.doctor_id"))).
		Where(goqu.I("e.owner_id").Eq(ownerID), goqu.I("t.is_active").IsTrue()).
		ScanValContext(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Timings
// ---------------------------------------------------------------------------

// CreateTiming inserts a weekly window. Overlapping active windows of the
// same doctor and weekday violate ConstraintTimingOverlap.
func (c *Client) CreateTiming(ctx context.Context, t *Timing) error {
	now := time.Now().UTC()
	if t.ID == uuid.Nil {
		t.ID = newID()
	}
	t.IsActive = true
	t.CreatedAt, t.UpdatedAt = now, now

	if _, err := exec(ctx, c.q.Insert(tableTimings).Rows(*t).Executor()); err != nil {
		return fmt.Errorf("insert timing: %w", err)
	}
	return nil
}

func (c *Client) GetTiming(ctx context.Context, id uuid.UUID) (*Timing, error) {
	var t Timing
	if err := getOne(ctx, c.q.From(tableTimings).Where(goqu.Ex{"id": id}), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTiming(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, c.q.Delete(tableTimings).Where(goqu.Ex{"id": id}).Executor())
}

type TimingFilter struct {
	EstablishmentID *uuid.UUID
	DoctorID        *uuid.UUID
	DayOfWeek       *int
	ActiveOnly      bool
}

func (c *Client) ListTimings(ctx context.Context, f TimingFilter) ([]Timing, error) {
	ds := c.q.From(tableTimings)
	if f.EstablishmentID != nil {
		ds = ds.Where(goqu.Ex{"establishment_id": *f.EstablishmentID})
	}
	if f.DoctorID != nil {
		ds = ds.Where(goqu.Ex{"doctor_id": *f.DoctorID})
	}
	if f.DayOfWeek != nil {
		ds = ds.Where(goqu.Ex{"day_of_week": *f.DayOfWeek})
	}
	if f.ActiveOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}

	var out []Timing
	err := ds.Order(goqu.C("day_of_week").Asc(), goqu.C("start_minute").Asc()).ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("list timings: %w", err)
	}
	return out, nil
}

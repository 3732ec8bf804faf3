package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const tableAppointments = "appointments"

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	// OwnerID matches appointments at establishments owned by this user.
	OwnerID *uuid.UUID
	Status  string
	From    *time.Time
	To      *time.Time
}

func (c *Client) filterAppointments(f AppointmentFilter) *goqu.SelectDataset {
	ds := c.q.From(tableAppointments)
	if f.PatientID != nil {
		ds = ds.Where(goqu.Ex{"patient_id": *f.PatientID})
	}
	if f.DoctorID != nil {
		ds = ds.Where(goqu.Ex{"doctor_id": *f.DoctorID})
	}
	if f.OwnerID != nil {
		owned := c.q.From(tableEstablishments).Select("id").Where(goqu.Ex{"owner_id": *f.OwnerID})
		ds = ds.Where(goqu.C("establishment_id").In(owned))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.Ex{"status": f.Status})
	}
	if f.From != nil {
		ds = ds.Where(goqu.C("start_time").Gte(*f.From))
	}
	if f.To != nil {
		ds = ds.Where(goqu.C("start_time").Lt(*f.To))
	}
	return ds
}

// CreateAppointment inserts a booked appointment. A concurrent booking of an
// overlapping slot violates ConstraintDoctorOverlap, a second booking by the
// same patient at the same start violates ConstraintPatientStartBooked.
func (c *Client) CreateAppointment(ctx context.Context, a *Appointment) error {
	now := time.Now().UTC()
	if a.ID == uuid.Nil {
		a.ID = newID()
	}
	if a.Status == "" {
		a.Status = AppointmentBooked
	}
	a.CreatedAt, a.UpdatedAt = now, now

	if _, err := exec(ctx, c.q.Insert(tableAppointments).Rows(*a).Executor()); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (c *Client) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	if err := getOne(ctx, c.q.From(tableAppointments).Where(goqu.Ex{"id": id}), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ListAppointments(ctx context.Context, f AppointmentFilter, limit, offset int) ([]Appointment, int, error) {
	ds := c.filterAppointments(f)
	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	var out []Appointment
	err = ds.Order(goqu.C("start_time").Desc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	return out, int(total), nil
}

// BookedForDoctor returns booked appointments overlapping [from, to).
func (c *Client) BookedForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	var out []Appointment
	err := c.q.From(tableAppointments).
		Where(
			goqu.Ex{"doctor_id": doctorID, "status": AppointmentBooked},
			goqu.C("start_time").Lt(to),
			goqu.C("end_time").Gt(from),
		).
		Order(goqu.C("start_time").Asc()).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("list booked: %w", err)
	}
	return out, nil
}

// RescheduleAppointment retires the booked appointment oldID and books next
// in its place, linking both rows. Fails with ErrStale if oldID is no longer
// booked.
func (c *Client) RescheduleAppointment(ctx context.Context, oldID uuid.UUID, next *Appointment) error {
	return c.WithTx(ctx, func(tx *Client) error {
		now := time.Now().UTC()

		n, err := exec(ctx, tx.q.Update(tableAppointments).
			Set(goqu.Record{"status": AppointmentRescheduled, "updated_at": now}).
			Where(goqu.Ex{"id": oldID, "status": AppointmentBooked}).
			Executor())
		if err != nil {
			return fmt.Errorf("retire appointment: %w", err)
		}
		if n == 0 {
			return ErrStale
		}

		next.RescheduledFromID = &oldID
		if err := tx.CreateAppointment(ctx, next); err != nil {
			return err
		}

		return execOne(ctx, tx.q.Update(tableAppointments).
			Set(goqu.Record{"rescheduled_to_id": next.ID}).
			Where(goqu.Ex{"id": oldID}).
			Executor())
	})
}

func (c *Client) CancelAppointment(ctx context.Context, id, by uuid.UUID, reason string) error {
	now := time.Now().UTC()
	n, err := exec(ctx, c.q.Update(tableAppointments).
		Set(goqu.Record{
			"status":        AppointmentCancelled,
			"cancel_reason": reason,
			"cancelled_by":  by,
			"cancelled_at":  now,
			"updated_at":    now,
		}).
		Where(goqu.Ex{"id": id, "status": AppointmentBooked}).
		Executor())
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

// CompleteAppointment closes a booked appointment whose start has passed.
func (c *Client) CompleteAppointment(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	n, err := exec(ctx, c.q.Update(tableAppointments).
		Set(goqu.Record{"status": AppointmentCompleted, "completed_at": now, "updated_at": now}).
		Where(goqu.Ex{"id": id, "status": AppointmentBooked}, goqu.C("start_time").Lte(now)).
		Executor())
	if err != nil {
		return fmt.Errorf("complete appointment: %w", err)
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}

func (c *Client) CountAppointmentsByStatus(ctx context.Context, f AppointmentFilter) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err := c.filterAppointments(f).
		Select("status", goqu.COUNT("*").As("count")).
		GroupBy("status").
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func (c *Client) CountAppointments(ctx context.Context, f AppointmentFilter) (int, error) {
	n, err := c.filterAppointments(f).CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return int(n), nil
}

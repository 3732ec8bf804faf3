package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	tablePlatformFeedback    = "platform_feedback"
	tableAppointmentFeedback = "appointment_feedback"
)

func (c *Client) CreatePlatformFeedback(ctx context.Context, f *PlatformFeedback) error {
	if f.ID == uuid.Nil {
		f.ID = newID()
	}
	f.CreatedAt = time.Now().UTC()
	if _, err := exec(ctx, c.q.Insert(tablePlatformFeedback).Rows(*f).Executor()); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (c *Client) ListPlatformFeedback(ctx context.Context, limit, offset int) ([]PlatformFeedback, int, error) {
	ds := c.q.From(tablePlatformFeedback)
	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}
	var out []PlatformFeedback
	err = ds.Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	return out, int(total), nil
}

type FeedbackStats struct {
	Count int     `db:"count"`
	Avg   float64 `db:"avg"`
}

func (c *Client) PlatformFeedbackStats(ctx context.Context) (FeedbackStats, error) {
	var s FeedbackStats
	_, err := c.q.From(tablePlatformFeedback).
		Select(
			goqu.COUNT("*").As("count"),
			goqu.COALESCE(goqu.AVG("rating"), 0).As("avg"),
		).
		ScanStructContext(ctx, &s)
	if err != nil {
		return FeedbackStats{}, fmt.Errorf("feedback stats: %w", err)
	}
	return s, nil
}

// CreateAppointmentFeedback stores the review and folds its rating into the
// doctor's profile, and the owning hospital's when hospitalID is set, in one
// transaction. A second review violates ConstraintAppointmentFeedback.
func (c *Client) CreateAppointmentFeedback(ctx context.Context, f *AppointmentFeedback, hospitalID *uuid.UUID) error {
	if f.ID == uuid.Nil {
		f.ID = newID()
	}
	f.CreatedAt = time.Now().UTC()

	return c.WithTx(ctx, func(tx *Client) error {
		if _, err := exec(ctx, tx.q.Insert(tableAppointmentFeedback).Rows(*f).Executor()); err != nil {
			return fmt.Errorf("insert appointment feedback: %w", err)
		}
		if err := tx.ApplyRating(ctx, DoctorProfiles, f.DoctorID, f.Rating); err != nil {
			return fmt.Errorf("rate doctor: %w", err)
		}
		if hospitalID != nil {
			if err := tx.ApplyRating(ctx, HospitalProfiles, *hospitalID, f.Rating); err != nil {
				return fmt.Errorf("rate hospital: %w", err)
			}
		}
		return nil
	})
}

func (c *Client) ListDoctorReviews(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]AppointmentFeedback, int, error) {
	ds := c.q.From(tableAppointmentFeedback).Where(goqu.Ex{"doctor_id": doctorID})
	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	var out []AppointmentFeedback
	err = ds.Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return out, int(total), nil
}

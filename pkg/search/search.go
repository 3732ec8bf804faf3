// Package search indexes approved doctors in Typesense for public discovery.
package search

import (
	"context"
	"errors"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

// ErrDisabled is returned by the disabled index; callers fall back to SQL.
var ErrDisabled = errors.New("search disabled")

const defaultCollection = "doctors"

// DoctorDocument is the indexed shape of an approved doctor.
type DoctorDocument struct {
	ID                string
	FullName          string
	Specializations   []string
	SpecializationIDs []string
	CityID            string
	City              string
	ExperienceYears   int
	ConsultationFee   int64
	AvgRating         float64
	RatingCount       int
}

type Query struct {
	Text             string
	SpecializationID string
	CityID           string
	Page             int
	Limit            int
}

// Result holds matching doctor IDs in rank order.
type Result struct {
	IDs   []string
	Total int
}

type DoctorIndex interface {
	Enabled() bool
	EnsureSchema(ctx context.Context) error
	UpsertDoctor(ctx context.Context, doc DoctorDocument) error
	DeleteDoctor(ctx context.Context, id string) error
	SearchDoctors(ctx context.Context, q Query) (Result, error)
}

// New returns a Typesense index, or a disabled one when search is off.
func New(cfg config.SearchConfig) DoctorIndex {
	if !cfg.Enabled {
		return Disabled{}
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}
	return NewTypesense(cfg.URL, cfg.APIKey, collection)
}

// Disabled satisfies DoctorIndex without a backend.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }
func (Disabled) EnsureSchema(context.Context) error { return nil }
func (Disabled) UpsertDoctor(context.Context, DoctorDocument) error { return nil }
func (Disabled) DeleteDoctor(context.Context, string) error { return nil }
func (Disabled) SearchDoctors(context.Context, Query) (Result, error) {
	return Result{}, ErrDisabled
}

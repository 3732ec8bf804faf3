package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

const dateLayout = "2006-01-02"

// Go field names checked for each onboarding section.
var (
	doctorSectionFields = map[string][]string{
		repo.StepSectionA: {"FullName", "Gender", "DateOfBirth", "Email", "CityID"},
		repo.StepSectionB: {"SpecializationIDs", "QualificationIDs", "ExperienceYears", "RegistrationNumber", "RegistrationCouncil", "RegistrationYear"},
		repo.StepSectionC: {"ConsultationFee", "Bio", "LanguageIDs", "ServiceIDs"},
	}
	hospitalSectionFields = map[string][]string{
		repo.StepSectionA: {"Name", "HospitalType", "RegistrationNumber"},
		repo.StepSectionB: {"Address", "CityID", "Pincode", "ContactEmail", "ContactPhone"},
		repo.StepSectionC: {"BedCount", "SpecializationIDs", "Website"},
	}
)

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidField, field, reason)
}

// checkTags maps tag failures onto ErrInvalidField.
func checkTags(err error) error {
	if err == nil {
		return nil
	}
	var verr validation.Errors
	if errors.As(err, &verr) {
		return fmt.Errorf("%w: %w", ErrInvalidField, verr)
	}
	return err
}

// date parses a value already checked by the datetime tag.
func date(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

// MasterLookup resolves master data references.
type MasterLookup interface {
	MasterItemsByIDs(ctx context.Context, kind string, ids []uuid.UUID) ([]repo.MasterItem, error)
}

// checkRefs verifies every id is an active master item of kind and returns
// them as strings for a text[] column.
func checkRefs(ctx context.Context, m MasterLookup, field, kind string, raw []string, required bool) ([]string, error) {
	if len(raw) == 0 {
		if required {
			return nil, invalid(field, "needs at least one entry")
		}
		return []string{}, nil
	}

	seen := make(map[uuid.UUID]bool, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, invalid(field, "contains an invalid id")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	items, err := m.MasterItemsByIDs(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	if len(items) != len(ids) {
		return nil, invalid(field, "references unknown "+kind)
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out, nil
}

// checkCity validates an optional city reference.
func checkCity(ctx context.Context, m MasterLookup, raw string, required bool) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return nil, invalid("city_id", "is required")
		}
		return nil, nil
	}
	refs, err := checkRefs(ctx, m, "city_id", repo.KindCity, []string{raw}, true)
	if err != nil {
		return nil, err
	}
	id := uuid.MustParse(refs[0])
	return &id, nil
}

package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

type Typesense struct {
	client     *typesense.Client
	collection string
}

func NewTypesense(url, apiKey, collection string) *Typesense {
	client := typesense.NewClient(
		typesense.WithServer(url),
		typesense.WithAPIKey(apiKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)
	return &Typesense{client: client, collection: collection}
}

func (t *Typesense) Enabled() bool { return true }

// EnsureSchema creates the collection if it does not exist yet.
func (t *Typesense) EnsureSchema(ctx context.Context) error {
	if _, err := t.client.Collection(t.collection).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: t.collection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "full_name", Type: "string"},
			{Name: "specializations", Type: "string[]"},
			{Name: "specialization_ids", Type: "string[]", Facet: pointer.True()},
			{Name: "city_id", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "city", Type: "string", Optional: pointer.True()},
			{Name: "experience_years", Type: "int32"},
			{Name: "consultation_fee", Type: "int64"},
			{Name: "avg_rating", Type: "float"},
			{Name: "rating_count", Type: "int32"},
		},
		DefaultSortingField: pointer.String("avg_rating"),
	}

	if _, err := t.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("create typesense collection: %w", err)
	}
	return nil
}

func (t *Typesense) UpsertDoctor(ctx context.Context, doc DoctorDocument) error {
	document := map[string]interface{}{
		"id":                 doc.ID,
		"full_name":          doc.FullName,
		"specializations":    nonNil(doc.Specializations),
		"specialization_ids": nonNil(doc.SpecializationIDs),
		"city_id":            doc.CityID,
		"city":               doc.City,
		"experience_years":   doc.ExperienceYears,
		"consultation_fee":   doc.ConsultationFee,
		"avg_rating":         doc.AvgRating,
		"rating_count":       doc.RatingCount,
	}

	if _, err := t.client.Collection(t.collection).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("index doctor %s: %w", doc.ID, err)
	}
	return nil
}

func (t *Typesense) DeleteDoctor(ctx context.Context, id string) error {
	if _, err := t.client.Collection(t.collection).Document(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete doctor %s from index: %w", id, err)
	}
	return nil
}

func (t *Typesense) SearchDoctors(ctx context.Context, q Query) (Result, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		text = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(text),
		QueryBy: pointer.String("full_name,specializations,city"),
		SortBy:  pointer.String("avg_rating:desc,rating_count:desc"),
		Page:    pointer.Int(max(q.Page, 1)),
		PerPage: pointer.Int(max(q.Limit, 1)),
	}
	if filter := filterBy(q); filter != "" {
		params.FilterBy = pointer.String(filter)
	}

	res, err := t.client.Collection(t.collection).Documents().Search(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("search doctors: %w", err)
	}

	out := Result{}
	if res.Found != nil {
		out.Total = *res.Found
	}
	if res.Hits == nil {
		return out, nil
	}
	for _, hit := range *res.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok {
			out.IDs = append(out.IDs, id)
		}
	}
	return out, nil
}

func filterBy(q Query) string {
	var parts []string
	if q.SpecializationID != "" {
		parts = append(parts, "specialization_ids:="+q.SpecializationID)
	}
	if q.CityID != "" {
		parts = append(parts, "city_id:="+q.CityID)
	}
	return strings.Join(parts, " && ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

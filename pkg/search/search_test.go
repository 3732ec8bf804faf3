package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

func TestNewDisabled(t *testing.T) {
	idx := New(config.SearchConfig{Enabled: false})
	assert.False(t, idx.Enabled())

	_, err := idx.SearchDoctors(context.Background(), Query{Text: "cardio"})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, idx.UpsertDoctor(context.Background(), DoctorDocument{ID: "x"}))
}

func TestNewTypesenseDefaultsCollection(t *testing.T) {
	idx := New(config.SearchConfig{Enabled: true, URL: "http://localhost:8108", APIKey: "k"})
	ts, ok := idx.(*Typesense)
	require.True(t, ok)
	assert.Equal(t, defaultCollection, ts.collection)
	assert.True(t, ts.Enabled())
}

func TestFilterBy(t *testing.T) {
	assert.Equal(t, "", filterBy(Query{}))
	assert.Equal(t, "city_id:=c1", filterBy(Query{CityID: "c1"}))
	assert.Equal(t, "specialization_ids:=s1 && city_id:=c1", filterBy(Query{SpecializationID: "s1", CityID: "c1"}))
}

package faq

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
)

type fakeStore struct {
	faqs          map[uuid.UUID]*repo.FAQ
	lastAudiences []string
}

func (f *fakeStore) CreateFAQ(_ context.Context, q *repo.FAQ) error {
	q.ID = uuid.New()
	q.IsActive = true
	cp := *q
	f.faqs[q.ID] = &cp
	return nil
}

func (f *fakeStore) GetFAQ(_ context.Context, id uuid.UUID) (*repo.FAQ, error) {
	q, ok := f.faqs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeStore) UpdateFAQ(_ context.Context, q *repo.FAQ) error {
	cp := *q
	f.faqs[q.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteFAQ(_ context.Context, id uuid.UUID) error {
	if _, ok := f.faqs[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.faqs, id)
	return nil
}

func (f *fakeStore) ListFAQs(_ context.Context, audiences []string) ([]repo.FAQ, error) {
	f.lastAudiences = audiences
	var out []repo.FAQ
	for _, q := range f.faqs {
		for _, a := range audiences {
			if q.Audience == a && q.IsActive {
				out = append(out, *q)
			}
		}
	}
	return out, nil
}

func TestListIncludesAll(t *testing.T) {
	st := &fakeStore{faqs: map[uuid.UUID]*repo.FAQ{}}
	svc := New(st)
	ctx := context.Background()

	for _, in := range []Input{
		{Audience: "all", Question: "What is this?", Answer: "A marketplace."},
		{Audience: "Doctor", Question: "How do I get verified?", Answer: "Complete onboarding."},
		{Audience: "patient", Question: "How do I book?", Answer: "Pick a slot."},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	got, err := svc.List(ctx, "doctor")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"all", "doctor"}, st.lastAudiences)

	got, err = svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.List(ctx, "nurse")
	assert.ErrorIs(t, err, ErrInvalidAudience)
}

func TestInputRules(t *testing.T) {
	svc := New(&fakeStore{faqs: map[uuid.UUID]*repo.FAQ{}})

	tests := []struct {
		name string
		in   Input
		want error
		msg  string
	}{
		{"unknown audience", Input{Audience: "nurse", Question: "Q", Answer: "A"}, ErrInvalidAudience, ErrInvalidAudience.Error()},
		{"missing answer", Input{Audience: "doctor", Question: "Q"}, ErrInvalidText, "invalid faq text: answer is required"},
		{"long question", Input{Audience: "doctor", Question: strings.Repeat("q", 501), Answer: "A"}, ErrInvalidText, "invalid faq text: question must be at most 500 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.EqualError(t, err, tt.msg)
		})
	}

	f, err := svc.Create(context.Background(), Input{Audience: " Doctor ", Question: "Q", Answer: "A"})
	require.NoError(t, err)
	assert.Equal(t, "doctor", f.Audience)
}

func TestCRUD(t *testing.T) {
	svc := New(&fakeStore{faqs: map[uuid.UUID]*repo.FAQ{}})
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Audience: "all", Question: " ", Answer: "x"})
	assert.ErrorIs(t, err, ErrInvalidText)

	f, err := svc.Create(ctx, Input{Audience: "all", Question: "Q", Answer: "A"})
	require.NoError(t, err)

	off := false
	updated, err := svc.Update(ctx, f.ID, Input{Audience: "hospital", Question: "Q2", Answer: "A2", IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, "hospital", updated.Audience)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, uuid.New(), Input{Audience: "all", Question: "Q", Answer: "A"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, f.ID))
	assert.ErrorIs(t, svc.Delete(ctx, f.ID), ErrNotFound)
}

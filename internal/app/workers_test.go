package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
)

type fakeNotifier struct {
	n    int
	err  error
	seen []string
}

func (f *fakeNotifier) FanOut(_ context.Context, ev events.Event) (int, error) {
	f.seen = append(f.seen, ev.Subject)
	return f.n, f.err
}

type fakeAlerter struct {
	subjects []string
	bodies   []string
}

func (f *fakeAlerter) AlertAdmins(_ context.Context, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func event(t *testing.T, subject string, payload any) events.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return events.Event{Subject: subject, Data: data}
}

func TestWorkerFansOutAppointmentEvents(t *testing.T) {
	n := &fakeNotifier{n: 3}
	a := &fakeAlerter{}
	w := &eventWorker{notifier: n, alerts: a}

	ev := event(t, events.SubjectAppointmentBooked, events.AppointmentEvent{AppointmentID: uuid.New()})
	require.NoError(t, w.Handle(context.Background(), ev))

	assert.Equal(t, []string{events.SubjectAppointmentBooked}, n.seen)
	assert.Empty(t, a.subjects)
}

func TestWorkerAlertsAdminsOnProfileCompleted(t *testing.T) {
	n := &fakeNotifier{n: 2}
	a := &fakeAlerter{}
	w := &eventWorker{notifier: n, alerts: a}

	uid := uuid.New()
	ev := event(t, events.SubjectProfileCompleted, events.ProfileEvent{UserID: uid, Role: "doctor", Status: "pending"})
	require.NoError(t, w.Handle(context.Background(), ev))

	require.Len(t, a.bodies, 1)
	assert.Contains(t, a.bodies[0], uid.String())
	assert.Contains(t, a.bodies[0], "doctor")
}

func TestWorkerSkipsAlertWithoutMailer(t *testing.T) {
	w := &eventWorker{notifier: &fakeNotifier{}}

	ev := event(t, events.SubjectProfileCompleted, events.ProfileEvent{UserID: uuid.New(), Role: "hospital"})
	assert.NoError(t, w.Handle(context.Background(), ev))
}

func TestWorkerReturnsFanOutError(t *testing.T) {
	boom := errors.New("db down")
	a := &fakeAlerter{}
	w := &eventWorker{notifier: &fakeNotifier{err: boom}, alerts: a}

	ev := event(t, events.SubjectProfileCompleted, events.ProfileEvent{UserID: uuid.New()})
	err := w.Handle(context.Background(), ev)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, a.subjects)
}

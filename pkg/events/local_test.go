package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSubject(t *testing.T) {
	tests := []struct {
		pattern, subject string
		want             bool
	}{
		{"healthmarket.appointment.booked", "healthmarket.appointment.booked", true},
		{"healthmarket.appointment.*", "healthmarket.appointment.cancelled", true},
		{"healthmarket.appointment.*", "healthmarket.profile.completed", false},
		{"healthmarket.*", "healthmarket.appointment.booked", false},
		{"healthmarket.>", "healthmarket.appointment.booked", true},
		{"healthmarket.>", "healthmarket", false},
		{"healthmarket.appointment.booked", "healthmarket.appointment", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchSubject(tt.pattern, tt.subject), "%s vs %s", tt.pattern, tt.subject)
	}
}

func TestLocalBusDelivers(t *testing.T) {
	bus := NewLocalBus()
	got := make(chan AppointmentEvent, 2)

	require.NoError(t, bus.Subscribe(SubjectAllAppointments, func(ctx context.Context, ev Event) error {
		var payload AppointmentEvent
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		got <- payload
		return nil
	}))
	require.NoError(t, bus.Subscribe(SubjectAllProfiles, func(ctx context.Context, ev Event) error {
		t.Errorf("profile handler received %s", ev.Subject)
		return nil
	}))

	id := uuid.New()
	require.NoError(t, bus.Publish(context.Background(), SubjectAppointmentBooked, AppointmentEvent{AppointmentID: id}))

	select {
	case p := <-got:
		assert.Equal(t, id, p.AppointmentID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	require.NoError(t, bus.Close())
	assert.Error(t, bus.Publish(context.Background(), SubjectAppointmentBooked, AppointmentEvent{}))
}

func TestLocalBusHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewLocalBus()
	done := make(chan struct{})

	_ = bus.Subscribe(SubjectProfileCompleted, func(context.Context, Event) error {
		return errors.New("boom")
	})
	_ = bus.Subscribe(SubjectProfileCompleted, func(context.Context, Event) error {
		close(done)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), SubjectProfileCompleted, ProfileEvent{Role: "doctor"}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler not called")
	}
	require.NoError(t, bus.Close())
}

package serialdome

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateApply(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		check  func(t *testing.T, st Status)
	}{
		{
			name:   "Homed sets azimuth, home flag and home position",
			events: []Event{HomedEvent{Azimuth: 90}},
			check: func(t *testing.T, st Status) {
				assert.Equal(t, 90.0, st.Azimuth)
				assert.Equal(t, 90.0, st.HomePosition)
				assert.True(t, st.AtHome)
				assert.False(t, st.Slewing)
			},
		},
		{
			name:   "Position report clears slewing",
			events: []Event{PositionEvent{Azimuth: 123.5}},
			check: func(t *testing.T, st Status) {
				assert.Equal(t, 123.5, st.Azimuth)
				assert.False(t, st.Slewing)
				assert.False(t, st.AtHome)
			},
		},
		{
			name: "Position at home position sets the home flag",
			events: []Event{
				HomedEvent{Azimuth: 90},
				PositionEvent{Azimuth: 45},
				PositionEvent{Azimuth: 90},
			},
			check: func(t *testing.T, st Status) {
				assert.True(t, st.AtHome)
			},
		},
		{
			name: "Shutter reports land on terminal phases in order",
			events: []Event{
				ShutterEvent{Open: true},
				ShutterEvent{Open: false},
			},
			check: func(t *testing.T, st Status) {
				assert.Equal(t, ShutterClosed, st.Shutter)
			},
		},
		{
			name:   "Synced",
			events: []Event{SyncedEvent{}},
			check: func(t *testing.T, st Status) {
				assert.True(t, st.Synced)
			},
		},
		{
			name:   "Parked",
			events: []Event{ParkedEvent{}},
			check: func(t *testing.T, st Status) {
				assert.True(t, st.AtPark)
			},
		},
		{
			name: "Unknown events change nothing",
			events: []Event{
				PositionEvent{Azimuth: 10},
				UnknownEvent{Raw: "BATTERY 12.4"},
			},
			check: func(t *testing.T, st Status) {
				assert.Equal(t, 10.0, st.Azimuth)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newState()
			s.reset(true)
			for _, ev := range tc.events {
				s.apply(ev)
			}
			tc.check(t, s.snapshot())
		})
	}
}

func TestStateWaitSatisfiedByEvent(t *testing.T) {
	s := newState()
	s.reset(true)

	done := make(chan error, 1)
	go func() {
		done <- s.wait(2*time.Second, func(st Status) bool { return st.AtPark })
	}()

	// Give the waiter a moment to block, then deliver the event.
	time.Sleep(10 * time.Millisecond)
	s.apply(ParkedEvent{})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after matching event")
	}
}

func TestStateWaitTimeout(t *testing.T) {
	s := newState()
	s.reset(true)

	err := s.wait(20*time.Millisecond, func(st Status) bool { return st.AtPark })
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestStateWaitAborted(t *testing.T) {
	s := newState()
	s.reset(true)

	done := make(chan error, 1)
	go func() {
		done <- s.wait(2*time.Second, func(st Status) bool { return st.AtPark })
	}()

	time.Sleep(10 * time.Millisecond)
	s.abort()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrAborted)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after abort")
	}
}

func TestStateWaitLinkLost(t *testing.T) {
	s := newState()
	s.reset(true)

	done := make(chan error, 1)
	go func() {
		done <- s.wait(2*time.Second, func(st Status) bool { return st.AtPark })
	}()

	time.Sleep(10 * time.Millisecond)
	s.linkLost()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrLinkDown)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after link loss")
	}
}

func TestStateWaitAlreadySatisfied(t *testing.T) {
	s := newState()
	s.reset(true)
	s.apply(ParkedEvent{})

	err := s.wait(time.Second, func(st Status) bool { return st.AtPark })
	assert.NoError(t, err)
}

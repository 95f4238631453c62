package dome_simulator

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domelink/pkg/drivers/serialdome"
)

func newSimDome(t *testing.T) *serialdome.Dome {
	t.Helper()

	sim := New(log.StandardLogger())
	sim.SlewRate = 3600 // fast motion keeps the test quick
	sim.ShutterDelay = 10 * time.Millisecond

	d := serialdome.NewDome(sim, log.StandardLogger(),
		serialdome.WithTimeout(2*time.Second))
	require.NoError(t, d.Connect())
	t.Cleanup(func() { d.Disconnect() })
	return d
}

func TestSimulatedSlew(t *testing.T) {
	d := newSimDome(t)

	require.NoError(t, d.SlewToAzimuth(135))
	st := d.Status()
	assert.Equal(t, 135.0, st.Azimuth)
	assert.False(t, st.Slewing)
}

func TestSimulatedShutterCycle(t *testing.T) {
	d := newSimDome(t)

	require.NoError(t, d.OpenShutter())
	assert.Equal(t, serialdome.ShutterOpen, d.Status().Shutter)

	require.NoError(t, d.CloseShutter())
	assert.Equal(t, serialdome.ShutterClosed, d.Status().Shutter)
}

func TestSimulatedFindHome(t *testing.T) {
	d := newSimDome(t)

	require.NoError(t, d.SlewToAzimuth(90))
	require.NoError(t, d.FindHome())

	st := d.Status()
	assert.True(t, st.AtHome)
	assert.Equal(t, 0.0, st.Azimuth)
}

func TestSimulatedParkCycle(t *testing.T) {
	d := newSimDome(t)

	require.NoError(t, d.SlewToAzimuth(45))
	require.NoError(t, d.SetPark())
	require.NoError(t, d.SlewToAzimuth(100))

	require.NoError(t, d.Park())
	st := d.Status()
	assert.True(t, st.AtPark)
	assert.Equal(t, 45.0, st.Azimuth)
}

func TestSimulatedSync(t *testing.T) {
	d := newSimDome(t)

	require.NoError(t, d.SyncToAzimuth(200))
	assert.True(t, d.Status().Synced)
}

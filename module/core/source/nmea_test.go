package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentence(body string) string {
	return fmt.Sprintf("$%s*%02X", body, checksum(body))
}

func newTestNMEA(lines ...string) *NMEA {
	return NewNMEA(io.NopCloser(strings.NewReader(strings.Join(lines, "\r\n")+"\r\n")), "gps-1")
}

func TestNMEA_RMC(t *testing.T) {
	n := newTestNMEA(
		sentence("GPGGA,123519,3728.749,N,12654.354,E,1,08,0.9,545.4,M,46.9,M,,"),
		sentence("GPRMC,123519,A,3728.749,N,12654.354,E,022.4,084.4,230394,003.1,W"),
	)

	s, err := n.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gps-1", s.DeviceID)
	assert.InDelta(t, 37.47915, s.Location.Lat, 1e-6)
	assert.InDelta(t, 126.9059, s.Location.Lon, 1e-6)
	assert.InDelta(t, 4.5, s.Accuracy, 1e-9)
	assert.Equal(t, time.Date(1994, 3, 23, 12, 35, 19, 0, time.UTC), s.Timestamp)

	_, err = n.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNMEA_SouthWest(t *testing.T) {
	n := newTestNMEA(sentence("GNRMC,081836,A,3751.65,S,14507.36,W,000.0,360.0,130998,011.3,E"))

	s, err := n.Next(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -37.860833, s.Location.Lat, 1e-6)
	assert.InDelta(t, -145.122667, s.Location.Lon, 1e-6)
	assert.Zero(t, s.Accuracy)
}

func TestNMEA_SkipsBadSentences(t *testing.T) {
	good := sentence("GPRMC,123519,A,3728.749,N,12654.354,E,022.4,084.4,230394,003.1,W")
	n := newTestNMEA(
		"garbage",
		"$GPRMC,123519,A,3728.749,N,12654.354,E,022.4,084.4,230394,003.1,W*00",
		sentence("GPRMC,123519,V,,,,,,,230394,,"),
		sentence("GPRMC,123519,A,3728.749,X,12654.354,E,022.4,084.4,230394,003.1,W"),
		sentence("GPGSV,3,1,11,03,03,111,00"),
		good,
	)

	s, err := n.Next(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 37.47915, s.Location.Lat, 1e-6)

	_, err = n.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNMEA_BadDateFallsBackToNow(t *testing.T) {
	n := newTestNMEA(sentence("GPRMC,12,A,3728.749,N,12654.354,E,0,0,,,"))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	s, err := n.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, s.Timestamp)
}

func TestNMEA_CancelledContext(t *testing.T) {
	n := newTestNMEA(sentence("GPRMC,123519,A,3728.749,N,12654.354,E,022.4,084.4,230394,003.1,W"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidChecksum(t *testing.T) {
	assert.True(t, validChecksum("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"))
	assert.False(t, validChecksum("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*48"))
	assert.False(t, validChecksum("$GPGGA,123519"))
	assert.False(t, validChecksum("$GPGGA*Z"))
}

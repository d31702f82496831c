package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

// uere is the user equivalent range error in meters used to turn HDOP into
// an accuracy estimate.
const uere = 5.0

// NMEA reads NMEA 0183 sentences and emits a sample for every valid RMC fix.
type NMEA struct {
	deviceID string
	rc       io.ReadCloser
	scanner  *bufio.Scanner
	hdop     float64
	now      func() time.Time
}

// OpenNMEA opens a serial GPS receiver at portPath. A zero baud defaults to 9600.
func OpenNMEA(portPath string, baud int, deviceID string) (*NMEA, error) {
	if baud == 0 {
		baud = 9600
	}
	port, err := serial.Open(portPath, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portPath, err)
	}
	return NewNMEA(port, deviceID), nil
}

func NewNMEA(rc io.ReadCloser, deviceID string) *NMEA {
	return &NMEA{
		deviceID: deviceID,
		rc:       rc,
		scanner:  bufio.NewScanner(rc),
		now:      time.Now,
	}
}

// Next returns io.EOF once the underlying stream ends. Closing the source
// unblocks a pending read.
func (n *NMEA) Next(ctx context.Context) (domain.Sample, error) {
	for n.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return domain.Sample{}, err
		}

		line := strings.TrimSpace(n.scanner.Text())
		if !strings.HasPrefix(line, "$") || !validChecksum(line) {
			continue
		}

		switch {
		case strings.HasPrefix(line, "$GPGGA"), strings.HasPrefix(line, "$GNGGA"):
			n.parseGGA(splitSentence(line))
		case strings.HasPrefix(line, "$GPRMC"), strings.HasPrefix(line, "$GNRMC"):
			if s, ok := n.parseRMC(splitSentence(line)); ok {
				return s, nil
			}
		}
	}

	if err := n.scanner.Err(); err != nil {
		return domain.Sample{}, fmt.Errorf("read nmea: %w", err)
	}
	return domain.Sample{}, io.EOF
}

func (n *NMEA) Close() error {
	return n.rc.Close()
}

// $GPRMC,hhmmss.ss,A,llll.ll,a,yyyyy.yy,a,x.x,x.x,ddmmyy,x.x,a
func (n *NMEA) parseRMC(parts []string) (domain.Sample, bool) {
	if len(parts) < 10 || parts[2] != "A" {
		return domain.Sample{}, false
	}

	lat, err := parseCoord(parts[3], parts[4], 'N', 'S')
	if err != nil {
		return domain.Sample{}, false
	}
	lon, err := parseCoord(parts[5], parts[6], 'E', 'W')
	if err != nil {
		return domain.Sample{}, false
	}

	ts, err := parseFixTime(parts[9], parts[1])
	if err != nil {
		ts = n.now()
	}

	return domain.Sample{
		DeviceID:  n.deviceID,
		Location:  domain.Coordinate{Lat: lat, Lon: lon},
		Accuracy:  n.hdop * uere,
		Timestamp: ts,
	}, true
}

// $GPGGA,hhmmss.ss,llll.ll,a,yyyyy.yy,a,x,xx,x.x,...
func (n *NMEA) parseGGA(parts []string) {
	if len(parts) < 9 {
		return
	}
	if hdop, err := strconv.ParseFloat(parts[8], 64); err == nil && hdop >= 0 {
		n.hdop = hdop
	}
}

func splitSentence(line string) []string {
	if idx := strings.Index(line, "*"); idx >= 0 {
		line = line[:idx]
	}
	return strings.Split(strings.TrimPrefix(line, "$"), ",")
}

// parseCoord converts ddmm.mmmm (or dddmm.mmmm) to signed decimal degrees.
func parseCoord(raw, hemi string, pos, neg byte) (float64, error) {
	if raw == "" || len(hemi) != 1 {
		return 0, errors.New("empty coordinate")
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	deg := math.Floor(val / 100)
	result := deg + (val-deg*100)/60

	switch hemi[0] {
	case pos:
		return result, nil
	case neg:
		return -result, nil
	}
	return 0, fmt.Errorf("bad hemisphere %q", hemi)
}

func parseFixTime(date, clock string) (time.Time, error) {
	if len(clock) < 6 {
		return time.Time{}, errors.New("short time field")
	}
	return time.Parse("020106150405", date+clock[:6])
}

func validChecksum(line string) bool {
	idx := strings.Index(line, "*")
	if idx < 0 || idx+3 > len(line) {
		return false
	}
	want, err := strconv.ParseUint(line[idx+1:idx+3], 16, 8)
	if err != nil {
		return false
	}
	return byte(want) == checksum(line[1:idx])
}

func checksum(body string) byte {
	var c byte
	for i := 0; i < len(body); i++ {
		c ^= body[i]
	}
	return c
}

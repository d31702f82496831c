// Package geofence decides when a stream of position samples enters or leaves
// a circular zone.
//
// A sample at exactly Radius meters from the center counts as inside.
package geofence

import (
	"errors"
	"fmt"
	"math"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Offset returns the point reached by travelling meters from c along the
// initial bearing (degrees clockwise from north). Negative meters travel the
// opposite way.
func Offset(c domain.Coordinate, bearing, meters float64) domain.Coordinate {
	d := meters / earthRadiusMeters
	brg := toRad(bearing)
	lat1, lon1 := toRad(c.Lat), toRad(c.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(math.Sin(brg)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	lon := math.Mod(toDeg(lon2)+540, 360) - 180
	return domain.Coordinate{Lat: toDeg(lat2), Lon: lon}
}

// ValidCoordinate reports whether c is a usable position.
func ValidCoordinate(c domain.Coordinate) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Limits on zone fields, matching the collected_coupons columns.
const (
	MaxZoneIDLen = 64
	MaxRewardLen = 128
)

func ValidateZone(z domain.Zone) error {
	if z.ID == "" {
		return errors.New("zone id: required")
	}
	if len(z.ID) > MaxZoneIDLen {
		return fmt.Errorf("zone id: longer than %d bytes", MaxZoneIDLen)
	}
	if len(z.Reward) > MaxRewardLen {
		return fmt.Errorf("zone reward: longer than %d bytes", MaxRewardLen)
	}
	if !ValidCoordinate(z.Center) {
		return errors.New("zone center: invalid coordinate")
	}
	if !(z.Radius > 0) || math.IsInf(z.Radius, 0) {
		return errors.New("zone radius: must be positive")
	}
	return nil
}

// Step applies one sample to the proximity flag of a single zone. It returns
// the next flag and, when the flag flipped, the transition to emit. Invalid
// coordinates leave the flag untouched.
func Step(z domain.Zone, inside bool, c domain.Coordinate) (next bool, t domain.Transition, ok bool) {
	if !ValidCoordinate(c) {
		return inside, "", false
	}
	in := Distance(z.Center, c) <= z.Radius
	switch {
	case in && !inside:
		return true, domain.ZoneEntered, true
	case !in && inside:
		return false, domain.ZoneExited, true
	}
	return inside, "", false
}

// Evaluator tracks one zone for one sample stream. It is not safe for
// concurrent use.
type Evaluator struct {
	zone   domain.Zone
	inside bool
}

func NewEvaluator(z domain.Zone) *Evaluator {
	return &Evaluator{zone: z}
}

// Evaluate feeds a sample and returns the transition it caused, if any.
func (e *Evaluator) Evaluate(c domain.Coordinate) (domain.Transition, bool) {
	next, t, ok := Step(e.zone, e.inside, c)
	e.inside = next
	return t, ok
}

func (e *Evaluator) Inside() bool { return e.inside }

func (e *Evaluator) Zone() domain.Zone { return e.zone }

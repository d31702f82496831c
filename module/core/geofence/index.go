package geofence

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

const (
	dimensions     = 2
	minChildren    = 2
	maxChildren    = 16
	pointTolerance = 1e-9
)

type zoneItem struct {
	zone domain.Zone
	rect rtreego.Rect
}

func (z *zoneItem) Bounds() rtreego.Rect {
	return z.rect
}

// Index narrows the zones worth evaluating for a sample using an R-tree of
// zone bounding boxes. It is read-only after construction.
type Index struct {
	tree  *rtreego.Rtree
	zones map[string]domain.Zone
}

func NewIndex(zones []domain.Zone) (*Index, error) {
	idx := &Index{
		tree:  rtreego.NewTree(dimensions, minChildren, maxChildren),
		zones: make(map[string]domain.Zone, len(zones)),
	}
	for _, z := range zones {
		if err := ValidateZone(z); err != nil {
			return nil, fmt.Errorf("zone %q: %w", z.ID, err)
		}
		if _, dup := idx.zones[z.ID]; dup {
			return nil, fmt.Errorf("zone %q: duplicate id", z.ID)
		}
		rect, err := zoneBounds(z)
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", z.ID, err)
		}
		idx.tree.Insert(&zoneItem{zone: z, rect: rect})
		idx.zones[z.ID] = z
	}
	return idx, nil
}

// zoneBounds returns the lat/lon box enclosing the zone circle. The longitude
// half-width is the circle's widest reach, asin(sin r / cos lat), which lies
// poleward of the center. A circle covering a pole spans every longitude.
func zoneBounds(z domain.Zone) (rtreego.Rect, error) {
	r := z.Radius / earthRadiusMeters
	dLat := toDeg(r)
	dLon := 180.0
	if sr, cl := math.Sin(r), math.Cos(toRad(z.Center.Lat)); r < math.Pi/2 && sr < cl {
		dLon = math.Min(toDeg(math.Asin(sr/cl)), 180)
	}
	return rtreego.NewRect(
		rtreego.Point{z.Center.Lat - dLat, z.Center.Lon - dLon},
		[]float64{2 * dLat, 2 * dLon},
	)
}

// Candidates returns the zones whose bounding box contains c, ordered by id.
func (i *Index) Candidates(c domain.Coordinate) []domain.Zone {
	if !ValidCoordinate(c) {
		return nil
	}
	var out []domain.Zone
	for _, lon := range []float64{c.Lon, c.Lon - 360, c.Lon + 360} {
		p := rtreego.Point{c.Lat, lon}
		for _, s := range i.tree.SearchIntersect(p.ToRect(pointTolerance)) {
			out = append(out, s.(*zoneItem).zone)
		}
	}
	sortZones(out)
	return dedupe(out)
}

func (i *Index) Zone(id string) (domain.Zone, bool) {
	z, ok := i.zones[id]
	return z, ok
}

// Zones returns every indexed zone ordered by id.
func (i *Index) Zones() []domain.Zone {
	out := make([]domain.Zone, 0, len(i.zones))
	for _, z := range i.zones {
		out = append(out, z)
	}
	sortZones(out)
	return out
}

func sortZones(zs []domain.Zone) {
	sort.Slice(zs, func(a, b int) bool { return zs[a].ID < zs[b].ID })
}

func dedupe(sorted []domain.Zone) []domain.Zone {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, z := range sorted[1:] {
		if z.ID != out[len(out)-1].ID {
			out = append(out, z)
		}
	}
	return out
}

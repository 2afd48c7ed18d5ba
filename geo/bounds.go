package geo

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Bounds is the geographic extent of a dataset in WGS84 degrees. The extent
// is fixed once a dataset has been loaded, every later grid resize works
// against these original values.
type Bounds struct {
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
}

func NewBounds(minLng float64, maxLng float64, minLat float64, maxLat float64) (Bounds, error) {
	bounds := Bounds{
		MinLng: minLng,
		MaxLng: maxLng,
		MinLat: minLat,
		MaxLat: maxLat,
	}
	return bounds, bounds.Validate()
}

// BoundsOfPoints determines the extent of the given points. The points must
// span an actual area, a single point or points on one straight meridian or
// parallel produce an error.
func BoundsOfPoints(points []orb.Point) (Bounds, error) {
	if len(points) == 0 {
		return Bounds{}, errors.New("Unable to determine bounds of an empty point set")
	}

	bound := orb.MultiPoint(points).Bound()
	return NewBounds(bound.Min.Lon(), bound.Max.Lon(), bound.Min.Lat(), bound.Max.Lat())
}

// Validate rejects degenerate extents. A zero or negative span would mean
// zero sized grid cells, there is no sensible mapping for that.
func (b Bounds) Validate() error {
	if b.MaxLng <= b.MinLng {
		return errors.Errorf("Invalid bounds: longitude range [%v, %v] does not span a positive width", b.MinLng, b.MaxLng)
	}
	if b.MaxLat <= b.MinLat {
		return errors.Errorf("Invalid bounds: latitude range [%v, %v] does not span a positive height", b.MinLat, b.MaxLat)
	}
	return nil
}

func (b Bounds) LngSpan() float64 {
	return b.MaxLng - b.MinLng
}

func (b Bounds) LatSpan() float64 {
	return b.MaxLat - b.MinLat
}

// Contains reports whether the point lies within the extent, borders included.
func (b Bounds) Contains(point orb.Point) bool {
	return point.Lon() >= b.MinLng && point.Lon() <= b.MaxLng &&
		point.Lat() >= b.MinLat && point.Lat() <= b.MaxLat
}

func (b Bounds) ToBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

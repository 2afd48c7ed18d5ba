package spatial

import (
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// RandomPointsInBoundary draws points uniformly from the boundary area by
// rejection sampling over its bounding box. The attempt cap keeps thin or
// degenerate boundaries from spinning forever, a sliver that covers almost
// none of its bounding box fails with an error instead.
func RandomPointsInBoundary(boundary orb.MultiPolygon, count int, rng *rand.Rand) ([]orb.Point, error) {
	if count <= 0 {
		return nil, nil
	}
	if len(boundary) == 0 {
		return nil, errors.New("Unable to generate random points without a boundary")
	}

	bound := boundary.Bound()
	width := bound.Max.Lon() - bound.Min.Lon()
	height := bound.Max.Lat() - bound.Min.Lat()
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("Boundary bounding box %v spans no area", bound)
	}

	points := make([]orb.Point, 0, count)
	maxAttempts := 10000 * count
	for attempt := 0; attempt < maxAttempts && len(points) < count; attempt++ {
		candidate := orb.Point{
			bound.Min.Lon() + rng.Float64()*width,
			bound.Min.Lat() + rng.Float64()*height,
		}
		if planar.MultiPolygonContains(boundary, candidate) {
			points = append(points, candidate)
		}
	}

	if len(points) < count {
		return nil, errors.Errorf("Unable to place %d random points inside the boundary, got %d after %d attempts", count, len(points), maxAttempts)
	}
	return points, nil
}

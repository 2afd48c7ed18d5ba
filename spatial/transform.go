package spatial

import (
	"math"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// Transformation reshapes a point set before it is mapped onto the grid.
type Transformation string

const (
	TransformNone      Transformation = "none"
	TransformCluster   Transformation = "cluster"
	TransformGridAlign Transformation = "grid-align"
	TransformNoise     Transformation = "noise"
)

// TransformOptions carries the per-transformation parameters. Zero values
// fall back to the defaults mentioned on each field.
type TransformOptions struct {
	// NumClusters for TransformCluster, default 3.
	NumClusters int
	// GridSize for TransformGridAlign in degrees, default 0.001.
	GridSize float64
	// NoiseLevel for TransformNoise in degrees, default 0.0001.
	NoiseLevel float64
}

// Apply runs one transformation over the point set and returns the new set.
func Apply(points []orb.Point, transformation Transformation, options TransformOptions, rng *rand.Rand) ([]orb.Point, error) {
	if options.NumClusters == 0 {
		options.NumClusters = 3
	}
	if options.GridSize == 0 {
		options.GridSize = 0.001
	}
	if options.NoiseLevel == 0 {
		options.NoiseLevel = 0.0001
	}

	switch transformation {
	case TransformNone, "":
		return points, nil
	case TransformCluster:
		return Cluster(points, options.NumClusters, rng), nil
	case TransformGridAlign:
		return GridAlign(points, options.GridSize), nil
	case TransformNoise:
		return AddNoise(points, options.NoiseLevel, rng), nil
	}
	return nil, errors.Errorf("Unknown transformation '%s'", transformation)
}

// Cluster replaces the point set with the centers of a k-means clustering.
// Seeding is distance weighted so the initial centers spread out over the
// set. A set with fewer points than clusters is returned unchanged.
func Cluster(points []orb.Point, numClusters int, rng *rand.Rand) []orb.Point {
	if numClusters < 1 || len(points) < numClusters {
		return points
	}

	centroids := make([]orb.Point, 0, numClusters)
	centroids = append(centroids, points[rng.Intn(len(points))])

	for len(centroids) < numClusters {
		distances := make([]float64, len(points))
		total := 0.0
		for i, point := range points {
			closest := math.MaxFloat64
			for _, centroid := range centroids {
				if d := planar.Distance(point, centroid); d < closest {
					closest = d
				}
			}
			distances[i] = closest
			total += closest
		}

		if total == 0 {
			// Every point coincides with an existing centroid
			centroids = append(centroids, points[rng.Intn(len(points))])
			continue
		}

		r := rng.Float64()
		cumulative := 0.0
		chosen := len(points) - 1
		for i, distance := range distances {
			cumulative += distance / total
			if r <= cumulative {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}

	for iteration := 0; iteration < 20; iteration++ {
		sums := make([]orb.Point, numClusters)
		counts := make([]int, numClusters)
		for _, point := range points {
			best := 0
			bestDistance := math.MaxFloat64
			for c, centroid := range centroids {
				if d := planar.DistanceSquared(point, centroid); d < bestDistance {
					best = c
					bestDistance = d
				}
			}
			sums[best][0] += point.Lon()
			sums[best][1] += point.Lat()
			counts[best]++
		}

		converged := true
		for c := range centroids {
			next := centroids[c]
			if counts[c] > 0 {
				next = orb.Point{sums[c][0] / float64(counts[c]), sums[c][1] / float64(counts[c])}
			}
			if math.Abs(next.Lon()-centroids[c].Lon()) > 1e-6 || math.Abs(next.Lat()-centroids[c].Lat()) > 1e-6 {
				converged = false
			}
			centroids[c] = next
		}
		if converged {
			break
		}
	}

	return centroids
}

// GridAlign snaps points onto a regular grid. Cells holding a single point
// snap exactly onto the grid node, cells holding several keep 30% of their
// centroid's offset so dense areas do not collapse into single spots.
func GridAlign(points []orb.Point, gridSize float64) []orb.Point {
	if gridSize <= 0 || len(points) == 0 {
		return points
	}

	type gridGroup struct {
		lngSum float64
		latSum float64
		count  int
	}
	groups := map[orb.Point]*gridGroup{}
	var order []orb.Point

	for _, point := range points {
		node := orb.Point{
			math.Round(point.Lon()/gridSize) * gridSize,
			math.Round(point.Lat()/gridSize) * gridSize,
		}
		group, ok := groups[node]
		if !ok {
			group = &gridGroup{}
			groups[node] = group
			order = append(order, node)
		}
		group.lngSum += point.Lon()
		group.latSum += point.Lat()
		group.count++
	}

	aligned := make([]orb.Point, 0, len(order))
	for _, node := range order {
		group := groups[node]
		if group.count == 1 {
			aligned = append(aligned, node)
			continue
		}

		avgLng := group.lngSum / float64(group.count)
		avgLat := group.latSum / float64(group.count)
		aligned = append(aligned, orb.Point{
			node.Lon() + (avgLng-node.Lon())*0.3,
			node.Lat() + (avgLat-node.Lat())*0.3,
		})
	}
	return aligned
}

// AddNoise displaces every point by a random offset, drawing each point's
// pattern from gaussian, uniform or signed exponential noise.
func AddNoise(points []orb.Point, noiseLevel float64, rng *rand.Rand) []orb.Point {
	if noiseLevel <= 0 || len(points) == 0 {
		return points
	}

	noisy := make([]orb.Point, len(points))
	for i, point := range points {
		var deltaLng, deltaLat float64
		switch rng.Intn(3) {
		case 0:
			deltaLng = rng.NormFloat64() * noiseLevel
			deltaLat = rng.NormFloat64() * noiseLevel
		case 1:
			deltaLng = (rng.Float64()*2 - 1) * noiseLevel
			deltaLat = (rng.Float64()*2 - 1) * noiseLevel
		default:
			deltaLng = rng.ExpFloat64() * noiseLevel / 2 * randomSign(rng)
			deltaLat = rng.ExpFloat64() * noiseLevel / 2 * randomSign(rng)
		}
		noisy[i] = orb.Point{point.Lon() + deltaLng, point.Lat() + deltaLat}
	}
	return noisy
}

func randomSign(rng *rand.Rand) float64 {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// metersPerDegree is the rough length of one degree of latitude. Good enough
// for turning meter-based CLI flags into degree offsets, the mapping does not
// need survey precision.
const metersPerDegree = 111320.0

func MetersToDegrees(meters float64) float64 {
	return meters / metersPerDegree
}

func DegreesToMeters(degrees float64) float64 {
	return degrees * metersPerDegree
}

package spatial

import (
	"math"
	"math/rand"
	"testing"

	"geos4/util"
	"github.com/paulmach/orb"
)

func assertContainsPoint(t *testing.T, points []orb.Point, expected orb.Point) {
	for _, point := range points {
		if math.Abs(point.Lon()-expected.Lon()) < 1e-9 && math.Abs(point.Lat()-expected.Lat()) < 1e-9 {
			return
		}
	}
	t.Errorf("Expected point %v in %v", expected, points)
}

func TestCluster(t *testing.T) {
	// Arrange: two well separated groups of four points each
	points := []orb.Point{
		{0, 0}, {0, 0.2}, {0.2, 0}, {0.2, 0.2},
		{10, 10}, {10, 10.2}, {10.2, 10}, {10.2, 10.2},
	}

	// Act
	centroids := Cluster(points, 2, rand.New(rand.NewSource(1)))

	// Assert: k-means converges onto the two group centers
	util.AssertEqual(t, 2, len(centroids))
	assertContainsPoint(t, centroids, orb.Point{0.1, 0.1})
	assertContainsPoint(t, centroids, orb.Point{10.1, 10.1})
}

func TestCluster_fewerPointsThanClusters(t *testing.T) {
	// Arrange
	points := []orb.Point{{1, 1}, {2, 2}}

	// Act
	result := Cluster(points, 3, rand.New(rand.NewSource(1)))

	// Assert: too few points leave the set unchanged
	util.AssertEqual(t, points, result)
}

func TestCluster_identicalPoints(t *testing.T) {
	// Arrange: all distances are zero, the seeding must not divide by zero
	points := []orb.Point{{5, 5}, {5, 5}, {5, 5}}

	// Act
	centroids := Cluster(points, 2, rand.New(rand.NewSource(1)))

	// Assert
	util.AssertEqual(t, 2, len(centroids))
	assertContainsPoint(t, centroids, orb.Point{5, 5})
}

func TestGridAlign_snapsSinglePoints(t *testing.T) {
	// Act
	aligned := GridAlign([]orb.Point{{0.102, 0.197}}, 0.1)

	// Assert: a lone point snaps exactly onto its grid node
	util.AssertEqual(t, 1, len(aligned))
	util.AssertApprox(t, 0.1, aligned[0].Lon(), 1e-12)
	util.AssertApprox(t, 0.2, aligned[0].Lat(), 1e-12)
}

func TestGridAlign_keepsPartOfTheCentroidOffset(t *testing.T) {
	// Arrange: both points share the grid node (0.1, 0.1)
	points := []orb.Point{{0.1, 0.1}, {0.14, 0.1}}

	// Act
	aligned := GridAlign(points, 0.1)

	// Assert: the merged point keeps 30% of the centroid offset, the
	// centroid (0.12, 0.1) therefore lands on (0.106, 0.1)
	util.AssertEqual(t, 1, len(aligned))
	util.AssertApprox(t, 0.106, aligned[0].Lon(), 1e-9)
	util.AssertApprox(t, 0.1, aligned[0].Lat(), 1e-9)
}

func TestGridAlign_keepsFirstSeenOrder(t *testing.T) {
	// Arrange
	points := []orb.Point{{0.5, 0.5}, {0.11, 0.11}, {0.52, 0.52}}

	// Act
	aligned := GridAlign(points, 0.1)

	// Assert: the cell of the first point comes first
	util.AssertEqual(t, 2, len(aligned))
	util.AssertApprox(t, 0.503, aligned[0].Lon(), 1e-9)
	util.AssertApprox(t, 0.503, aligned[0].Lat(), 1e-9)
	util.AssertApprox(t, 0.1, aligned[1].Lon(), 1e-9)
	util.AssertApprox(t, 0.1, aligned[1].Lat(), 1e-9)
}

func TestGridAlign_zeroGridSize(t *testing.T) {
	points := []orb.Point{{1, 2}}
	util.AssertEqual(t, points, GridAlign(points, 0))
}

func TestAddNoise(t *testing.T) {
	// Arrange
	points := []orb.Point{{9.1, 53.2}, {9.2, 53.3}, {9.3, 53.4}}

	// Act
	noisyA := AddNoise(points, 0.001, rand.New(rand.NewSource(7)))
	noisyB := AddNoise(points, 0.001, rand.New(rand.NewSource(7)))

	// Assert: every point moves, the same seed moves them the same way
	util.AssertEqual(t, len(points), len(noisyA))
	for i := range points {
		util.AssertTrue(t, points[i] != noisyA[i])
	}
	util.AssertEqual(t, noisyA, noisyB)
}

func TestAddNoise_zeroLevel(t *testing.T) {
	points := []orb.Point{{1, 2}}
	util.AssertEqual(t, points, AddNoise(points, 0, rand.New(rand.NewSource(1))))
}

func TestApply(t *testing.T) {
	// Arrange
	points := []orb.Point{
		{0, 0}, {0, 0.2}, {0.2, 0}, {0.2, 0.2},
		{10, 10}, {10, 10.2}, {10.2, 10}, {10.2, 10.2},
	}
	rng := rand.New(rand.NewSource(1))

	// Act & Assert
	unchanged, err := Apply(points, TransformNone, TransformOptions{}, rng)
	util.AssertNil(t, err)
	util.AssertEqual(t, points, unchanged)

	clustered, err := Apply(points, TransformCluster, TransformOptions{NumClusters: 2}, rng)
	util.AssertNil(t, err)
	util.AssertEqual(t, 2, len(clustered))

	aligned, err := Apply(points, TransformGridAlign, TransformOptions{GridSize: 100}, rng)
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(aligned))

	noisy, err := Apply(points, TransformNoise, TransformOptions{NoiseLevel: 0.01}, rng)
	util.AssertNil(t, err)
	util.AssertEqual(t, len(points), len(noisy))

	_, err = Apply(points, Transformation("smooth"), TransformOptions{}, rng)
	util.AssertNotNil(t, err)
}

func TestMetersToDegrees(t *testing.T) {
	util.AssertEqual(t, 1.0, MetersToDegrees(111320))
	util.AssertApprox(t, 0.000898, MetersToDegrees(100), 1e-6)
	util.AssertEqual(t, 111320.0, DegreesToMeters(1))
}

package geo

import (
	"testing"

	"geos4/util"
	"github.com/paulmach/orb"
)

func TestBoundsOfPoints(t *testing.T) {
	// Arrange
	points := []orb.Point{
		{9.1, 53.2},
		{9.9, 53.8},
		{9.5, 53.5},
	}

	// Act
	bounds, err := BoundsOfPoints(points)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, Bounds{MinLng: 9.1, MaxLng: 9.9, MinLat: 53.2, MaxLat: 53.8}, bounds)
}

func TestBoundsOfPoints_rejectsDegenerateInput(t *testing.T) {
	_, err := BoundsOfPoints([]orb.Point{})
	util.AssertNotNil(t, err)

	// A single point has no extent.
	_, err = BoundsOfPoints([]orb.Point{{9.1, 53.2}})
	util.AssertNotNil(t, err)

	// Points on one meridian have no width.
	_, err = BoundsOfPoints([]orb.Point{{9.1, 53.2}, {9.1, 53.8}})
	util.AssertNotNil(t, err)
}

func TestBounds_contains(t *testing.T) {
	bounds := Bounds{MinLng: 0, MaxLng: 16, MinLat: 0, MaxLat: 4}

	util.AssertTrue(t, bounds.Contains(orb.Point{8, 2}))
	util.AssertTrue(t, bounds.Contains(orb.Point{0, 0}))
	util.AssertTrue(t, bounds.Contains(orb.Point{16, 4}))
	util.AssertFalse(t, bounds.Contains(orb.Point{-1, 2}))
	util.AssertFalse(t, bounds.Contains(orb.Point{8, 5}))
}

func TestBounds_toBound(t *testing.T) {
	bounds := Bounds{MinLng: 1, MaxLng: 2, MinLat: 3, MaxLat: 4}

	bound := bounds.ToBound()

	util.AssertEqual(t, orb.Point{1, 3}, bound.Min)
	util.AssertEqual(t, orb.Point{2, 4}, bound.Max)
}

package geo

import (
	"testing"

	"geos4/util"
	"github.com/paulmach/orb"
)

func TestGridBounds_getCellIndexForPoint(t *testing.T) {
	// Arrange
	bounds := Bounds{MinLng: 0, MaxLng: 16, MinLat: 0, MaxLat: 4}
	gridBounds, err := NewGridBounds(bounds, 16, 4)
	util.AssertNil(t, err)

	/*
		Track 0  ................
		Track 1  ........X.......
		Track 2  ................
		Track 3  ................
		Step     0.......8.......
	*/

	// Act
	cell := gridBounds.GetCellIndexForPoint(orb.Point{8, 2})

	// Assert
	util.AssertEqual(t, CellIndex{1, 8}, cell)
	util.AssertEqual(t, 1, cell.Track())
	util.AssertEqual(t, 8, cell.Step())
}

func TestGridBounds_getCellIndexForPoint_corners(t *testing.T) {
	// Arrange
	bounds := Bounds{MinLng: 5, MaxLng: 10, MinLat: 50, MaxLat: 52}
	gridBounds, err := NewGridBounds(bounds, 8, 4)
	util.AssertNil(t, err)

	// Act & Assert: the north-east corner belongs to the top-right cell, the
	// south-west corner to the bottom-left cell.
	util.AssertEqual(t, CellIndex{0, 7}, gridBounds.GetCellIndexForPoint(orb.Point{10, 52}))
	util.AssertEqual(t, CellIndex{3, 0}, gridBounds.GetCellIndexForPoint(orb.Point{5, 50}))
	util.AssertEqual(t, CellIndex{3, 7}, gridBounds.GetCellIndexForPoint(orb.Point{10, 50}))
	util.AssertEqual(t, CellIndex{0, 0}, gridBounds.GetCellIndexForPoint(orb.Point{5, 52}))
}

func TestGridBounds_getCellIndexForPoint_clampsOutsidePoints(t *testing.T) {
	// Arrange
	bounds := Bounds{MinLng: 0, MaxLng: 16, MinLat: 0, MaxLat: 4}
	gridBounds, err := NewGridBounds(bounds, 16, 4)
	util.AssertNil(t, err)

	// Act & Assert
	util.AssertEqual(t, CellIndex{1, 0}, gridBounds.GetCellIndexForPoint(orb.Point{-3, 2}))
	util.AssertEqual(t, CellIndex{1, 15}, gridBounds.GetCellIndexForPoint(orb.Point{20, 2}))
	util.AssertEqual(t, CellIndex{0, 8}, gridBounds.GetCellIndexForPoint(orb.Point{8, 99}))
	util.AssertEqual(t, CellIndex{3, 8}, gridBounds.GetCellIndexForPoint(orb.Point{8, -99}))
}

func TestGridBounds_resizeKeepsExtent(t *testing.T) {
	// Arrange
	bounds := Bounds{MinLng: 0, MaxLng: 16, MinLat: 0, MaxLat: 4}
	gridBounds, err := NewGridBounds(bounds, 16, 4)
	util.AssertNil(t, err)

	// Act
	resized, err := gridBounds.Resize(24, 6)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, bounds, resized.Bounds)
	util.AssertEqual(t, 24, resized.NumSteps)
	util.AssertEqual(t, 6, resized.NumTracks)
	util.AssertApprox(t, 16.0/24.0, resized.LngStep, 1e-12)
	util.AssertApprox(t, 4.0/6.0, resized.LatStep, 1e-12)
}

func TestGridBounds_cellCenter(t *testing.T) {
	// Arrange
	bounds := Bounds{MinLng: 0, MaxLng: 16, MinLat: 0, MaxLat: 4}
	gridBounds, err := NewGridBounds(bounds, 16, 4)
	util.AssertNil(t, err)

	// Act
	center := gridBounds.CellCenter(CellIndex{0, 0})

	// Assert: top-left cell sits in the north-west corner.
	util.AssertApprox(t, 0.5, center.Lon(), 1e-12)
	util.AssertApprox(t, 3.5, center.Lat(), 1e-12)
}

func TestNewGridBounds_rejectsInvalidInput(t *testing.T) {
	validBounds := Bounds{MinLng: 0, MaxLng: 16, MinLat: 0, MaxLat: 4}

	_, err := NewGridBounds(Bounds{MinLng: 5, MaxLng: 5, MinLat: 0, MaxLat: 4}, 16, 4)
	util.AssertNotNil(t, err)

	_, err = NewGridBounds(Bounds{MinLng: 0, MaxLng: 16, MinLat: 4, MaxLat: 0}, 16, 4)
	util.AssertNotNil(t, err)

	_, err = NewGridBounds(validBounds, 0, 4)
	util.AssertNotNil(t, err)

	_, err = NewGridBounds(validBounds, 16, 0)
	util.AssertNotNil(t, err)

	_, err = NewGridBounds(validBounds, 16, 4)
	util.AssertNil(t, err)
}

package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// CellIndex addresses one sequencer cell as (track, step). Track 0 is the top
// row of the grid and covers the northmost latitude band, the step axis runs
// west to east.
type CellIndex [2]int

func (c CellIndex) Track() int { return c[0] }

func (c CellIndex) Step() int { return c[1] }

// GridBounds combines a geographic extent with grid dimensions and the
// derived per-cell spans. Instances are immutable, Resize returns a new one.
type GridBounds struct {
	Bounds
	NumSteps  int
	NumTracks int
	LngStep   float64
	LatStep   float64
}

func NewGridBounds(bounds Bounds, numSteps int, numTracks int) (*GridBounds, error) {
	err := bounds.Validate()
	if err != nil {
		return nil, err
	}
	if numSteps < 1 || numTracks < 1 {
		return nil, errors.Errorf("Invalid grid dimensions %dx%d: steps and tracks must be at least 1", numSteps, numTracks)
	}

	return &GridBounds{
		Bounds:    bounds,
		NumSteps:  numSteps,
		NumTracks: numTracks,
		LngStep:   bounds.LngSpan() / float64(numSteps),
		LatStep:   bounds.LatSpan() / float64(numTracks),
	}, nil
}

// Resize creates grid bounds for the new dimensions over the same geographic
// extent. The per-cell spans are always derived from the original extent, so
// repeated resizing cannot accumulate rounding errors.
func (g *GridBounds) Resize(numSteps int, numTracks int) (*GridBounds, error) {
	return NewGridBounds(g.Bounds, numSteps, numTracks)
}

// GetCellIndexForPoint maps a geographic point onto the grid. The longitude
// selects the step, the latitude selects the track with track 0 at the top.
// Points outside the extent are clamped onto the border cells.
func (g *GridBounds) GetCellIndexForPoint(point orb.Point) CellIndex {
	step := int(math.Floor((point.Lon() - g.MinLng) / g.LngStep))
	track := g.NumTracks - 1 - int(math.Floor((point.Lat()-g.MinLat)/g.LatStep))

	return CellIndex{
		clamp(track, 0, g.NumTracks-1),
		clamp(step, 0, g.NumSteps-1),
	}
}

// CellCenter returns the geographic center of the given cell.
func (g *GridBounds) CellCenter(cell CellIndex) orb.Point {
	lng := g.MinLng + (float64(cell.Step())+0.5)*g.LngStep
	lat := g.MaxLat - (float64(cell.Track())+0.5)*g.LatStep
	return orb.Point{lng, lat}
}

func clamp(value int, min int, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

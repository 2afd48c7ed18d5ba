package spatial

import (
	"geos4/geo"
	"geos4/io"
	"geos4/sequencer"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

type cellOccupancy struct {
	lngSum  float64
	latSum  float64
	firstID int
	count   int
}

// ComputeActiveCells builds the active-cells payload for a point set: one
// entry per occupied cell with the centroid of its points, the index of the
// first point that hit the cell and the per-cell density. Entries appear in
// the order the cells were first hit, so the same input always produces the
// same payload.
func ComputeActiveCells(points []orb.Point, bounds geo.Bounds, numSteps int, numTracks int) (*io.ActiveCellsData, error) {
	gridBounds, err := geo.NewGridBounds(bounds, numSteps, numTracks)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to compute active cells")
	}

	occupancy := map[geo.CellIndex]*cellOccupancy{}
	var order []geo.CellIndex

	for i, point := range points {
		cell := gridBounds.GetCellIndexForPoint(point)
		entry, ok := occupancy[cell]
		if !ok {
			entry = &cellOccupancy{firstID: i}
			occupancy[cell] = entry
			order = append(order, cell)
		}
		entry.lngSum += point.Lon()
		entry.latSum += point.Lat()
		entry.count++
	}

	cellArea := gridBounds.LngStep * gridBounds.LatStep
	activeCells := make([]sequencer.ActiveCell, 0, len(order))
	for _, cell := range order {
		entry := occupancy[cell]
		activeCells = append(activeCells, sequencer.ActiveCell{
			Track:        cell.Track(),
			Step:         cell.Step(),
			PointLng:     entry.lngSum / float64(entry.count),
			PointLat:     entry.latSum / float64(entry.count),
			PointID:      entry.firstID,
			PointCount:   entry.count,
			PointDensity: float64(entry.count) / cellArea,
		})
	}

	data := &io.ActiveCellsData{
		GridBounds: io.GridDescriptor{
			Bounds:           bounds,
			NumSteps:         numSteps,
			NumTracks:        numTracks,
			LngStep:          gridBounds.LngStep,
			LatStep:          gridBounds.LatStep,
			TotalPoints:      len(points),
			ActiveCellsCount: len(activeCells),
		},
		ActiveCells: activeCells,
	}
	data.GridBounds.GridEfficiency = GridEfficiency(data)
	return data, nil
}

// GridEfficiency is the share of grid cells the payload occupies.
func GridEfficiency(data *io.ActiveCellsData) float64 {
	totalCells := data.GridBounds.NumSteps * data.GridBounds.NumTracks
	if totalCells == 0 {
		return 0
	}
	return float64(len(data.ActiveCells)) / float64(totalCells)
}

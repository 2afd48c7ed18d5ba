package io

import (
	"encoding/json"
	"os"

	"geos4/geo"
	"geos4/sequencer"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
)

// GridDescriptor is the grid configuration as exchanged with clients and
// files: the geographic extent plus optional grid dimensions. Zero
// dimensions mean "keep what the grid currently uses". Producers of
// computed payloads additionally fill the derived statistics, loading a
// payload ignores them.
type GridDescriptor struct {
	geo.Bounds
	NumSteps         int     `json:"num_steps,omitempty"`
	NumTracks        int     `json:"num_tracks,omitempty"`
	LngStep          float64 `json:"lng_step,omitempty"`
	LatStep          float64 `json:"lat_step,omitempty"`
	TotalPoints      int     `json:"total_points,omitempty"`
	ActiveCellsCount int     `json:"active_cells_count,omitempty"`
	GridEfficiency   float64 `json:"grid_efficiency,omitempty"`
}

// Dimensions resolves the descriptor against fallback dimensions.
func (d GridDescriptor) Dimensions(fallbackSteps int, fallbackTracks int) (int, int) {
	numSteps := d.NumSteps
	if numSteps == 0 {
		numSteps = fallbackSteps
	}
	numTracks := d.NumTracks
	if numTracks == 0 {
		numTracks = fallbackTracks
	}
	return numSteps, numTracks
}

// GeoJSONPayload is the load request for raw point data. The grid bounds are
// optional, without them the extent is determined from the points.
type GeoJSONPayload struct {
	GeoJSON    json.RawMessage `json:"geojson"`
	GridBounds *GridDescriptor `json:"grid_bounds,omitempty"`
}

// ActiveCellsData is the load request for a precomputed point-to-cell
// assignment. Unlike GeoJSONPayload the grid bounds are mandatory here, the
// cells are meaningless without the extent they were computed against.
type ActiveCellsData struct {
	GridBounds  GridDescriptor         `json:"grid_bounds"`
	ActiveCells []sequencer.ActiveCell `json:"active_cells"`
}

// ParseGeoJSONPayload accepts either the wrapped payload or a bare feature
// collection, which makes piping a plain GeoJSON file into the API work
// without wrapping it first.
func ParseGeoJSONPayload(data []byte) (GeoJSONPayload, error) {
	var payload GeoJSONPayload
	err := json.Unmarshal(data, &payload)
	if err != nil {
		return GeoJSONPayload{}, errors.Wrap(err, "Unable to parse GeoJSON payload")
	}

	if payload.GeoJSON == nil {
		payload.GeoJSON = data
	}
	return payload, nil
}

func ParseActiveCells(data []byte) (*ActiveCellsData, error) {
	var payload ActiveCellsData
	err := json.Unmarshal(data, &payload)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to parse active-cells payload")
	}

	err = payload.GridBounds.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "Active-cells payload contains invalid grid bounds")
	}

	return &payload, nil
}

func ReadActiveCellsFromFile(path string) (*ActiveCellsData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read active-cells file %s", path)
	}
	return ParseActiveCells(data)
}

// ApplyGeoJSON loads the points of the payload into the grid. Dimension
// overrides from the descriptor are applied first, then the points are
// mapped against the declared or computed extent.
func ApplyGeoJSON(grid *sequencer.Grid, payload GeoJSONPayload) error {
	points, err := ParsePoints(payload.GeoJSON)
	if err != nil {
		return err
	}

	if payload.GridBounds != nil {
		numSteps, numTracks := payload.GridBounds.Dimensions(grid.NumSteps(), grid.NumTracks())
		err = grid.SetDimensions(numSteps, numTracks)
		if err != nil {
			return err
		}
	}

	var bounds geo.Bounds
	if payload.GridBounds != nil {
		err = payload.GridBounds.Validate()
		if err != nil {
			return errors.Wrap(err, "GeoJSON payload contains invalid grid bounds")
		}
		bounds = payload.GridBounds.Bounds
	} else if len(points) > 0 {
		bounds, err = geo.BoundsOfPoints(points)
		if err != nil {
			return errors.Wrap(err, "Unable to determine bounds of GeoJSON payload")
		}
		sigolo.Debugf("GeoJSON payload carries no grid bounds, computed %+v from its points", bounds)
	}

	return grid.LoadPoints(points, bounds)
}

// ApplyActiveCells loads a precomputed cell assignment into the grid.
func ApplyActiveCells(grid *sequencer.Grid, payload *ActiveCellsData) error {
	numSteps, numTracks := payload.GridBounds.Dimensions(grid.NumSteps(), grid.NumTracks())
	return grid.LoadActiveCells(payload.ActiveCells, payload.GridBounds.Bounds, numSteps, numTracks)
}

package spatial

import (
	"geos4/geo"
	"geos4/sequencer"
)

const (
	MinSteps  = 8
	MaxSteps  = 32
	MinTracks = 2
	MaxTracks = 8
)

// OptimalDimensions picks grid dimensions for a point set within an extent.
// The base size grows with the point count, gets stretched along the longer
// axis of the extent and is nudged by the point density. Steps stay even
// because odd step counts make for awkward musical patterns. The area is the
// region's area in square degrees, pass 0 to fall back to the extent area.
func OptimalDimensions(numPoints int, bounds geo.Bounds, area float64) (int, int) {
	if numPoints == 0 {
		return sequencer.DefaultNumSteps, sequencer.DefaultNumTracks
	}

	width := bounds.LngSpan()
	height := bounds.LatSpan()
	aspectRatio := 1.0
	if height > 0 {
		aspectRatio = width / height
	}

	if area <= 0 {
		area = width * height
	}
	pointDensity := 0.0
	if area > 0 {
		pointDensity = float64(numPoints) / area
	}

	var baseSteps, baseTracks int
	switch {
	case numPoints <= 16:
		baseSteps, baseTracks = 8, 4
	case numPoints <= 32:
		baseSteps, baseTracks = 12, 4
	case numPoints <= 64:
		baseSteps, baseTracks = 16, 6
	case numPoints <= 128:
		baseSteps, baseTracks = 20, 6
	default:
		baseSteps, baseTracks = 24, 8
	}

	var steps, tracks int
	switch {
	case aspectRatio > 2.5:
		// Very wide region
		steps = min(int(float64(baseSteps)*1.5), MaxSteps)
		tracks = max(int(float64(baseTracks)*0.7), MinTracks)
	case aspectRatio < 0.4:
		// Very tall region
		steps = max(int(float64(baseSteps)*0.7), MinSteps)
		tracks = min(int(float64(baseTracks)*1.5), MaxTracks)
	case aspectRatio > 1.5:
		steps = min(int(float64(baseSteps)*1.2), MaxSteps)
		tracks = max(int(float64(baseTracks)*0.9), MinTracks)
	case aspectRatio < 0.7:
		steps = max(int(float64(baseSteps)*0.9), MinSteps)
		tracks = min(int(float64(baseTracks)*1.2), MaxTracks)
	default:
		steps, tracks = baseSteps, baseTracks
	}

	if pointDensity > 0.001 {
		steps = min(steps+4, MaxSteps)
		tracks = min(tracks+2, MaxTracks)
	} else if pointDensity < 0.0001 {
		steps = max(steps-2, MinSteps)
		tracks = max(tracks-1, MinTracks)
	}

	steps += steps % 2
	if tracks > 2 {
		tracks += tracks % 2
	}

	steps = min(max(steps, MinSteps), MaxSteps)
	tracks = min(max(tracks, MinTracks), MaxTracks)
	return steps, tracks
}

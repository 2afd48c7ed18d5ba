package geo

// NormalizedPosition is a resolution independent cell anchor with both axes
// in [0, 1). Anchors are captured once when a dataset is loaded and are never
// recomputed afterwards, so any number of grid resizes projects the same
// anchors and cannot drift.
type NormalizedPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Normalize captures the anchor of a cell relative to the given dimensions.
func Normalize(cell CellIndex, numSteps int, numTracks int) NormalizedPosition {
	return NormalizedPosition{
		X: float64(cell.Step()) / float64(numSteps),
		Y: float64(cell.Track()) / float64(numTracks),
	}
}

// ToCellIndex projects the anchor onto a grid of the given dimensions.
func (n NormalizedPosition) ToCellIndex(numSteps int, numTracks int) CellIndex {
	step := int(n.X * float64(numSteps))
	if step > numSteps-1 {
		step = numSteps - 1
	}

	track := int(n.Y * float64(numTracks))
	if track > numTracks-1 {
		track = numTracks - 1
	}

	return CellIndex{track, step}
}

package sequencer

// Cell is one step slot on a track. PointIndices lists the loaded geographic
// points that fell into this cell, in input order. Manual edits flip Active
// but leave the indices alone, the geographic metadata is abandoned as a
// whole instead of being half updated.
type Cell struct {
	Active       bool
	PointIndices []int
}

func (c Cell) clone() Cell {
	indices := make([]int, len(c.PointIndices))
	copy(indices, c.PointIndices)
	return Cell{Active: c.Active, PointIndices: indices}
}

// Track is one horizontal row of the grid together with its display metadata.
type Track struct {
	Name  string
	Color string
	Sound SoundKind
	Cells []Cell
}

// defaultTrackColors is the palette new tracks cycle through.
var defaultTrackColors = []string{
	"#e74c3c",
	"#f39c12",
	"#2ecc71",
	"#3498db",
	"#9b59b6",
	"#1abc9c",
	"#e67e22",
	"#95a5a6",
}

func newTrack(index int, numSteps int) Track {
	sound := DefaultSoundForTrack(index)
	return Track{
		Name:  sound.String(),
		Color: defaultTrackColors[index%len(defaultTrackColors)],
		Sound: sound,
		Cells: make([]Cell, numSteps),
	}
}

func (t Track) clone() Track {
	cells := make([]Cell, len(t.Cells))
	for i, cell := range t.Cells {
		cells[i] = cell.clone()
	}

	trackCopy := t
	trackCopy.Cells = cells
	return trackCopy
}

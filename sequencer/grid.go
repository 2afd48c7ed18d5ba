package sequencer

import (
	"math/rand"
	"sync"

	"geos4/geo"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const (
	DefaultNumSteps  = 16
	DefaultNumTracks = 4
)

// PatternState describes where the current pattern came from.
type PatternState int

const (
	// StateEmpty means no pattern has been loaded or edited yet.
	StateEmpty PatternState = iota
	// StateManual means the pattern was edited by hand or cleared, it no
	// longer reflects the loaded geography.
	StateManual
	// StateGeographic means every active cell is the image of loaded
	// geographic data.
	StateGeographic
)

func (s PatternState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateManual:
		return "manual"
	case StateGeographic:
		return "geographic"
	}
	return "unknown"
}

// ActiveCell is one occupied grid cell as exchanged in active-cells payloads.
// The coordinates are the centroid of all points that fell into the cell and
// PointID identifies the first of them.
type ActiveCell struct {
	Track        int     `json:"track"`
	Step         int     `json:"step"`
	PointLng     float64 `json:"point_lng"`
	PointLat     float64 `json:"point_lat"`
	PointID      int     `json:"point_id"`
	PointCount   int     `json:"point_count,omitempty"`
	PointDensity float64 `json:"point_density,omitempty"`
}

// Trigger describes one cell firing during a playback step. A cell fires once
// per tick no matter how many points it holds, the indices are only there so
// renderers can highlight all of them.
type Trigger struct {
	Track        int
	Sound        SoundKind
	PointIndices []int
}

// Snapshot is a deep copy of the grid state for renderers and exporters.
type Snapshot struct {
	NumSteps  int
	NumTracks int
	State     PatternState
	Tracks    []Track
	Bounds    *geo.GridBounds
	Points    []orb.Point
}

// Grid is the sequencer core: tracks of cells, optionally bound to loaded
// geographic data. All methods are safe for concurrent use since the playback
// timer reads columns while UI or HTTP handlers mutate the pattern.
type Grid struct {
	mutex     sync.Mutex
	numSteps  int
	numTracks int
	tracks    []Track
	state     PatternState

	// gridBounds and points are set by LoadPoints, anchors by both load
	// operations. They are the three inputs the resize dispatch looks at.
	gridBounds *geo.GridBounds
	points     []orb.Point
	anchors    []geo.NormalizedPosition
}

func NewGrid(numSteps int, numTracks int) (*Grid, error) {
	if numSteps < 1 || numTracks < 1 {
		return nil, errors.Errorf("Invalid grid dimensions %dx%d: steps and tracks must be at least 1", numSteps, numTracks)
	}

	grid := &Grid{
		numSteps:  numSteps,
		numTracks: numTracks,
		state:     StateEmpty,
	}
	grid.tracks = makeTracks(numTracks, numSteps)
	return grid, nil
}

func makeTracks(numTracks int, numSteps int) []Track {
	tracks := make([]Track, numTracks)
	for i := range tracks {
		tracks[i] = newTrack(i, numSteps)
	}
	return tracks
}

// LoadPoints replaces the current dataset and maps every point onto the grid
// within the given extent. An empty point set just clears the pattern, the
// call logs that and succeeds, so callers do not need a special case for
// datasets that came back empty.
func (g *Grid) LoadPoints(points []orb.Point, bounds geo.Bounds) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(points) == 0 {
		sigolo.Info("No points to load, clearing the pattern")
		g.clearCells()
		g.gridBounds = nil
		g.points = nil
		g.anchors = nil
		g.state = StateManual
		return nil
	}

	gridBounds, err := geo.NewGridBounds(bounds, g.numSteps, g.numTracks)
	if err != nil {
		return errors.Wrap(err, "Unable to load points")
	}

	g.gridBounds = gridBounds
	g.points = make([]orb.Point, len(points))
	copy(g.points, points)

	g.mapPoints()
	g.captureAnchors()

	sigolo.Infof("Loaded %d points into the %dx%d grid", len(points), g.numSteps, g.numTracks)
	return nil
}

// LoadActiveCells applies a prebuilt active-cells payload. Such payloads do
// not carry the raw point set, later resizes therefore fall back to the
// normalized anchors captured here. Every entry is cross-checked against the
// coordinate mapping, a payload that disagrees with its own grid bounds is
// applied as declared but logged.
func (g *Grid) LoadActiveCells(cells []ActiveCell, bounds geo.Bounds, numSteps int, numTracks int) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if numSteps < 1 || numTracks < 1 {
		return errors.Errorf("Invalid grid dimensions %dx%d: steps and tracks must be at least 1", numSteps, numTracks)
	}

	gridBounds, err := geo.NewGridBounds(bounds, numSteps, numTracks)
	if err != nil {
		return errors.Wrap(err, "Unable to load active cells")
	}

	g.resizeTracks(numSteps, numTracks)
	g.clearCells()
	g.gridBounds = gridBounds
	g.points = nil
	g.anchors = make([]geo.NormalizedPosition, 0, len(cells))

	if len(cells) == 0 {
		sigolo.Info("Active-cells payload contains no cells, the pattern stays empty")
		g.state = StateManual
		return nil
	}

	mismatches := 0
	for i, cell := range cells {
		track := clampIndex(cell.Track, numTracks-1)
		step := clampIndex(cell.Step, numSteps-1)
		if track != cell.Track || step != cell.Step {
			sigolo.Debugf("Clamped active cell %d from (%d, %d) to (%d, %d)", i, cell.Track, cell.Step, track, step)
		}

		computed := gridBounds.GetCellIndexForPoint(orb.Point{cell.PointLng, cell.PointLat})
		if computed.Track() != track || computed.Step() != step {
			mismatches++
			sigolo.Warnf("Active cell %d declares (%d, %d) but its coordinates map to (%d, %d)", i, track, step, computed.Track(), computed.Step())
		}

		target := &g.tracks[track].Cells[step]
		target.Active = true
		target.PointIndices = append(target.PointIndices, i)
		g.anchors = append(g.anchors, geo.Normalize(geo.CellIndex{track, step}, numSteps, numTracks))
	}

	if mismatches > 0 {
		sigolo.Warnf("%d of %d active cells did not match the declared grid mapping", mismatches, len(cells))
	}

	g.state = StateGeographic
	sigolo.Infof("Loaded %d active cells into the %dx%d grid", len(cells), numSteps, numTracks)
	return nil
}

// SetDimensions resizes the grid. With a loaded point set the whole mapping
// is recomputed against the original extent, without one the normalized
// anchors relocate the previously loaded cells. A pattern without any
// geographic data is padded or truncated in place.
func (g *Grid) SetDimensions(numSteps int, numTracks int) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if numSteps < 1 || numTracks < 1 {
		return errors.Errorf("Invalid grid dimensions %dx%d: steps and tracks must be at least 1", numSteps, numTracks)
	}
	if numSteps == g.numSteps && numTracks == g.numTracks {
		sigolo.Debugf("Grid dimensions already are %dx%d, nothing to do", numSteps, numTracks)
		return nil
	}

	g.resizeTracks(numSteps, numTracks)

	if g.gridBounds != nil {
		resized, err := g.gridBounds.Resize(numSteps, numTracks)
		if err != nil {
			return err
		}
		g.gridBounds = resized
	}

	switch {
	case len(g.points) > 0 && g.gridBounds != nil:
		g.mapPoints()
		sigolo.Debugf("Regridded %d points into the %dx%d grid", len(g.points), numSteps, numTracks)
	case len(g.anchors) > 0:
		g.remapAnchors()
		sigolo.Debugf("Remapped %d anchors into the %dx%d grid", len(g.anchors), numSteps, numTracks)
	default:
		sigolo.Debugf("No geographic data loaded, resized the pattern to %dx%d", numSteps, numTracks)
	}

	return nil
}

// ToggleStep flips one cell by hand. This abandons the geographic binding,
// the pattern is manual from now on, but the loaded dataset itself stays
// untouched. Out-of-range indices are clamped like everywhere else.
func (g *Grid) ToggleStep(track int, step int) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	clampedTrack := clampIndex(track, g.numTracks-1)
	clampedStep := clampIndex(step, g.numSteps-1)
	if clampedTrack != track || clampedStep != step {
		sigolo.Debugf("Clamped toggle (%d, %d) to cell (%d, %d)", track, step, clampedTrack, clampedStep)
	}

	cell := &g.tracks[clampedTrack].Cells[clampedStep]
	cell.Active = !cell.Active
	g.state = StateManual

	sigolo.Tracef("Toggled cell (%d, %d) to %t", clampedTrack, clampedStep, cell.Active)
	return cell.Active
}

// Clear turns every cell off. The loaded dataset and its anchors survive, a
// later resize with geographic data present brings the mapping back.
func (g *Grid) Clear() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.clearCells()
	g.state = StateManual
	sigolo.Debug("Cleared the pattern")
}

// Randomize activates each cell with the given probability. Like manual
// toggles this abandons the geographic binding.
func (g *Grid) Randomize(rng *rand.Rand, probability float64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}

	for t := range g.tracks {
		for s := range g.tracks[t].Cells {
			g.tracks[t].Cells[s].Active = rng.Float64() < probability
		}
	}
	g.state = StateManual
	sigolo.Debugf("Randomized the pattern with probability %.2f", probability)
}

// SetTrackSound reassigns the voice of one track.
func (g *Grid) SetTrackSound(track int, sound SoundKind) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	clampedTrack := clampIndex(track, g.numTracks-1)
	g.tracks[clampedTrack].Sound = sound
	g.tracks[clampedTrack].Name = sound.String()
}

// TrackSound returns the voice currently assigned to the given track.
func (g *Grid) TrackSound(track int) SoundKind {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.tracks[clampIndex(track, g.numTracks-1)].Sound
}

func (g *Grid) NumSteps() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.numSteps
}

func (g *Grid) NumTracks() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.numTracks
}

func (g *Grid) State() PatternState {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.state
}

func (g *Grid) PointCount() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.points)
}

// Bounds returns a copy of the current grid bounds or nil if no geographic
// dataset has been loaded.
func (g *Grid) Bounds() *geo.GridBounds {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.gridBounds == nil {
		return nil
	}
	boundsCopy := *g.gridBounds
	return &boundsCopy
}

// Pattern returns a copy of all active flags, indexed by track then step.
func (g *Grid) Pattern() [][]bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	pattern := make([][]bool, g.numTracks)
	for t := range g.tracks {
		pattern[t] = make([]bool, g.numSteps)
		for s := range g.tracks[t].Cells {
			pattern[t][s] = g.tracks[t].Cells[s].Active
		}
	}
	return pattern
}

// Snapshot returns a deep copy of the grid for renderers and exporters.
func (g *Grid) Snapshot() Snapshot {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	tracks := make([]Track, len(g.tracks))
	for i, track := range g.tracks {
		tracks[i] = track.clone()
	}

	var bounds *geo.GridBounds
	if g.gridBounds != nil {
		boundsCopy := *g.gridBounds
		bounds = &boundsCopy
	}

	points := make([]orb.Point, len(g.points))
	copy(points, g.points)

	return Snapshot{
		NumSteps:  g.numSteps,
		NumTracks: g.numTracks,
		State:     g.state,
		Tracks:    tracks,
		Bounds:    bounds,
		Points:    points,
	}
}

// TriggersForStep returns the active cells of one column together with their
// sounds. The playback timer calls this once per tick.
func (g *Grid) TriggersForStep(step int) []Trigger {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if step < 0 || step >= g.numSteps {
		return nil
	}

	var triggers []Trigger
	for t := range g.tracks {
		cell := g.tracks[t].Cells[step]
		if !cell.Active {
			continue
		}

		indices := make([]int, len(cell.PointIndices))
		copy(indices, cell.PointIndices)
		triggers = append(triggers, Trigger{
			Track:        t,
			Sound:        g.tracks[t].Sound,
			PointIndices: indices,
		})
	}
	return triggers
}

// mapPoints clears all cells and re-runs the point-to-cell mapping against
// the current grid bounds. The result only depends on the points and the
// bounds, not on any previous grid size.
func (g *Grid) mapPoints() {
	g.clearCells()
	for i, point := range g.points {
		cell := g.gridBounds.GetCellIndexForPoint(point)
		target := &g.tracks[cell.Track()].Cells[cell.Step()]
		target.Active = true
		target.PointIndices = append(target.PointIndices, i)
	}
	g.state = StateGeographic
}

// captureAnchors stores the normalized position of every point's cell. This
// happens once per load, resizes project the stored anchors instead of
// recomputing them, see remapAnchors.
func (g *Grid) captureAnchors() {
	g.anchors = make([]geo.NormalizedPosition, len(g.points))
	for i, point := range g.points {
		cell := g.gridBounds.GetCellIndexForPoint(point)
		g.anchors[i] = geo.Normalize(cell, g.numSteps, g.numTracks)
	}
}

// remapAnchors re-activates one cell per stored anchor. Anchors are load-time
// constants, so any number of resizes ends up exactly where a single resize
// would have.
func (g *Grid) remapAnchors() {
	g.clearCells()
	for i, anchor := range g.anchors {
		cell := anchor.ToCellIndex(g.numSteps, g.numTracks)
		target := &g.tracks[cell.Track()].Cells[cell.Step()]
		target.Active = true
		target.PointIndices = append(target.PointIndices, i)
	}
}

// resizeTracks rebuilds the track slice for the new dimensions. Overlapping
// cells and track metadata survive, new tracks get the positional defaults.
func (g *Grid) resizeTracks(numSteps int, numTracks int) {
	tracks := make([]Track, numTracks)
	for i := range tracks {
		if i < len(g.tracks) {
			old := g.tracks[i]
			cells := make([]Cell, numSteps)
			for s := 0; s < numSteps && s < len(old.Cells); s++ {
				cells[s] = old.Cells[s].clone()
			}
			tracks[i] = Track{Name: old.Name, Color: old.Color, Sound: old.Sound, Cells: cells}
		} else {
			tracks[i] = newTrack(i, numSteps)
		}
	}

	g.tracks = tracks
	g.numSteps = numSteps
	g.numTracks = numTracks
}

func (g *Grid) clearCells() {
	for t := range g.tracks {
		for s := range g.tracks[t].Cells {
			g.tracks[t].Cells[s] = Cell{}
		}
	}
}

func clampIndex(value int, max int) int {
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

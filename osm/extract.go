package osm

import (
	"math/rand"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// AmenityValues lists the amenity types offered on the command line.
var AmenityValues = []string{"restaurant", "cafe", "bar", "shop", "bank", "pharmacy", "school", "hospital", "fuel"}

// PointCollector turns OSM objects carrying a wanted tag into plain points.
// Nodes contribute their own coordinate, ways the centroid of their member
// nodes. All node coordinates are kept in memory so that ways can be
// resolved in the same pass, which limits this collector to city-sized
// extracts rather than whole planet files.
type PointCollector struct {
	tagKey   string
	tagValue string
	boundary orb.MultiPolygon

	nodeCoordinates  map[int64]orb.Point
	points           []orb.Point
	skippedWays      int
	skippedRelations int
}

func NewPointCollector(tagKey string, tagValue string, boundary orb.MultiPolygon) *PointCollector {
	return &PointCollector{
		tagKey:          tagKey,
		tagValue:        tagValue,
		boundary:        boundary,
		nodeCoordinates: map[int64]orb.Point{},
	}
}

func (c *PointCollector) Name() string {
	return "PointCollector"
}

func (c *PointCollector) Init() error {
	return nil
}

func (c *PointCollector) HandleNode(node *osm.Node) error {
	point := orb.Point{node.Lon, node.Lat}
	c.nodeCoordinates[int64(node.ID)] = point

	if c.matches(node.Tags) && c.insideBoundary(point) {
		c.points = append(c.points, point)
	}

	return nil
}

func (c *PointCollector) HandleWay(way *osm.Way) error {
	if !c.matches(way.Tags) {
		return nil
	}

	lngSum := 0.0
	latSum := 0.0
	resolvedNodes := 0
	for _, wayNode := range way.Nodes {
		coordinate, ok := c.nodeCoordinates[int64(wayNode.ID)]
		if !ok {
			continue
		}
		lngSum += coordinate.Lon()
		latSum += coordinate.Lat()
		resolvedNodes++
	}

	if resolvedNodes == 0 {
		c.skippedWays++
		sigolo.Tracef("Skipping way %d, none of its %d nodes appeared in the input", way.ID, len(way.Nodes))
		return nil
	}

	centroid := orb.Point{lngSum / float64(resolvedNodes), latSum / float64(resolvedNodes)}
	if c.insideBoundary(centroid) {
		c.points = append(c.points, centroid)
	}

	return nil
}

// HandleRelation only counts matching relations. Turning a relation into a
// point would require assembling its member ways into polygons first, which
// nodes and ways cover well enough for amenity-style tags.
func (c *PointCollector) HandleRelation(relation *osm.Relation) error {
	if c.matches(relation.Tags) {
		c.skippedRelations++
	}

	return nil
}

func (c *PointCollector) Done() error {
	if c.skippedWays > 0 || c.skippedRelations > 0 {
		sigolo.Debugf("Skipped %d ways without resolvable nodes and %d relations", c.skippedWays, c.skippedRelations)
	}
	sigolo.Infof("Collected %d points with %s", len(c.points), c.tagFilter())

	return nil
}

// Points returns the collected points in input file order.
func (c *PointCollector) Points() []orb.Point {
	return c.points
}

func (c *PointCollector) matches(tags osm.Tags) bool {
	value := tags.Find(c.tagKey)
	if value == "" {
		return false
	}
	return c.tagValue == "" || value == c.tagValue
}

func (c *PointCollector) insideBoundary(point orb.Point) bool {
	if len(c.boundary) == 0 {
		return true
	}
	return planar.MultiPolygonContains(c.boundary, point)
}

func (c *PointCollector) tagFilter() string {
	if c.tagValue == "" {
		return c.tagKey + "=*"
	}
	return c.tagKey + "=" + c.tagValue
}

// ExtractPoints reads an OSM file and returns the coordinates of all objects
// tagged with the given key and value. An empty tagValue matches any value.
// An optional boundary discards points outside of it. When more than
// maxPoints objects match, a random subset is returned.
func ExtractPoints(filename string, tagKey string, tagValue string, boundary orb.MultiPolygon, maxPoints int, rng *rand.Rand) ([]orb.Point, error) {
	collector := NewPointCollector(tagKey, tagValue, boundary)

	err := NewReader().Read(filename, collector)
	if err != nil {
		return nil, err
	}

	points := collector.Points()
	if len(points) == 0 {
		return nil, errors.Errorf("No object in %s carries the tag %s", filename, collector.tagFilter())
	}

	return samplePoints(points, maxPoints, rng), nil
}

// samplePoints picks a random subset when more points were found than wanted.
func samplePoints(points []orb.Point, maxPoints int, rng *rand.Rand) []orb.Point {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return points
	}

	sampled := make([]orb.Point, 0, maxPoints)
	for _, i := range rng.Perm(len(points))[:maxPoints] {
		sampled = append(sampled, points[i])
	}
	return sampled
}

package io

import (
	"io"
	"os"
	"time"

	"geos4/geo"
	"geos4/sequencer"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// ParsePoints extracts all point geometries from a GeoJSON feature collection.
// Non-point features are skipped, that only becomes an error when the
// collection contains features but not a single usable point. An empty
// collection is fine and simply yields no points.
func ParsePoints(data []byte) ([]orb.Point, error) {
	featureCollection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to parse GeoJSON feature collection")
	}

	var points []orb.Point
	for i, feature := range featureCollection.Features {
		point, ok := feature.Geometry.(orb.Point)
		if !ok {
			sigolo.Tracef("Skipping feature %d with non-point geometry %s", i, feature.Geometry.GeoJSONType())
			continue
		}
		points = append(points, point)
	}

	if len(featureCollection.Features) > 0 && len(points) == 0 {
		return nil, errors.Errorf("GeoJSON contains %d features but no point geometries", len(featureCollection.Features))
	}

	return points, nil
}

// ReadPointsFromFile reads a GeoJSON file and returns its points together
// with their extent.
func ReadPointsFromFile(path string) ([]orb.Point, geo.Bounds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, geo.Bounds{}, errors.Wrapf(err, "Unable to read GeoJSON file %s", path)
	}

	points, err := ParsePoints(data)
	if err != nil {
		return nil, geo.Bounds{}, errors.Wrapf(err, "Unable to parse GeoJSON file %s", path)
	}
	if len(points) == 0 {
		return nil, geo.Bounds{}, nil
	}

	bounds, err := geo.BoundsOfPoints(points)
	if err != nil {
		return nil, geo.Bounds{}, errors.Wrapf(err, "Unable to determine bounds of GeoJSON file %s", path)
	}

	sigolo.Debugf("Read %d points from %s", len(points), path)
	return points, bounds, nil
}

// ReadBoundaryFromFile reads an area boundary from a GeoJSON file. The file
// may contain a feature collection, a single feature or a bare geometry,
// which covers everything a city-boundary download usually looks like. All
// polygons found are merged into one multipolygon.
func ReadBoundaryFromFile(path string) (orb.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read boundary file %s", path)
	}

	var geometries []orb.Geometry
	if featureCollection, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, feature := range featureCollection.Features {
			geometries = append(geometries, feature.Geometry)
		}
	} else if feature, err := geojson.UnmarshalFeature(data); err == nil {
		geometries = append(geometries, feature.Geometry)
	} else if geometry, err := geojson.UnmarshalGeometry(data); err == nil {
		geometries = append(geometries, geometry.Geometry())
	} else {
		return nil, errors.Errorf("Boundary file %s is neither a feature collection, a feature nor a geometry", path)
	}

	var boundary orb.MultiPolygon
	for _, geometry := range geometries {
		switch g := geometry.(type) {
		case orb.Polygon:
			boundary = append(boundary, g)
		case orb.MultiPolygon:
			boundary = append(boundary, g...)
		default:
			sigolo.Tracef("Skipping non-polygon geometry %s in boundary file", geometry.GeoJSONType())
		}
	}

	if len(boundary) == 0 {
		return nil, errors.Errorf("Boundary file %s does not contain any polygon", path)
	}

	sigolo.Debugf("Read boundary with %d polygons from %s", len(boundary), path)
	return boundary, nil
}

// ExportPattern turns the active cells of a grid snapshot into a GeoJSON
// feature collection. Cells that hold loaded points are exported at the
// centroid of those points, manually toggled cells at their cell center.
// Without loaded grid bounds there is no geographic frame to export into.
func ExportPattern(snapshot sequencer.Snapshot) (*geojson.FeatureCollection, error) {
	if snapshot.Bounds == nil {
		return nil, errors.New("Unable to export pattern without loaded geographic bounds")
	}

	featureCollection := geojson.NewFeatureCollection()
	for trackIndex, track := range snapshot.Tracks {
		for stepIndex, cell := range track.Cells {
			if !cell.Active {
				continue
			}

			// Cells loaded from an active-cells payload carry indices but no
			// raw points, those fall back to the cell center as well.
			position := snapshot.Bounds.CellCenter(geo.CellIndex{trackIndex, stepIndex})
			if centroid, ok := centroidOfPoints(snapshot.Points, cell.PointIndices); ok {
				position = centroid
			}

			feature := geojson.NewFeature(position)
			feature.Properties["track"] = trackIndex
			feature.Properties["step"] = stepIndex
			feature.Properties["sound"] = track.Sound.String()
			feature.Properties["color"] = track.Color
			feature.Properties["point_count"] = len(cell.PointIndices)

			featureCollection.Features = append(featureCollection.Features, feature)
		}
	}

	return featureCollection, nil
}

// PointsToFeatureCollection wraps plain points into a feature collection so
// they can be fed back in as a load payload.
func PointsToFeatureCollection(points []orb.Point) *geojson.FeatureCollection {
	featureCollection := geojson.NewFeatureCollection()
	for _, point := range points {
		featureCollection.Features = append(featureCollection.Features, geojson.NewFeature(point))
	}
	return featureCollection
}

func centroidOfPoints(points []orb.Point, indices []int) (orb.Point, bool) {
	var sumLng, sumLat float64
	count := 0
	for _, index := range indices {
		if index < 0 || index >= len(points) {
			continue
		}
		sumLng += points[index].Lon()
		sumLat += points[index].Lat()
		count++
	}
	if count == 0 {
		return orb.Point{}, false
	}
	return orb.Point{sumLng / float64(count), sumLat / float64(count)}, true
}

func WriteFeatureCollection(featureCollection *geojson.FeatureCollection, writer io.Writer) error {
	sigolo.Debug("Write feature collection as GeoJSON")
	writeStartTime := time.Now()

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Unable to marshal feature collection")
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return errors.Wrap(err, "Unable to write GeoJSON output")
	}

	sigolo.Debugf("Finished writing in %s", time.Since(writeStartTime))
	return nil
}

func WriteFeatureCollectionToFile(featureCollection *geojson.FeatureCollection, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Unable to create GeoJSON file %s", path)
	}

	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for GeoJSON file %s", file.Name()))
	}()

	return WriteFeatureCollection(featureCollection, file)
}

package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"geos4/audio"
	"geos4/geo"
	ownIo "geos4/io"
	"geos4/osm"
	"geos4/playback"
	"geos4/sequencer"
	"geos4/spatial"
	"geos4/tui"
	"geos4/util"
	"geos4/web"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Build   struct {
		Input      string  `help:"GeoJSON file with point features." placeholder:"<input-file>" arg:"" type:"existingfile"`
		Output     string  `help:"File for the active-cells payload. Prints to stdout when omitted." short:"o"`
		Steps      int     `help:"Number of grid steps. Derived from the data when omitted."`
		Tracks     int     `help:"Number of grid tracks. Derived from the data when omitted."`
		Transform  string  `help:"Point transformation applied before building the grid." enum:"none,cluster,grid-align,noise" default:"none"`
		Clusters   int     `help:"Cluster count for the cluster transformation." default:"3"`
		GridSize   float64 `help:"Snap size in degrees for the grid-align transformation." default:"0.001"`
		NoiseLevel float64 `help:"Offset in degrees for the noise transformation." default:"0.0001"`
		Seed       int64   `help:"Random seed. 0 seeds from the current time." default:"0"`
	} `cmd:"" help:"Computes the sequencer pattern for a GeoJSON point file and writes it as active-cells payload."`
	Extract struct {
		Input     string `help:"OSM data file, either .osm or .pbf." placeholder:"<input-file>" arg:"" type:"existingfile"`
		Amenity   string `help:"Amenity type to extract. Common values: ${amenities}." default:"restaurant"`
		Boundary  string `help:"GeoJSON file with a boundary polygon the points must lie in."`
		MaxPoints int    `help:"Maximum number of points to keep." default:"100"`
		Output    string `help:"GeoJSON file for the extracted points. Prints to stdout when omitted." short:"o"`
		Seed      int64  `help:"Random seed. 0 seeds from the current time." default:"0"`
	} `cmd:"" help:"Pulls amenity points out of an OSM extract."`
	Random struct {
		Boundary  string `help:"GeoJSON file with the boundary polygon." placeholder:"<boundary-file>" arg:"" type:"existingfile"`
		NumPoints int    `help:"Number of points to generate." default:"50"`
		Output    string `help:"GeoJSON file for the generated points. Prints to stdout when omitted." short:"o"`
		Seed      int64  `help:"Random seed. 0 seeds from the current time." default:"0"`
	} `cmd:"" help:"Generates random points inside a boundary polygon."`
	Play struct {
		Input   string `help:"GeoJSON point file to preload."`
		Cells   string `help:"Active-cells payload file to preload, e.g. the output of the build command."`
		Bpm     int    `help:"Beats per minute." default:"90"`
		Steps   int    `help:"Number of grid steps. Derived from the data when omitted."`
		Tracks  int    `help:"Number of grid tracks. Derived from the data when omitted."`
		NoAudio bool   `help:"Run with a silent output instead of the speaker."`
	} `cmd:"" help:"Runs the interactive terminal sequencer."`
	Serve struct {
		Port        string `help:"Port to listen on." default:"8080"`
		Input       string `help:"GeoJSON point file to preload."`
		Cells       string `help:"Active-cells payload file to preload, e.g. the output of the build command."`
		Audio       bool   `help:"Play triggered steps on the local speaker."`
		SslCertFile string `help:"Certificate file to serve HTTPS."`
		SslKeyFile  string `help:"Key file to serve HTTPS."`
	} `cmd:"" help:"Serves the sequencer over HTTP."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("geos4"),
		kong.Description("A geographic step sequencer turning points on a map into drum patterns."),
		kong.Vars{
			"version":   VERSION,
			"amenities": strings.Join(osm.AmenityValues, ", "),
		},
	)

	util.ApplyLogLevel(cli.Logging)

	switch ctx.Command() {
	case "build <input>":
		err := runBuild()
		sigolo.FatalCheck(err)
	case "extract <input>":
		err := runExtract()
		sigolo.FatalCheck(err)
	case "random <boundary>":
		err := runRandom()
		sigolo.FatalCheck(err)
	case "play":
		err := runPlay()
		sigolo.FatalCheck(err)
	case "serve":
		err := runServe()
		sigolo.FatalCheck(err)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

func runBuild() error {
	points, bounds, err := ownIo.ReadPointsFromFile(cli.Build.Input)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return errors.Errorf("File %s contains no usable point features", cli.Build.Input)
	}

	transformation := spatial.Transformation(cli.Build.Transform)
	if transformation != spatial.TransformNone {
		options := spatial.TransformOptions{
			NumClusters: cli.Build.Clusters,
			GridSize:    cli.Build.GridSize,
			NoiseLevel:  cli.Build.NoiseLevel,
		}

		points, err = spatial.Apply(points, transformation, options, newRng(cli.Build.Seed))
		if err != nil {
			return err
		}

		bounds, err = geo.BoundsOfPoints(points)
		if err != nil {
			return errors.Wrap(err, "Unable to compute the bounds of the transformed points")
		}
	}

	numSteps := cli.Build.Steps
	numTracks := cli.Build.Tracks
	if numSteps == 0 || numTracks == 0 {
		optimalSteps, optimalTracks := spatial.OptimalDimensions(len(points), bounds, 0)
		if numSteps == 0 {
			numSteps = optimalSteps
		}
		if numTracks == 0 {
			numTracks = optimalTracks
		}
		sigolo.Infof("Using a %dx%d grid for %d points", numSteps, numTracks, len(points))
	}

	data, err := spatial.ComputeActiveCells(points, bounds, numSteps, numTracks)
	if err != nil {
		return err
	}

	efficiency := spatial.GridEfficiency(data)
	sigolo.Infof("%d of %d cells are active (%.0f%% grid efficiency)", len(data.ActiveCells), numSteps*numTracks, efficiency*100)

	payloadBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Unable to marshal active-cells payload")
	}

	return writeOutput(payloadBytes, cli.Build.Output)
}

func runExtract() error {
	var boundary orb.MultiPolygon
	var err error
	if cli.Extract.Boundary != "" {
		boundary, err = ownIo.ReadBoundaryFromFile(cli.Extract.Boundary)
		if err != nil {
			return err
		}
	}

	points, err := osm.ExtractPoints(cli.Extract.Input, "amenity", cli.Extract.Amenity, boundary, cli.Extract.MaxPoints, newRng(cli.Extract.Seed))
	if err != nil {
		return err
	}

	return writePoints(points, cli.Extract.Output)
}

func runRandom() error {
	boundary, err := ownIo.ReadBoundaryFromFile(cli.Random.Boundary)
	if err != nil {
		return err
	}

	points, err := spatial.RandomPointsInBoundary(boundary, cli.Random.NumPoints, newRng(cli.Random.Seed))
	if err != nil {
		return err
	}

	return writePoints(points, cli.Random.Output)
}

func runPlay() error {
	grid, err := newGrid(cli.Play.Input, cli.Play.Cells, cli.Play.Steps, cli.Play.Tracks)
	if err != nil {
		return err
	}

	var output audio.Output = &audio.SpeakerOutput{}
	if cli.Play.NoAudio {
		output = &audio.NullOutput{}
	}

	engine, err := audio.NewEngine(output)
	if err != nil {
		return err
	}
	defer engine.Close()

	player := playback.NewPlayer(grid, engine)
	player.SetBPM(cli.Play.Bpm)

	util.QuietLogging()
	return tui.Run(tui.NewModel(grid, player, engine))
}

func runServe() error {
	grid, err := newGrid(cli.Serve.Input, cli.Serve.Cells, 0, 0)
	if err != nil {
		return err
	}

	var output audio.Output = &audio.NullOutput{}
	if cli.Serve.Audio {
		output = &audio.SpeakerOutput{}
	}

	engine, err := audio.NewEngine(output)
	if err != nil {
		return err
	}
	defer engine.Close()

	player := playback.NewPlayer(grid, engine)

	if cli.Serve.SslCertFile != "" && cli.Serve.SslKeyFile != "" {
		web.StartServerTls(cli.Serve.Port, cli.Serve.SslCertFile, cli.Serve.SslKeyFile, grid, player)
	} else {
		web.StartServer(cli.Serve.Port, grid, player)
	}

	return nil
}

// newGrid builds the initial grid, preloading the given GeoJSON point file or
// active-cells payload when one was passed.
func newGrid(input string, cells string, numSteps int, numTracks int) (*sequencer.Grid, error) {
	if input != "" && cells != "" {
		return nil, errors.New("Only one of the point file and the active-cells file can be preloaded")
	}

	if cells != "" {
		payload, err := ownIo.ReadActiveCellsFromFile(cells)
		if err != nil {
			return nil, err
		}

		grid, err := sequencer.NewGrid(sequencer.DefaultNumSteps, sequencer.DefaultNumTracks)
		if err != nil {
			return nil, err
		}

		err = ownIo.ApplyActiveCells(grid, payload)
		if err != nil {
			return nil, err
		}

		if numSteps != 0 || numTracks != 0 {
			steps, tracks := grid.NumSteps(), grid.NumTracks()
			if numSteps != 0 {
				steps = numSteps
			}
			if numTracks != 0 {
				tracks = numTracks
			}
			err = grid.SetDimensions(steps, tracks)
			if err != nil {
				return nil, err
			}
		}

		return grid, nil
	}

	if input == "" {
		if numSteps == 0 {
			numSteps = sequencer.DefaultNumSteps
		}
		if numTracks == 0 {
			numTracks = sequencer.DefaultNumTracks
		}
		return sequencer.NewGrid(numSteps, numTracks)
	}

	points, bounds, err := ownIo.ReadPointsFromFile(input)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errors.Errorf("File %s contains no usable point features", input)
	}

	if numSteps == 0 || numTracks == 0 {
		optimalSteps, optimalTracks := spatial.OptimalDimensions(len(points), bounds, 0)
		if numSteps == 0 {
			numSteps = optimalSteps
		}
		if numTracks == 0 {
			numTracks = optimalTracks
		}
		sigolo.Infof("Using a %dx%d grid for %d points", numSteps, numTracks, len(points))
	}

	grid, err := sequencer.NewGrid(numSteps, numTracks)
	if err != nil {
		return nil, err
	}

	err = grid.LoadPoints(points, bounds)
	if err != nil {
		return nil, err
	}

	return grid, nil
}

func newRng(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func writeOutput(data []byte, output string) error {
	if output == "" {
		fmt.Println(string(data))
		return nil
	}

	err := os.WriteFile(output, data, 0644)
	if err != nil {
		return errors.Wrapf(err, "Unable to write output file %s", output)
	}

	sigolo.Infof("Wrote %s", output)
	return nil
}

func writePoints(points []orb.Point, output string) error {
	featureCollection := ownIo.PointsToFeatureCollection(points)

	if output == "" {
		err := ownIo.WriteFeatureCollection(featureCollection, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	err := ownIo.WriteFeatureCollectionToFile(featureCollection, output)
	if err != nil {
		return err
	}

	sigolo.Infof("Wrote %d points to %s", len(points), output)
	return nil
}

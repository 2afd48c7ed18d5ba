package web

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"time"

	"geos4/geo"
	ownIo "geos4/io"
	"geos4/playback"
	"geos4/sequencer"

	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
)

// Probability used by the randomize endpoint when the request does not
// specify one.
const defaultRandomizeProbability = 0.3

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewErrorResponse(message string, err error) ErrorResponse {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	return response
}

type GridResponse struct {
	NumSteps   int             `json:"num_steps"`
	NumTracks  int             `json:"num_tracks"`
	State      string          `json:"state"`
	BPM        int             `json:"bpm"`
	PointCount int             `json:"point_count"`
	Bounds     *geo.Bounds     `json:"bounds,omitempty"`
	Tracks     []TrackResponse `json:"tracks"`
}

type TrackResponse struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Sound string `json:"sound"`
	Steps []bool `json:"steps"`
}

type PlaybackResponse struct {
	Playing     bool `json:"playing"`
	BPM         int  `json:"bpm"`
	CurrentStep int  `json:"current_step"`
}

type ToggleResponse struct {
	Track  int  `json:"track"`
	Step   int  `json:"step"`
	Active bool `json:"active"`
}

type dimensionsRequest struct {
	NumSteps  int `json:"num_steps"`
	NumTracks int `json:"num_tracks"`
}

type toggleRequest struct {
	Track int `json:"track"`
	Step  int `json:"step"`
}

type randomizeRequest struct {
	Probability *float64 `json:"probability"`
}

type bpmRequest struct {
	BPM int `json:"bpm"`
}

func StartServer(port string, grid *sequencer.Grid, player *playback.Player) {
	r := initRouter(grid, player)
	sigolo.Infof("Start server on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

func StartServerTls(port string, certFile string, keyFile string, grid *sequencer.Grid, player *playback.Player) {
	r := initRouter(grid, player)
	sigolo.Infof("Start server with TLS support on port %s", port)
	err := http.ListenAndServeTLS(":"+port, certFile, keyFile, r)
	sigolo.FatalCheck(err)
}

func initRouter(grid *sequencer.Grid, player *playback.Player) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/grid", func(writer http.ResponseWriter, request *http.Request) {
		writeJson(writer, newGridResponse(grid, player))
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/grid/geojson", func(writer http.ResponseWriter, request *http.Request) {
		bodyBytes, err := io.ReadAll(request.Body)
		if err != nil {
			writeError(writer, http.StatusInternalServerError, "Error reading HTTP body", err)
			return
		}

		payload, err := ownIo.ParseGeoJSONPayload(bodyBytes)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error parsing GeoJSON payload", err)
			return
		}

		err = ownIo.ApplyGeoJSON(grid, payload)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error applying GeoJSON payload", err)
			return
		}

		writeJson(writer, newGridResponse(grid, player))
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/grid/active-cells", func(writer http.ResponseWriter, request *http.Request) {
		bodyBytes, err := io.ReadAll(request.Body)
		if err != nil {
			writeError(writer, http.StatusInternalServerError, "Error reading HTTP body", err)
			return
		}

		payload, err := ownIo.ParseActiveCells(bodyBytes)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error parsing active-cells payload", err)
			return
		}

		err = ownIo.ApplyActiveCells(grid, payload)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error applying active-cells payload", err)
			return
		}

		writeJson(writer, newGridResponse(grid, player))
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/grid/dimensions", func(writer http.ResponseWriter, request *http.Request) {
		var body dimensionsRequest
		err := decodeBody(request, &body)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error parsing dimensions request", err)
			return
		}

		err = grid.SetDimensions(body.NumSteps, body.NumTracks)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error resizing the grid", err)
			return
		}

		writeJson(writer, newGridResponse(grid, player))
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/grid/toggle", func(writer http.ResponseWriter, request *http.Request) {
		var body toggleRequest
		err := decodeBody(request, &body)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error parsing toggle request", err)
			return
		}

		active := grid.ToggleStep(body.Track, body.Step)
		writeJson(writer, ToggleResponse{Track: body.Track, Step: body.Step, Active: active})
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/grid/clear", func(writer http.ResponseWriter, request *http.Request) {
		grid.Clear()
		writeJson(writer, newGridResponse(grid, player))
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/grid/randomize", func(writer http.ResponseWriter, request *http.Request) {
		probability := defaultRandomizeProbability

		bodyBytes, err := io.ReadAll(request.Body)
		if err != nil {
			writeError(writer, http.StatusInternalServerError, "Error reading HTTP body", err)
			return
		}
		if len(bodyBytes) > 0 {
			var body randomizeRequest
			err = json.Unmarshal(bodyBytes, &body)
			if err != nil {
				writeError(writer, http.StatusBadRequest, "Error parsing randomize request", err)
				return
			}
			if body.Probability != nil {
				probability = *body.Probability
			}
		}

		grid.Randomize(rand.New(rand.NewSource(time.Now().UnixNano())), probability)
		writeJson(writer, newGridResponse(grid, player))
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/grid/export", func(writer http.ResponseWriter, request *http.Request) {
		featureCollection, err := ownIo.ExportPattern(grid.Snapshot())
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error exporting the pattern", err)
			return
		}

		writer.Header().Set("Access-Control-Allow-Origin", "*")
		writer.Header().Set("Content-Type", "application/geo+json")

		err = ownIo.WriteFeatureCollection(featureCollection, writer)
		if err != nil {
			sigolo.Errorf("Error writing exported pattern: %+v", err)
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/playback", func(writer http.ResponseWriter, request *http.Request) {
		writeJson(writer, newPlaybackResponse(player))
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/playback/start", func(writer http.ResponseWriter, request *http.Request) {
		player.Play()
		writeJson(writer, newPlaybackResponse(player))
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/playback/stop", func(writer http.ResponseWriter, request *http.Request) {
		player.Stop()
		writeJson(writer, newPlaybackResponse(player))
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/playback/bpm", func(writer http.ResponseWriter, request *http.Request) {
		var body bpmRequest
		err := decodeBody(request, &body)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "Error parsing BPM request", err)
			return
		}

		player.SetBPM(body.BPM)
		writeJson(writer, newPlaybackResponse(player))
	}).Methods(http.MethodPost)

	return r
}

func newGridResponse(grid *sequencer.Grid, player *playback.Player) GridResponse {
	snapshot := grid.Snapshot()

	response := GridResponse{
		NumSteps:   snapshot.NumSteps,
		NumTracks:  snapshot.NumTracks,
		State:      snapshot.State.String(),
		BPM:        player.BPM(),
		PointCount: len(snapshot.Points),
		Tracks:     make([]TrackResponse, 0, len(snapshot.Tracks)),
	}

	if snapshot.Bounds != nil {
		bounds := snapshot.Bounds.Bounds
		response.Bounds = &bounds
	}

	for _, track := range snapshot.Tracks {
		steps := make([]bool, 0, len(track.Cells))
		for _, cell := range track.Cells {
			steps = append(steps, cell.Active)
		}
		response.Tracks = append(response.Tracks, TrackResponse{
			Name:  track.Name,
			Color: track.Color,
			Sound: track.Sound.String(),
			Steps: steps,
		})
	}

	return response
}

func newPlaybackResponse(player *playback.Player) PlaybackResponse {
	return PlaybackResponse{
		Playing:     player.Playing(),
		BPM:         player.BPM(),
		CurrentStep: player.CurrentStep(),
	}
}

func decodeBody(request *http.Request, target any) error {
	bodyBytes, err := io.ReadAll(request.Body)
	if err != nil {
		return errors.Wrap(err, "Unable to read HTTP body")
	}

	err = json.Unmarshal(bodyBytes, target)
	if err != nil {
		return errors.Wrap(err, "Unable to parse HTTP body as JSON")
	}

	return nil
}

func writeJson(writer http.ResponseWriter, data any) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")
	writer.Header().Set("Content-Type", "application/json")

	responseBytes, err := json.Marshal(data)
	if err != nil {
		sigolo.Errorf("Error marshalling response object: %+v", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	_, err = writer.Write(responseBytes)
	if err != nil {
		sigolo.Errorf("Error writing response: %+v", err)
	}
}

func writeError(writer http.ResponseWriter, status int, message string, err error) {
	sigolo.Errorf("%s: %+v", message, err)

	writer.Header().Set("Access-Control-Allow-Origin", "*")
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	errorResponseBytes, err := json.Marshal(NewErrorResponse(message, err))
	if err != nil {
		sigolo.Errorf("Error creating and marshalling error response object: %+v", err)
		return
	}

	_, err = writer.Write(errorResponseBytes)
	if err != nil {
		sigolo.Errorf("Error writing error response: %+v", err)
	}
}

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"geos4/audio"
	"geos4/playback"
	"geos4/sequencer"
	"geos4/util"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb/geojson"
)

const geoJsonPayload = `{
	"geojson": {
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [8, 2]}, "properties": {}},
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0.5, 3.5]}, "properties": {}}
		]
	},
	"grid_bounds": {"minLng": 0, "maxLng": 16, "minLat": 0, "maxLat": 4}
}`

func newTestRouter(t *testing.T) (*mux.Router, *playback.Player) {
	grid, err := sequencer.NewGrid(16, 4)
	util.AssertNil(t, err)

	engine, err := audio.NewEngine(&audio.NullOutput{})
	util.AssertNil(t, err)

	player := playback.NewPlayer(grid, engine)
	return initRouter(grid, player), player
}

func doRequest(router *mux.Router, method string, path string, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decodeGridResponse(t *testing.T, recorder *httptest.ResponseRecorder) GridResponse {
	var response GridResponse
	err := json.Unmarshal(recorder.Body.Bytes(), &response)
	util.AssertNil(t, err)
	return response
}

func TestApi_getGrid(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act
	recorder := doRequest(router, http.MethodGet, "/v1/grid", "")

	// Assert
	util.AssertEqual(t, http.StatusOK, recorder.Code)
	util.AssertEqual(t, "application/json", recorder.Header().Get("Content-Type"))

	response := decodeGridResponse(t, recorder)
	util.AssertEqual(t, 16, response.NumSteps)
	util.AssertEqual(t, 4, response.NumTracks)
	util.AssertEqual(t, "empty", response.State)
	util.AssertEqual(t, playback.DefaultBPM, response.BPM)
	util.AssertEqual(t, 4, len(response.Tracks))
	util.AssertEqual(t, 16, len(response.Tracks[0].Steps))
	util.AssertEqual(t, "kick", response.Tracks[0].Sound)
	util.AssertNil(t, response.Bounds)
}

func TestApi_postGeoJson(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act
	recorder := doRequest(router, http.MethodPost, "/v1/grid/geojson", geoJsonPayload)

	// Assert: (8,2) maps to track 1 step 8, (0.5,3.5) to track 0 step 0
	util.AssertEqual(t, http.StatusOK, recorder.Code)

	response := decodeGridResponse(t, recorder)
	util.AssertEqual(t, "geographic", response.State)
	util.AssertEqual(t, 2, response.PointCount)
	util.AssertNotNil(t, response.Bounds)
	util.AssertTrue(t, response.Tracks[1].Steps[8])
	util.AssertTrue(t, response.Tracks[0].Steps[0])
}

func TestApi_postGeoJsonRejectsGarbage(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act
	recorder := doRequest(router, http.MethodPost, "/v1/grid/geojson", "this is not JSON")

	// Assert
	util.AssertEqual(t, http.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	err := json.Unmarshal(recorder.Body.Bytes(), &response)
	util.AssertNil(t, err)
	util.AssertTrue(t, response.Error != "")
}

func TestApi_postActiveCells(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)
	payload := `{
		"grid_bounds": {"minLng": 0, "maxLng": 16, "minLat": 0, "maxLat": 4, "num_steps": 8, "num_tracks": 2},
		"active_cells": [
			{"track": 0, "step": 3, "point_lng": 7, "point_lat": 3, "point_id": 0, "point_count": 1}
		]
	}`

	// Act
	recorder := doRequest(router, http.MethodPost, "/v1/grid/active-cells", payload)

	// Assert
	util.AssertEqual(t, http.StatusOK, recorder.Code)

	response := decodeGridResponse(t, recorder)
	util.AssertEqual(t, 8, response.NumSteps)
	util.AssertEqual(t, 2, response.NumTracks)
	util.AssertEqual(t, "geographic", response.State)
	util.AssertTrue(t, response.Tracks[0].Steps[3])
}

func TestApi_setDimensions(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act & Assert
	recorder := doRequest(router, http.MethodPost, "/v1/grid/dimensions", `{"num_steps": 24, "num_tracks": 6}`)
	util.AssertEqual(t, http.StatusOK, recorder.Code)

	response := decodeGridResponse(t, recorder)
	util.AssertEqual(t, 24, response.NumSteps)
	util.AssertEqual(t, 6, response.NumTracks)

	// Act & Assert: invalid dimensions are rejected
	recorder = doRequest(router, http.MethodPost, "/v1/grid/dimensions", `{"num_steps": 0, "num_tracks": 6}`)
	util.AssertEqual(t, http.StatusBadRequest, recorder.Code)
}

func TestApi_toggleAndClear(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act & Assert: toggle on
	recorder := doRequest(router, http.MethodPost, "/v1/grid/toggle", `{"track": 1, "step": 2}`)
	util.AssertEqual(t, http.StatusOK, recorder.Code)

	var toggleResponse ToggleResponse
	err := json.Unmarshal(recorder.Body.Bytes(), &toggleResponse)
	util.AssertNil(t, err)
	util.AssertTrue(t, toggleResponse.Active)

	gridResponse := decodeGridResponse(t, doRequest(router, http.MethodGet, "/v1/grid", ""))
	util.AssertEqual(t, "manual", gridResponse.State)
	util.AssertTrue(t, gridResponse.Tracks[1].Steps[2])

	// Act & Assert: clear wipes the pattern
	recorder = doRequest(router, http.MethodPost, "/v1/grid/clear", "")
	util.AssertEqual(t, http.StatusOK, recorder.Code)

	gridResponse = decodeGridResponse(t, recorder)
	util.AssertFalse(t, gridResponse.Tracks[1].Steps[2])
}

func TestApi_randomize(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act
	recorder := doRequest(router, http.MethodPost, "/v1/grid/randomize", `{"probability": 1}`)

	// Assert
	util.AssertEqual(t, http.StatusOK, recorder.Code)

	response := decodeGridResponse(t, recorder)
	util.AssertEqual(t, "manual", response.State)
	for _, track := range response.Tracks {
		for _, active := range track.Steps {
			util.AssertTrue(t, active)
		}
	}

	// Act & Assert: an empty body uses the default probability
	recorder = doRequest(router, http.MethodPost, "/v1/grid/randomize", "")
	util.AssertEqual(t, http.StatusOK, recorder.Code)
}

func TestApi_export(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act & Assert: without a dataset there is nothing to export
	recorder := doRequest(router, http.MethodGet, "/v1/grid/export", "")
	util.AssertEqual(t, http.StatusBadRequest, recorder.Code)

	// Arrange
	doRequest(router, http.MethodPost, "/v1/grid/geojson", geoJsonPayload)

	// Act
	recorder = doRequest(router, http.MethodGet, "/v1/grid/export", "")

	// Assert
	util.AssertEqual(t, http.StatusOK, recorder.Code)
	util.AssertEqual(t, "application/geo+json", recorder.Header().Get("Content-Type"))

	featureCollection, err := geojson.UnmarshalFeatureCollection(recorder.Body.Bytes())
	util.AssertNil(t, err)
	util.AssertEqual(t, 2, len(featureCollection.Features))
}

func TestApi_playback(t *testing.T) {
	// Arrange
	router, player := newTestRouter(t)
	defer player.Stop()

	// Act & Assert: initial state
	recorder := doRequest(router, http.MethodGet, "/v1/playback", "")
	util.AssertEqual(t, http.StatusOK, recorder.Code)

	var response PlaybackResponse
	err := json.Unmarshal(recorder.Body.Bytes(), &response)
	util.AssertNil(t, err)
	util.AssertFalse(t, response.Playing)
	util.AssertEqual(t, playback.DefaultBPM, response.BPM)
	util.AssertEqual(t, -1, response.CurrentStep)

	// Act & Assert: start
	recorder = doRequest(router, http.MethodPost, "/v1/playback/start", "")
	err = json.Unmarshal(recorder.Body.Bytes(), &response)
	util.AssertNil(t, err)
	util.AssertTrue(t, response.Playing)

	// Act & Assert: BPM is clamped to the valid range
	recorder = doRequest(router, http.MethodPost, "/v1/playback/bpm", `{"bpm": 10000}`)
	err = json.Unmarshal(recorder.Body.Bytes(), &response)
	util.AssertNil(t, err)
	util.AssertEqual(t, playback.MaxBPM, response.BPM)

	// Act & Assert: stop
	recorder = doRequest(router, http.MethodPost, "/v1/playback/stop", "")
	err = json.Unmarshal(recorder.Body.Bytes(), &response)
	util.AssertNil(t, err)
	util.AssertFalse(t, response.Playing)
}

func TestApi_methodNotAllowed(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t)

	// Act
	recorder := doRequest(router, http.MethodGet, "/v1/grid/toggle", "")

	// Assert
	util.AssertEqual(t, http.StatusMethodNotAllowed, recorder.Code)
}

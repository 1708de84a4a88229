package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Megha-ldce/uav-deconfliction/internal/deconflict"
	"github.com/Megha-ldce/uav-deconfliction/internal/geom"
	"github.com/Megha-ldce/uav-deconfliction/internal/storage/sqlite"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	registry, err := deconflict.NewRegistry(deconflict.DefaultCheckConfig())
	require.NoError(t, err)

	var store *sqlite.CheckStore
	if withStore {
		db, err := sqlite.Open(filepath.Join(t.TempDir(), "api_test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		store = sqlite.NewCheckStore(db)
	}
	return NewServer(registry, store)
}

func missionBody(t *testing.T, id string, wps []geom.Waypoint, start, end, speed float64) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(missionRequest{
		DroneID:   id,
		Waypoints: wps,
		StartTime: start,
		EndTime:   end,
		Speed:     speed,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func postJSON(mux *http.ServeMux, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(http.MethodPost, path, body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndListMissions(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()

	rec := postJSON(mux, "/api/missions",
		missionBody(t, "drone_1", []geom.Waypoint{geom.W(0, 0, 50), geom.W(100, 0, 50)}, 0, 20, 10))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = get(mux, "/api/missions")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []missionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "drone_1", summaries[0].DroneID)
	assert.Equal(t, 2, summaries[0].NumWaypoints)
}

func TestRegisterDuplicateDroneID(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()

	wps := []geom.Waypoint{geom.W(0, 0, 50), geom.W(100, 0, 50)}
	rec := postJSON(mux, "/api/missions", missionBody(t, "dup", wps, 0, 20, 10))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(mux, "/api/missions", missionBody(t, "dup", wps, 0, 20, 10))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterInvalidMission(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()

	// Single waypoint is rejected by mission validation.
	rec := postJSON(mux, "/api/missions",
		missionBody(t, "bad", []geom.Waypoint{geom.W(0, 0, 50)}, 0, 20, 10))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(mux, "/api/missions", bytes.NewBufferString("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckMissionConflict(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()

	rec := postJSON(mux, "/api/missions",
		missionBody(t, "other", []geom.Waypoint{geom.W(50, -50, 50), geom.W(50, 50, 50)}, 0, 20, 10))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(mux, "/api/check",
		missionBody(t, "primary", []geom.Waypoint{geom.W(0, 0, 50), geom.W(100, 0, 50)}, 0, 20, 10))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "primary", resp.Candidate)
	assert.False(t, resp.IsSafe)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "other", resp.Conflicts[0].DroneA)
	assert.Equal(t, "primary", resp.Conflicts[0].DroneB)
	assert.Empty(t, resp.RunID, "no store configured, no run ID")
}

func TestCheckMissionDoesNotRegisterCandidate(t *testing.T) {
	srv := newTestServer(t, false)
	mux := srv.ServeMux()

	rec := postJSON(mux, "/api/check",
		missionBody(t, "primary", []geom.Waypoint{geom.W(0, 0, 50), geom.W(100, 0, 50)}, 0, 20, 10))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, srv.registry.Len())
}

func TestCheckMissionPersistsRun(t *testing.T) {
	mux := newTestServer(t, true).ServeMux()

	rec := postJSON(mux, "/api/check",
		missionBody(t, "primary", []geom.Waypoint{geom.W(0, 0, 50), geom.W(100, 0, 50)}, 0, 20, 10))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)

	rec = get(mux, "/api/runs?id="+resp.RunID)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Run       *sqlite.CheckRun      `json:"run"`
		Conflicts []deconflict.Conflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "primary", detail.Run.CandidateDrone)
	assert.True(t, detail.Run.IsSafe)
	assert.Empty(t, detail.Conflicts)
}

func TestListRunsWithoutStore(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()
	rec := get(mux, "/api/runs")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRunsInvalidLimit(t *testing.T) {
	mux := newTestServer(t, true).ServeMux()
	rec := get(mux, "/api/runs?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckAll(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()

	rec := postJSON(mux, "/api/missions",
		missionBody(t, "a", []geom.Waypoint{geom.W(0, 0, 50), geom.W(100, 0, 50)}, 0, 20, 10))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = postJSON(mux, "/api/missions",
		missionBody(t, "b", []geom.Waypoint{geom.W(0, 10, 50), geom.W(100, 10, 50)}, 0, 20, 10))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(mux, "/api/check/all", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsSafe)
	assert.NotEmpty(t, resp.Conflicts)
}

func TestShowConfig(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()

	rec := get(mux, "/api/config")
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, deconflict.DefaultSafetyBuffer, cfg["safety_buffer"])
	assert.Equal(t, deconflict.DefaultTimeResolution, cfg["time_resolution"])
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestServer(t, false).ServeMux()

	for _, path := range []string{"/api/check", "/api/check/all"} {
		rec := get(mux, path)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
	rec := postJSON(mux, "/api/runs", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

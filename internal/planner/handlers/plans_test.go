package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floorplan-engine/internal/planner/editor"
	"floorplan-engine/internal/planner/repository"
	"floorplan-engine/internal/planner/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app       *fiber.App
	exportDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := repository.OpenSQLite(filepath.Join(dir, "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	require.NoError(t, repo.Init(context.Background(), "../../../migrations/001_init_planner.sql"))

	exportDir := filepath.Join(dir, "exports")
	sessions := service.NewSessionManager(repo, editor.Options{WallWidth: 10})
	h := NewPlanHandler(repo, sessions, service.NewFileStorage(exportDir), 10, 10)

	app := fiber.New()
	app.Get("/health/live", LivenessProbe)
	app.Get("/health/ready", ReadinessProbe(repo))
	NewDocsHandler("../../../" + SpecPath).Register(app)
	h.Register(app.Group("/api/v1"))

	return &testEnv{app: app, exportDir: exportDir}
}

func (env *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

type stateResponse struct {
	PlanID   string `json:"planId"`
	Segments []struct {
		Width float64 `json:"width"`
	} `json:"segments"`
	Regions struct {
		Interior []struct {
			Area float64 `json:"area"`
		} `json:"interior"`
		Exterior []json.RawMessage `json:"exterior"`
	} `json:"regions"`
	Markers []struct {
		ID string `json:"id"`
	} `json:"markers"`
	CanUndo  bool `json:"canUndo"`
	CanRedo  bool `json:"canRedo"`
	Dragging bool `json:"dragging"`
}

type editResponse struct {
	Changed bool          `json:"changed"`
	Removed int           `json:"removed"`
	State   stateResponse `json:"state"`
}

func (env *testEnv) createPlan(t *testing.T) string {
	t.Helper()
	status, body := env.do(t, http.MethodPost, "/api/v1/plans", `{"name":"flat"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	var resp struct {
		Plan struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Plan.ID)
	assert.Equal(t, "flat", resp.Plan.Name)
	return resp.Plan.ID
}

func (env *testEnv) drawRoom(t *testing.T, id string) stateResponse {
	t.Helper()
	walls := []string{
		`{"start":{"x":0,"y":0},"end":{"x":100,"y":0}}`,
		`{"start":{"x":100,"y":0},"end":{"x":100,"y":100}}`,
		`{"start":{"x":100,"y":100},"end":{"x":0,"y":100}}`,
		`{"start":{"x":0,"y":100},"end":{"x":2,"y":3}}`,
	}
	var last editResponse
	for _, w := range walls {
		status, body := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/draw", w)
		require.Equal(t, http.StatusOK, status, string(body))
		require.NoError(t, json.Unmarshal(body, &last))
		require.True(t, last.Changed)
	}
	return last.State
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"alive"}`, string(body))

	status, body = env.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ready"}`, string(body))
}

func TestSwaggerDocs(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "/docs/openapi.yaml")
	assert.Contains(t, string(body), "Planner Service API")

	status, body = env.do(t, http.MethodGet, "/docs/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "/plans/{id}/draw")
}

func TestSwaggerDocs_MissingDocument(t *testing.T) {
	app := fiber.New()
	NewDocsHandler(filepath.Join(t.TempDir(), "missing.yaml")).Register(app)

	for _, path := range []string{"/docs", "/docs/openapi.yaml"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestPlans_DrawUndoRedo(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)

	state := env.drawRoom(t, id)
	assert.Equal(t, id, state.PlanID)
	assert.Len(t, state.Segments, 4)
	require.Len(t, state.Regions.Interior, 1)
	assert.InDelta(t, 10000, state.Regions.Interior[0].Area, 1e-6)
	assert.Len(t, state.Regions.Exterior, 1)
	assert.True(t, state.CanUndo)

	var resp editResponse
	_, body := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/undo", "")
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Changed)
	assert.Len(t, resp.State.Segments, 3)
	assert.Empty(t, resp.State.Regions.Interior)
	assert.True(t, resp.State.CanRedo)

	_, body = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/redo", "")
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Len(t, resp.State.Regions.Interior, 1)
}

func TestPlans_DragFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)
	env.drawRoom(t, id)

	status, _ := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/drag/move", `{"point":{"x":1,"y":1}}`)
	assert.Equal(t, http.StatusConflict, status)

	status, body := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/drag/start", `{"point":{"x":97,"y":99}}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"grabbed":true,"origin":{"x":100,"y":100}}`, string(body))

	status, body = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/drag/move", `{"point":{"x":150,"y":150}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `{"x":150,"y":150}`)

	var resp editResponse
	_, body = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/drag/end", `{"point":{"x":150,"y":150}}`)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Changed)
	assert.False(t, resp.State.Dragging)
	require.Len(t, resp.State.Regions.Interior, 1)
	assert.InDelta(t, 15000, resp.State.Regions.Interior[0].Area, 1e-6)
}

func TestPlans_EraseAndLocate(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)
	env.drawRoom(t, id)

	status, body := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/locate", `{"point":{"x":50,"y":50}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"kind":"interior"`)

	var resp editResponse
	_, body = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/erase", `{"point":{"x":50,"y":1}}`)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 1, resp.Removed)
	assert.Len(t, resp.State.Segments, 3)

	status, _ = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/locate", `{"point":{"x":50,"y":50}}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPlans_SnapProbe(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)
	env.drawRoom(t, id)

	_, body := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/snap", `{"point":{"x":50,"y":12}}`)
	assert.JSONEq(t, `{"point":{"x":50,"y":0},"kind":"segment"}`, string(body))

	_, body = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/snap", `{"point":{"x":50,"y":12},"modifiers":{"free":true}}`)
	assert.JSONEq(t, `{"point":{"x":50,"y":12},"kind":"none"}`, string(body))
}

func TestPlans_MarkersGetIDs(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)

	status, body := env.do(t, http.MethodPut, "/api/v1/plans/"+id+"/markers", `[{"kind":"sensor","point":{"x":5,"y":5}}]`)
	require.Equal(t, http.StatusOK, status)

	var state stateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	require.Len(t, state.Markers, 1)
	assert.NotEmpty(t, state.Markers[0].ID)
}

func TestPlans_SaveAndList(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)
	env.drawRoom(t, id)

	status, body := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/save", "")
	require.Equal(t, http.StatusOK, status, string(body))

	env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/clear", "")

	status, body = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/reload", "")
	require.Equal(t, http.StatusOK, status)
	var state stateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Len(t, state.Segments, 4)
	assert.False(t, state.CanUndo)

	_, body = env.do(t, http.MethodGet, "/api/v1/plans", "")
	assert.Contains(t, string(body), id)
}

func TestPlans_ImportMultipart(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)

	svg := `<svg xmlns="http://www.w3.org/2000/svg"><path id="Wall_1" d="M0 0 H100 V100 H0 Z"/></svg>`

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "plan.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte(svg))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/"+id+"/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Added int           `json:"added"`
		State stateResponse `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 4, out.Added)
	assert.Len(t, out.State.Regions.Interior, 1)
}

func TestPlans_RenderAndExport(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t)
	env.drawRoom(t, id)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/"+id+"/render/svg", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	status, _ := env.do(t, http.MethodGet, "/api/v1/plans/"+id+"/render/pdf", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/export/geojson", "")
	require.Equal(t, http.StatusOK, status, string(body))
	_, err = os.Stat(filepath.Join(env.exportDir, id, "plan.geojson"))
	assert.NoError(t, err)
}

func TestPlans_Errors(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/api/v1/plans/unknown", "")
	assert.Equal(t, http.StatusNotFound, status)

	id := env.createPlan(t)
	status, _ = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/draw", "{broken")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/plans/"+id+"/draw", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

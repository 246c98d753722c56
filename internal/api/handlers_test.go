package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webplots/internal/engine"
	"webplots/internal/models"
	"webplots/internal/workspace"
)

const weatherCSV = `day,temp,city
1,3.5,Oslo
2,7,Bergen
3,4,Oslo
4,9,Bergen
`

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	reg := workspace.NewRegistry(workspace.Defaults{ChartWidth: 1280, ChartHeight: 720}, nil)
	return NewServer(NewHandler(reg, 8, nil), ServerOptions{})
}

func do(t *testing.T, e *echo.Echo, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	return do(t, e, method, path, echo.MIMEApplicationJSON, body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createWorkspace(t *testing.T, e *echo.Echo) string {
	rec := doJSON(t, e, http.MethodPost, "/api/workspaces", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[map[string]string](t, rec)["id"]
}

func loadedWorkspace(t *testing.T, e *echo.Echo) string {
	id := createWorkspace(t, e)
	rec := do(t, e, http.MethodPost, "/api/workspaces/"+id+"/csv", "text/csv", weatherCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return id
}

func TestPlotRoundTrip(t *testing.T) {
	e := newTestServer(t)
	id := createWorkspace(t, e)
	base := "/api/workspaces/" + id

	rec := do(t, e, http.MethodPost, base+"/csv", "text/csv", weatherCSV)
	require.Equal(t, http.StatusOK, rec.Code)
	up := decode[map[string]any](t, rec)
	assert.Equal(t, 4.0, up["rows"])
	assert.Equal(t, []any{"day", "temp", "city"}, up["columns"])

	rec = doJSON(t, e, http.MethodPut, base+"/axis", `{"yAxis": ["temp"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[models.WorkspaceState](t, rec)
	assert.Equal(t, "day", state.Axis.XAxis, "the first column becomes the x axis on upload")

	rec = doJSON(t, e, http.MethodPut, base+"/group", `{"groupAxis": "city"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, base+"/plot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[models.PlotConfig](t, rec)
	assert.True(t, cfg.HasData)
	require.Len(t, cfg.Traces, 2)
	assert.Equal(t, "temp (city=Oslo)", cfg.TraceKeys[0].FullTraceName)
	assert.Contains(t, cfg.Receipt, "Plotly.newPlot('myDiv', data, layout);")
}

func TestFiltersAndFunnel(t *testing.T) {
	e := newTestServer(t)
	id := loadedWorkspace(t, e)
	base := "/api/workspaces/" + id

	rec := doJSON(t, e, http.MethodPost, base+"/filters", `{"column": "temp", "type": "number", "config": {"min": 5}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fid := decode[map[string]string](t, rec)["id"]

	rec = doJSON(t, e, http.MethodGet, base+"/funnel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	steps := decode[[]models.FunnelStep](t, rec)
	require.Len(t, steps, 1)
	assert.Equal(t, 4, steps[0].InputCount)
	assert.Equal(t, 2, steps[0].OutputCount)

	rec = doJSON(t, e, http.MethodGet, base+"/rows?limit=1&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[map[string]any](t, rec)
	assert.Equal(t, 2.0, page["total"])
	assert.Len(t, page["data"], 1)

	rec = doJSON(t, e, http.MethodDelete, base+"/filters/"+fid, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, e, http.MethodDelete, base+"/filters/"+fid, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodPost, base+"/filters", `{"column": "temp", "type": "fuzzy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatuses(t *testing.T) {
	e := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodGet, "/api/workspaces/nope/plot", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodGet, "/api/workspaces/nope/state", "").Code)

	id := loadedWorkspace(t, e)
	base := "/api/workspaces/" + id
	assert.Equal(t, http.StatusBadRequest, doJSON(t, e, http.MethodPut, base+"/layout", `{"plotTitle": `).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, e, http.MethodPut, base+"/axis", `{"xAxis": "missing"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, e, http.MethodPut, base+"/color/opacity", `{"source": "manual", "value": 1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, e, http.MethodPost, base+"/csv", "text/csv", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodGet, base+"/columns/missing/summary", "").Code)
}

func TestProjectRoundTripAndInvalidLoad(t *testing.T) {
	e := newTestServer(t)
	id := loadedWorkspace(t, e)
	base := "/api/workspaces/" + id
	require.Equal(t, http.StatusOK, doJSON(t, e, http.MethodPut, base+"/layout", `{"plotTitle": "Saved"}`).Code)

	rec := doJSON(t, e, http.MethodGet, base+"/project", "")
	require.Equal(t, http.StatusOK, rec.Code)
	saved := rec.Body.String()
	assert.Contains(t, saved, `"groupSideMenuData"`)

	other := createWorkspace(t, e)
	rec = doJSON(t, e, http.MethodPost, "/api/workspaces/"+other+"/project", saved)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Saved", decode[models.WorkspaceState](t, rec).Layout.PlotTitle)

	rec = doJSON(t, e, http.MethodPost, base+"/project", `{"columns": 3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, e, http.MethodGet, base+"/state", "")
	state := decode[models.WorkspaceState](t, rec)
	assert.Equal(t, "Saved", state.Layout.PlotTitle)
	assert.Len(t, state.Data, 4)
}

func TestRejectedChangesLeaveStateAlone(t *testing.T) {
	e := newTestServer(t)
	id := loadedWorkspace(t, e)
	base := "/api/workspaces/" + id

	rec := doJSON(t, e, http.MethodPut, base+"/axis", `{"yAxis": ["temp"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	before := decode[models.WorkspaceState](t, rec)

	rejected := []struct{ method, path, body string }{
		{http.MethodPut, "/axis", `{"xAxis": "temp", "yAxis": ["nope"]}`},
		{http.MethodPut, "/group", `{"groupAxis": "city", "settings": {"mode": "bogus"}}`},
		{http.MethodPost, "/filters", `{"column": "rain", "type": "number"}`},
	}
	for _, r := range rejected {
		rec := doJSON(t, e, r.method, base+r.path, r.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", r.method, r.path)
	}

	rec = doJSON(t, e, http.MethodGet, base+"/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	after := decode[models.WorkspaceState](t, rec)
	assert.Equal(t, "day", after.Axis.XAxis)
	assert.Equal(t, []string{"temp"}, after.Axis.YAxis)
	assert.Nil(t, after.Group.GroupAxis)
	assert.Empty(t, after.Filters)
	assert.Equal(t, before, after)
}

func TestSettingsEndpoints(t *testing.T) {
	e := newTestServer(t)
	id := loadedWorkspace(t, e)
	base := "/api/workspaces/" + id

	rec := doJSON(t, e, http.MethodPut, base+"/traces/temp", `{"displayName": "Temperature", "color": "#ff0000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Temperature", decode[models.WorkspaceState](t, rec).Trace.TraceCustomizations["temp"].DisplayName)

	rec = doJSON(t, e, http.MethodPut, base+"/traces/temp%20%28city%3DOslo%29", `{"mode": "lines"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode[models.WorkspaceState](t, rec).Trace.TraceCustomizations, "temp (city=Oslo)")

	rec = doJSON(t, e, http.MethodPut, base+"/palette", `{"name": "Neon", "index": 0, "color": "#000000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	colors := decode[models.WorkspaceState](t, rec).Trace.CurrentPaletteColors
	assert.Equal(t, "#000000", colors[0])
	assert.Equal(t, engine.Palette("Neon")[1], colors[1])

	rec = doJSON(t, e, http.MethodPut, base+"/density", `{"inkRatio": 0.5, "chartWidth": 640, "chartHeight": 480, "absorptionMode": "glow"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[models.WorkspaceState](t, rec).Density
	assert.Equal(t, 0.5, d.InkRatio)
	assert.Equal(t, 8.0, d.PointRadius, "omitted fields keep their defaults")

	rec = doJSON(t, e, http.MethodPut, base+"/color/hue", `{"source": "column", "value": "temp"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.SourceColumn, decode[models.WorkspaceState](t, rec).Color.Hue.Source)
}

func TestColumnSummaries(t *testing.T) {
	e := newTestServer(t)
	id := loadedWorkspace(t, e)

	rec := doJSON(t, e, http.MethodGet, "/api/workspaces/"+id+"/columns/temp/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[models.ColumnSummary](t, rec)
	assert.Equal(t, models.ColumnNumber, s.Type)
	assert.Equal(t, 3.5, s.Min)
	assert.Equal(t, 9.0, s.Max)

	rec = doJSON(t, e, http.MethodGet, "/api/workspaces/"+id+"/columns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ColumnSummary](t, rec), 3)
}

func TestExports(t *testing.T) {
	e := newTestServer(t)
	id := loadedWorkspace(t, e)
	base := "/api/workspaces/" + id
	require.Equal(t, http.StatusOK, doJSON(t, e, http.MethodPut, base+"/axis", `{"yAxis": ["temp"]}`).Code)

	rec := doJSON(t, e, http.MethodGet, base+"/export.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "Plotly.newPlot")

	rec = doJSON(t, e, http.MethodGet, base+"/export.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestPreviewBins(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/bins/preview", `{"values": [1, 2, 2, 9, "x"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[engine.BinResolution](t, rec)
	assert.Equal(t, 1.0, res.Config.Start)
	assert.Len(t, res.Edges, 11)

	rec = doJSON(t, e, http.MethodPost, "/api/bins/preview",
		`{"values": [1, 4, 7, 11], "bins": {"start": 0, "end": 12, "size": 5, "underflow": true, "overflow": true}, "binMode": "count", "count": 4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[engine.BinResolution](t, rec)
	assert.Equal(t, []float64{0, 3, 6, 9, 12}, res.Edges)
	assert.Equal(t, 3.0, res.Config.Size)
	assert.Zero(t, res.Config.WidthSize, "a count change drops the remembered width")
}

func TestWorkspaceDelete(t *testing.T) {
	e := newTestServer(t)
	id := createWorkspace(t, e)

	rec := doJSON(t, e, http.MethodGet, "/api/workspaces", "")
	assert.Equal(t, []string{id}, decode[[]string](t, rec))

	assert.Equal(t, http.StatusNoContent, doJSON(t, e, http.MethodDelete, "/api/workspaces/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodDelete, "/api/workspaces/"+id, "").Code)
}

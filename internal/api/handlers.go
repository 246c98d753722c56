package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"webplots/internal/engine"
	"webplots/internal/export"
	"webplots/internal/models"
	"webplots/internal/project"
	"webplots/internal/workspace"
)

type Handler struct {
	workspaces *workspace.Registry
	maxTraces  int
	log        *zap.Logger

	mu        sync.Mutex
	pipelines map[string]*engine.Pipeline
}

func NewHandler(workspaces *workspace.Registry, maxTraces int, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		workspaces: workspaces,
		maxTraces:  maxTraces,
		log:        log,
		pipelines:  make(map[string]*engine.Pipeline),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/palettes", h.GetPalettes)
	api.POST("/bins/preview", h.PreviewBins)

	api.POST("/workspaces", h.CreateWorkspace)
	api.GET("/workspaces", h.ListWorkspaces)

	ws := api.Group("/workspaces/:id")
	ws.DELETE("", h.DeleteWorkspace)
	ws.GET("/state", h.GetState)
	ws.PUT("/state", h.PutState)
	ws.POST("/csv", h.UploadCSV)
	ws.GET("/rows", h.GetRows)

	ws.PUT("/axis", h.PutAxis)
	ws.PUT("/group", h.PutGroup)
	ws.PUT("/layout", h.PutLayout)
	ws.PUT("/density", h.PutDensity)
	ws.PUT("/palette", h.PutPalette)
	ws.PUT("/color/:channel", h.PutAesthetic)
	ws.PUT("/traces/:key", h.PutTraceCustomization)

	ws.POST("/filters", h.AddFilter)
	ws.PUT("/filters/:fid", h.UpdateFilter)
	ws.DELETE("/filters/:fid", h.RemoveFilter)
	ws.POST("/filters/reorder", h.ReorderFilters)
	ws.DELETE("/filters", h.ClearFilters)

	ws.GET("/plot", h.GetPlot)
	ws.GET("/funnel", h.GetFunnel)
	ws.GET("/columns", h.GetColumnSummaries)
	ws.GET("/columns/:column/summary", h.GetColumnSummary)

	ws.GET("/project", h.GetProject)
	ws.POST("/project", h.LoadProject)
	ws.GET("/export.html", h.ExportHTML)
	ws.GET("/export.svg", h.ExportSVG)
}

// httpError maps domain errors to status codes.
func (h *Handler) httpError(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, workspace.ErrNotFound), errors.Is(err, workspace.ErrFilterNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.Is(err, project.ErrInvalidProject):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	case errors.Is(err, workspace.ErrInvalidFilter),
		errors.Is(err, workspace.ErrUnknownColumn),
		errors.Is(err, workspace.ErrInvalidColor),
		errors.Is(err, workspace.ErrInvalidSetting),
		errors.Is(err, engine.ErrEmptyCSV):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

// update runs fn under the workspace write lock and answers with the new
// state.
func (h *Handler) update(c echo.Context, fn func(*models.WorkspaceState) error) error {
	id := c.Param("id")
	var out *models.WorkspaceState
	err := h.workspaces.Update(id, func(s *models.WorkspaceState) error {
		if err := fn(s); err != nil {
			return err
		}
		var err error
		out, err = workspace.Clone(s)
		return err
	})
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

// pathUnescape decodes a path parameter that echo left escaped because the
// request carried a raw path.
func pathUnescape(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path parameter").SetInternal(err)
	}
	return out, nil
}

func (h *Handler) pipeline(id string) *engine.Pipeline {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pipelines[id]
	if !ok {
		p = engine.NewPipeline(h.log.With(zap.String("workspace", id)), h.maxTraces)
		h.pipelines[id] = p
	}
	return p
}

func (h *Handler) plot(id string) (*models.PlotConfig, *models.DensityConfig, error) {
	var cfg *models.PlotConfig
	var density models.DensityConfig
	err := h.workspaces.View(id, func(s *models.WorkspaceState) error {
		cfg = h.pipeline(id).Run(s)
		density = s.Density
		return nil
	})
	return cfg, &density, err
}

// --- WORKSPACES ---

func (h *Handler) CreateWorkspace(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]string{"id": h.workspaces.Create()})
}

func (h *Handler) ListWorkspaces(c echo.Context) error {
	return c.JSON(http.StatusOK, h.workspaces.IDs())
}

func (h *Handler) DeleteWorkspace(c echo.Context) error {
	id := c.Param("id")
	if err := h.workspaces.Delete(id); err != nil {
		return h.httpError(err)
	}
	h.mu.Lock()
	delete(h.pipelines, id)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetState(c echo.Context) error {
	s, err := h.workspaces.Snapshot(c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) PutState(c echo.Context) error {
	s := models.NewWorkspaceState()
	if err := c.Bind(s); err != nil {
		return err
	}
	if err := h.workspaces.Replace(c.Param("id"), s); err != nil {
		return h.httpError(err)
	}
	return h.GetState(c)
}

func (h *Handler) UploadCSV(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body").SetInternal(err)
	}
	ds, err := engine.LoadCSV(body, h.log)
	if err != nil {
		return h.httpError(err)
	}
	err = h.workspaces.Update(c.Param("id"), func(s *models.WorkspaceState) error {
		workspace.LoadDataset(s, ds)
		if s.Axis.XAxis == "" && len(ds.Columns) > 0 {
			s.Axis.XAxis = ds.Columns[0]
		}
		return nil
	})
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"rows": ds.Len(), "columns": ds.Columns})
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetRows pages through the rows that pass the active filters.
func (h *Handler) GetRows(c echo.Context) error {
	var rows []models.Row
	err := h.workspaces.View(c.Param("id"), func(s *models.WorkspaceState) error {
		rows = engine.ApplyFilters(s.Data, s.Filters)
		return nil
	})
	if err != nil {
		return h.httpError(err)
	}

	total := len(rows)
	limit, offset := getPaginationParams(c, 100)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   rows[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// --- SETTINGS ---

type axisRequest struct {
	XAxis    *string          `json:"xAxis"`
	YAxis    []string         `json:"yAxis"`
	PlotType *models.PlotType `json:"plotType"`
}

func (h *Handler) PutAxis(c echo.Context) error {
	var req axisRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error {
		if req.XAxis != nil {
			if err := workspace.SetXAxis(s, *req.XAxis); err != nil {
				return err
			}
		}
		if req.YAxis != nil {
			for _, col := range append([]string(nil), s.Axis.YAxis...) {
				workspace.RemoveYColumn(s, col)
			}
			for _, col := range req.YAxis {
				if err := workspace.AddYColumn(s, col); err != nil {
					return err
				}
			}
		}
		if req.PlotType != nil {
			return workspace.SetPlotType(s, *req.PlotType)
		}
		return nil
	})
}

type groupRequest struct {
	GroupAxis string                `json:"groupAxis"`
	Settings  *models.GroupSettings `json:"settings"`
}

func (h *Handler) PutGroup(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error {
		if err := workspace.SetGroupAxis(s, req.GroupAxis); err != nil {
			return err
		}
		if req.Settings != nil && req.GroupAxis != "" {
			return workspace.SetGroupSettings(s, req.GroupAxis, *req.Settings)
		}
		return nil
	})
}

func (h *Handler) PutLayout(c echo.Context) error {
	var l models.PlotLayout
	if err := c.Bind(&l); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error { return workspace.SetLayout(s, l) })
}

func (h *Handler) PutDensity(c echo.Context) error {
	d := models.DefaultDensityConfig()
	if err := c.Bind(&d); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error { return workspace.SetDensity(s, d) })
}

type paletteRequest struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
	Index  *int     `json:"index"`
	Color  string   `json:"color"`
}

// PutPalette switches palette by name, reorders it with colors, or edits a
// single entry with index and color.
func (h *Handler) PutPalette(c echo.Context) error {
	var req paletteRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error {
		if req.Name != "" {
			workspace.SetColorPalette(s, req.Name)
		}
		if req.Colors != nil {
			if err := workspace.SetPaletteColorOrder(s, req.Colors); err != nil {
				return err
			}
		}
		if req.Index != nil {
			return workspace.UpdatePaletteColor(s, *req.Index, req.Color)
		}
		return nil
	})
}

func (h *Handler) PutAesthetic(c echo.Context) error {
	var m models.AestheticMapping
	if err := c.Bind(&m); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error {
		return workspace.SetAesthetic(s, c.Param("channel"), m)
	})
}

func (h *Handler) PutTraceCustomization(c echo.Context) error {
	key, err := pathUnescape(c.Param("key"))
	if err != nil {
		return err
	}
	var tc models.TraceCustomization
	if err := c.Bind(&tc); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error {
		return workspace.SetTraceCustomization(s, key, tc)
	})
}

// --- FILTERS ---

type filterRequest struct {
	Column string               `json:"column"`
	Type   models.FilterType    `json:"type"`
	Config *models.FilterConfig `json:"config"`
}

func (h *Handler) AddFilter(c echo.Context) error {
	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	var id string
	err := h.workspaces.Update(c.Param("id"), func(s *models.WorkspaceState) error {
		var err error
		id, err = workspace.AddFilter(s, req.Column, req.Type, req.Config)
		return err
	})
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UpdateFilter(c echo.Context) error {
	var cfg models.FilterConfig
	if err := c.Bind(&cfg); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error {
		return workspace.UpdateFilter(s, c.Param("fid"), cfg)
	})
}

func (h *Handler) RemoveFilter(c echo.Context) error {
	return h.update(c, func(s *models.WorkspaceState) error {
		return workspace.RemoveFilter(s, c.Param("fid"))
	})
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) ReorderFilters(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return h.update(c, func(s *models.WorkspaceState) error {
		return workspace.ReorderFilters(s, req.From, req.To)
	})
}

func (h *Handler) ClearFilters(c echo.Context) error {
	return h.update(c, func(s *models.WorkspaceState) error {
		workspace.ClearFilters(s)
		return nil
	})
}

// --- OUTPUTS ---

func (h *Handler) GetPlot(c echo.Context) error {
	cfg, _, err := h.plot(c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) GetFunnel(c echo.Context) error {
	var steps []models.FunnelStep
	err := h.workspaces.View(c.Param("id"), func(s *models.WorkspaceState) error {
		steps = engine.Funnel(s.Data, s.Filters)
		return nil
	})
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, steps)
}

func (h *Handler) GetColumnSummaries(c echo.Context) error {
	var out []models.ColumnSummary
	err := h.workspaces.View(c.Param("id"), func(s *models.WorkspaceState) error {
		out = (&engine.Dataset{Columns: s.Columns, Rows: s.Data}).Summaries()
		return nil
	})
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetColumnSummary(c echo.Context) error {
	column, err := pathUnescape(c.Param("column"))
	if err != nil {
		return err
	}
	var out models.ColumnSummary
	err = h.workspaces.View(c.Param("id"), func(s *models.WorkspaceState) error {
		ds := &engine.Dataset{Columns: s.Columns, Rows: s.Data}
		if !ds.HasColumn(column) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown column "+column)
		}
		out = engine.SummarizeColumn(column, ds.Column(column))
		return nil
	})
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetPalettes(c echo.Context) error {
	out := make(map[string][]string)
	for _, name := range engine.PaletteNames() {
		out[name] = engine.Palette(name)
	}
	return c.JSON(http.StatusOK, out)
}

type binPreviewRequest struct {
	Values []models.Value        `json:"values"`
	Bins   *models.HistogramBins `json:"bins"`
	Mode   models.BinMode        `json:"binMode"`
	Range  *[2]float64           `json:"range"`
	Count  *int                  `json:"count"`
	Size   *float64              `json:"size"`
}

// PreviewBins resolves bins for the histogram editor, after applying any
// requested mode, range, count or size change.
func (h *Handler) PreviewBins(c echo.Context) error {
	var req binPreviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	var bins models.HistogramBins
	if req.Bins != nil {
		bins = *req.Bins
	} else {
		bins = engine.ResolveBins(req.Values, nil).Config
	}
	if req.Mode != "" {
		bins = engine.SetBinMode(bins, req.Mode)
	}
	if req.Range != nil {
		bins = engine.SetBinRange(bins, req.Range[0], req.Range[1])
	}
	if req.Count != nil {
		bins = engine.SetBinCount(bins, *req.Count)
	}
	if req.Size != nil {
		bins = engine.SetBinSize(bins, *req.Size)
	}
	return c.JSON(http.StatusOK, engine.ResolveBins(req.Values, &bins))
}

// --- PROJECT & EXPORT ---

func (h *Handler) GetProject(c echo.Context) error {
	var b []byte
	err := h.workspaces.View(c.Param("id"), func(s *models.WorkspaceState) error {
		var err error
		b, err = project.Save(s)
		return err
	})
	if err != nil {
		return h.httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="webplots_project.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, b)
}

// LoadProject replaces the workspace with an uploaded project file. An
// invalid file leaves the workspace as it was.
func (h *Handler) LoadProject(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body").SetInternal(err)
	}
	return h.update(c, func(s *models.WorkspaceState) error { return project.Apply(s, body) })
}

func (h *Handler) ExportHTML(c echo.Context) error {
	cfg, _, err := h.plot(c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	var buf bytes.Buffer
	if err := export.WriteHTML(&buf, cfg); err != nil {
		return h.httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="plot.html"`)
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *Handler) ExportSVG(c echo.Context) error {
	cfg, density, err := h.plot(c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	var buf bytes.Buffer
	if err := export.WriteSVG(&buf, cfg, density.ChartWidth, density.ChartHeight); err != nil {
		return h.httpError(err)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

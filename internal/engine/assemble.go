package engine

import (
	"math"
	"strings"

	"webplots/internal/models"
)

// NoDataReceipt is the receipt of a chart with nothing to draw.
const NoDataReceipt = "// No data available to generate plot."

const (
	defaultMarkerSize = 8
	defaultRadiusRate = 3
	glowOpacity       = 0.3
	overlayOpacity    = 0.7
	layoutMargin      = 50
)

// Inputs is the configuration tuple a chart is derived from.
type Inputs struct {
	Axis    models.AxisConfig    `json:"axis"`
	Group   models.GroupConfig   `json:"group"`
	Layout  models.PlotLayout    `json:"layout"`
	Trace   models.TraceConfig   `json:"trace"`
	Color   models.ColorConfig   `json:"color"`
	Density models.DensityConfig `json:"density"`
	// MaxTraces truncates the trace list. Zero means unlimited.
	MaxTraces int `json:"maxTraces"`
}

// InputsFromState picks the chart configuration out of a workspace.
func InputsFromState(s *models.WorkspaceState, maxTraces int) Inputs {
	return Inputs{
		Axis:      s.Axis,
		Group:     s.Group,
		Layout:    s.Layout,
		Trace:     s.Trace,
		Color:     s.Color,
		Density:   s.Density,
		MaxTraces: maxTraces,
	}
}

// traceSpec is one Y column and group combination with its resolved style.
type traceSpec struct {
	key  models.TraceKey
	rows []int
	// groupIndex feeds group-sourced aesthetics: the group's enumeration
	// index, or the trace's own index when nothing is grouped.
	groupIndex int

	name  string
	color string
	mode  string
	size  float64
	// custom is the column customization overlaid with the exact one.
	custom models.TraceCustomization
}

func (in Inputs) histogram() bool { return in.Axis.PlotType == models.PlotHistogram }

func (in Inputs) hasData(rows []models.Row) bool {
	if len(rows) == 0 || len(in.Axis.YAxis) == 0 {
		return false
	}
	return in.histogram() || in.Axis.XAxis != ""
}

// Assemble turns filtered rows into traces, layout, receipt and stats. It
// never fails: missing selections produce an empty chart with HasData false.
func Assemble(rows []models.Row, in Inputs) *models.PlotConfig {
	if !in.hasData(rows) {
		return &models.PlotConfig{
			Traces:  []models.Trace{},
			Stats:   map[string]models.TraceStats{},
			Receipt: NoDataReceipt,
		}
	}

	groupCol, settings, _ := in.Group.Active()
	grouping := EnumerateGroups(rows, groupCol, settings)
	specs := planTraces(grouping, in)
	mapper := NewColorMapper(in.Color, rows)

	cfg := &models.PlotConfig{
		Traces:    make([]models.Trace, 0, len(specs)),
		HasData:   true,
		Stats:     make(map[string]models.TraceStats, len(specs)),
		TraceKeys: make([]models.TraceKey, 0, len(specs)),
	}
	groupCount := grouping.Len()
	if !grouping.Grouped() {
		groupCount = len(specs)
	}
	mains := make([]models.Trace, len(specs))
	for i, spec := range specs {
		var traces []models.Trace
		var st models.TraceStats
		if in.histogram() {
			traces, st = histogramTrace(rows, spec, in, mapper, groupCount, len(specs))
		} else {
			traces, st = scatterTraces(rows, spec, in, mapper, groupCount)
		}
		mains[i] = traces[len(traces)-1]
		cfg.Traces = append(cfg.Traces, traces...)
		cfg.Stats[spec.key.FullTraceName] = st
		cfg.TraceKeys = append(cfg.TraceKeys, spec.key)
	}
	cfg.Layout = buildLayout(in, len(specs))
	cfg.Receipt = buildReceipt(in, specs, mains, cfg.Layout)
	return cfg
}

// planTraces lists one trace per Y column and group, Y columns outermost.
func planTraces(g *Grouping, in Inputs) []traceSpec {
	var specs []traceSpec
	for _, yCol := range in.Axis.YAxis {
		for gi, label := range g.Labels {
			idx := g.Rows(label)
			if len(idx) == 0 {
				continue
			}
			key := models.TraceKey{FullTraceName: yCol, YCol: yCol}
			if g.Grouped() {
				key.GroupName = g.DisplayName(label)
				key.FullTraceName = yCol + " (" + key.GroupName + ")"
			}
			if !g.Grouped() {
				gi = len(specs)
			}
			specs = append(specs, traceSpec{key: key, rows: idx, groupIndex: gi})
		}
	}
	if in.MaxTraces > 0 && len(specs) > in.MaxTraces {
		specs = specs[:in.MaxTraces]
	}
	palette := ActivePalette(in.Trace)
	for i := range specs {
		specs[i].resolveStyle(in.Trace, palette, i)
	}
	return specs
}

func (s *traceSpec) resolveStyle(tc models.TraceConfig, palette []string, index int) {
	col := tc.TraceCustomizations[s.key.YCol]
	exact := tc.TraceCustomizations[s.key.FullTraceName]
	s.custom = col.Merge(exact)

	s.name = s.key.FullTraceName
	switch {
	case exact.DisplayName != "":
		s.name = exact.DisplayName
	case col.DisplayName != "" && s.key.GroupName != "":
		s.name = col.DisplayName + " (" + s.key.GroupName + ")"
	}

	s.color = exact.Color
	if s.color == "" && len(palette) > 0 {
		s.color = palette[index%len(palette)]
	}
	s.mode = traceMode(s.custom)
	s.size = s.custom.Size
	if s.size <= 0 {
		s.size = defaultMarkerSize
	}
}

// traceMode defaults to markers. A symbol on a lines trace needs markers to
// be visible.
func traceMode(c models.TraceCustomization) string {
	mode := c.Mode
	if mode == "" {
		mode = "markers"
	}
	if c.Symbol != "" && mode == "lines" {
		mode = "lines+markers"
	}
	return mode
}

func densityRadius(c models.TraceCustomization, d models.DensityConfig) float64 {
	switch {
	case c.Size > 0:
		return c.Size
	case d.PointRadius > 0:
		return d.PointRadius
	}
	return defaultMarkerSize
}

func numberOrNaN(v models.Value) float64 {
	if f, ok := PlotNumber(v); ok {
		return f
	}
	return math.NaN()
}

// scatterTraces builds the trace of one spec, preceded by its glow trace
// when glow absorption is on.
func scatterTraces(rows []models.Row, s traceSpec, in Inputs, mapper *ColorMapper, groupCount int) ([]models.Trace, models.TraceStats) {
	xCol, yCol := in.Axis.XAxis, s.key.YCol
	xs := make([]float64, len(s.rows))
	ys := make([]float64, len(s.rows))
	for i, r := range s.rows {
		xs[i] = numberOrNaN(rows[r][xCol])
		ys[i] = numberOrNaN(rows[r][yCol])
	}

	proj := NewProjector(xs, ys, in.Layout.XRange, in.Layout.YRange,
		in.Density.ChartWidth, in.Density.ChartHeight, in.Layout.EnableLogAxis)
	points := make([]PixelPoint, len(xs))
	for i := range xs {
		points[i] = proj.Project(xs[i], ys[i])
	}
	dist, _ := MinPixelDistance(in.Density, densityRadius(s.custom, in.Density))
	dec := Decimate(points, dist)

	t := models.Trace{
		Type:        "scatter",
		Name:        s.name,
		LegendGroup: s.name,
		Color:       s.color,
		Mode:        s.mode,
		X:           make([]models.Value, len(dec.Kept)),
		Y:           make([]models.Value, len(dec.Kept)),
		Absorbed:    dec.Absorbed,
		Marker:      models.Marker{Color: s.custom.Color, Symbol: s.custom.Symbol, Size: s.size},
	}
	kept := make([]float64, 0, len(dec.Kept))
	var colors, symbols []string
	for i, k := range dec.Kept {
		row := rows[s.rows[k]]
		t.X[i], t.Y[i] = row[xCol], row[yCol]
		if !math.IsNaN(ys[k]) {
			kept = append(kept, ys[k])
		}
		if s.custom.Color == "" || s.custom.Symbol == "" {
			c, sh := mapper.Point(row, s.groupIndex, groupCount)
			colors = append(colors, c)
			symbols = append(symbols, sh)
		}
	}
	if s.custom.Color == "" {
		t.Marker.Color, t.Marker.Colors = collapse(colors)
	}
	if s.custom.Symbol == "" {
		t.Marker.Symbol, t.Marker.Symbols = collapse(symbols)
	}
	if t.Color == "" {
		t.Color = t.Marker.Color
		if t.Color == "" && len(t.Marker.Colors) > 0 {
			t.Color = t.Marker.Colors[0]
		}
	}

	st := traceStats(dec.Dropped, kept, dec.Absorbed)
	maxAbsorbed := st.AbsorbedMax
	if in.Density.AbsorptionMode == models.AbsorbNone || in.Density.AbsorptionMode == "" || maxAbsorbed == 0 {
		return []models.Trace{t}, st
	}

	ratio := in.Density.MaxRadiusRatio
	if ratio <= 0 {
		ratio = defaultRadiusRate
	}
	sizes := make([]float64, len(dec.Absorbed))
	for i, n := range dec.Absorbed {
		sizes[i] = s.size + s.size*(ratio-1)*float64(n)/float64(maxAbsorbed)
	}
	switch in.Density.AbsorptionMode {
	case models.AbsorbSize:
		t.Marker.Sizes = sizes
	case models.AbsorbGlow:
		hidden := false
		glow := t
		glow.Name = t.Name + " (Glow)"
		glow.ShowLegend = &hidden
		glow.Opacity = glowOpacity
		glow.HoverSkip = true
		glow.Absorbed = nil
		glow.Marker.Sizes = sizes
		return []models.Trace{glow, t}, st
	}
	return []models.Trace{t}, st
}

// collapse returns a single value when every element is the same.
func collapse(vals []string) (string, []string) {
	if len(vals) == 0 {
		return "", nil
	}
	for _, v := range vals[1:] {
		if v != vals[0] {
			return "", vals
		}
	}
	return vals[0], nil
}

func histogramTrace(rows []models.Row, s traceSpec, in Inputs, mapper *ColorMapper, groupCount, traceCount int) ([]models.Trace, models.TraceStats) {
	yCol := s.key.YCol
	vals := make([]models.Value, len(s.rows))
	for i, r := range s.rows {
		vals[i] = rows[r][yCol]
	}
	res := ResolveBins(vals, s.custom.HistogramBins)

	t := models.Trace{
		Type:        "histogram",
		Name:        s.name,
		LegendGroup: s.name,
		Color:       s.color,
		X:           make([]models.Value, len(res.Values)),
		Opacity:     1,
		XBins: &models.XBins{
			Start: res.Config.Start,
			End:   res.Config.End,
			Size:  EffectiveSize(res.Config),
			Edges: res.Edges,
		},
		BinCounts: res.Counts,
		Marker:    models.Marker{Color: s.custom.Color, Size: s.size},
	}
	for i, v := range res.Values {
		t.X[i] = models.Number(v)
	}
	if traceCount > 1 {
		t.Opacity = overlayOpacity
	}
	if t.Color == "" {
		t.Color, _ = mapper.Point(rows[s.rows[0]], s.groupIndex, groupCount)
	}
	if t.Marker.Color == "" {
		t.Marker.Color = t.Color
	}
	return []models.Trace{t}, traceStats(0, numericValues(rows, s.rows, yCol), nil)
}

func buildLayout(in Inputs, traceCount int) models.Layout {
	l := in.Layout
	hist := in.histogram()

	title := l.PlotTitle
	if title == "" {
		ys := strings.Join(in.Axis.YAxis, ", ")
		if hist {
			title = "Histogram: " + ys
		} else {
			title = "Plot: " + ys + " vs " + in.Axis.XAxis
		}
	}
	xTitle := l.XAxisTitle
	if xTitle == "" {
		xTitle = in.Axis.XAxis
		if hist {
			xTitle = "Value"
		}
	}
	yTitle := l.YAxisTitle
	if yTitle == "" {
		yTitle = "Values"
		if len(in.Axis.YAxis) == 1 {
			yTitle = in.Axis.YAxis[0]
		}
	}
	axisType := "linear"
	if l.EnableLogAxis {
		axisType = "log"
	}

	layout := models.Layout{
		Title:      title,
		XAxis:      buildAxis(xTitle, axisType, l.XRange, hist),
		YAxis:      buildAxis(yTitle, axisType, l.YRange, hist),
		ShowLegend: traceCount > 1,
		Margin:     models.Margin{L: layoutMargin, R: layoutMargin, B: layoutMargin, T: layoutMargin},
	}
	if hist {
		layout.Barmode = l.HistogramBarmode
		if layout.Barmode == "" {
			layout.Barmode = "overlay"
		}
	}
	return layout
}

// buildAxis applies a manual range verbatim. Histograms always autorange.
func buildAxis(title, axisType string, manual *[2]float64, hist bool) models.Axis {
	a := models.Axis{Title: title, Type: axisType, Autorange: true}
	if manual != nil && !hist {
		r := *manual
		a.Range = &r
		a.Autorange = false
	}
	return a
}

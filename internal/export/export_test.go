package export

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg/draw"

	"webplots/internal/engine"
	"webplots/internal/models"
)

func scatterConfig() *models.PlotConfig {
	s := models.NewWorkspaceState()
	s.Columns = []string{"x", "y", "g"}
	for i := 1; i <= 6; i++ {
		g := "a"
		if i%2 == 0 {
			g = "b"
		}
		s.Data = append(s.Data, models.Row{"x": models.Number(float64(i)), "y": models.Number(float64(i * i)), "g": models.Text(g)})
	}
	s.Axis.XAxis = "x"
	s.Axis.YAxis = []string{"y"}
	g := "g"
	s.Group.GroupAxis = &g
	s.Layout.PlotTitle = "<b>Squares</b>"
	return engine.NewPipeline(nil, 0).Run(s)
}

func histogramConfig() *models.PlotConfig {
	s := models.NewWorkspaceState()
	s.Columns = []string{"v"}
	for _, v := range []float64{1, 2, 2, 3, 3, 3, 9} {
		s.Data = append(s.Data, models.Row{"v": models.Number(v)})
	}
	s.Axis.YAxis = []string{"v"}
	s.Axis.PlotType = models.PlotHistogram
	return engine.NewPipeline(nil, 0).Run(s)
}

func TestPlotlyConversion(t *testing.T) {
	data, layout := Plotly(scatterConfig())
	require.Len(t, data, 2)
	assert.Equal(t, "scatter", data[0]["type"])
	assert.Equal(t, "markers", data[0]["mode"])
	assert.Contains(t, data[0], "marker")
	assert.Equal(t, true, layout["showlegend"])

	hist, _ := Plotly(histogramConfig())
	require.Len(t, hist, 1)
	assert.Equal(t, false, hist[0]["autobinx"])
	assert.NotContains(t, hist[0], "y")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, scatterConfig()))
	out := buf.String()

	assert.Contains(t, out, PlotlyCDN)
	assert.Contains(t, out, "Plotly.newPlot('myDiv', data, layout);")
	assert.Contains(t, out, "<title>&lt;b&gt;Squares&lt;/b&gt;</title>")
	assert.NotContains(t, out, "<b>Squares</b>", "markup in titles is escaped everywhere")

	start := strings.Index(out, "var data = ") + len("var data = ")
	end := strings.Index(out[start:], ";\n")
	var traces []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out[start:start+end]), &traces))
	assert.Len(t, traces, 2)
}

func TestWriteHTMLNoData(t *testing.T) {
	var buf bytes.Buffer
	cfg := engine.NewPipeline(nil, 0).Run(models.NewWorkspaceState())
	require.NoError(t, WriteHTML(&buf, cfg))
	assert.Contains(t, buf.String(), "var data = [];")
	assert.Contains(t, buf.String(), "<title>Plot</title>")
}

func TestWriteSVG(t *testing.T) {
	for name, cfg := range map[string]*models.PlotConfig{
		"scatter":   scatterConfig(),
		"histogram": histogramConfig(),
		"empty":     engine.NewPipeline(nil, 0).Run(models.NewWorkspaceState()),
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSVG(&buf, cfg, 640, 480))
			assert.True(t, strings.Contains(buf.String(), "<svg"), "output is svg")
		})
	}
}

func TestWriteSVGLogAxes(t *testing.T) {
	cfg := &models.PlotConfig{
		HasData: true,
		Traces: []models.Trace{{
			Type:   "scatter",
			Mode:   "lines+markers",
			X:      []models.Value{models.Number(-1), models.Number(1), models.Number(10), models.Number(100)},
			Y:      []models.Value{models.Number(1), models.Number(0), models.Number(5), models.Number(50)},
			Color:  "#1f77b4",
			Marker: models.Marker{Color: "#1f77b4", Size: 8},
		}},
		Layout: models.Layout{
			XAxis: models.Axis{Type: "log", Autorange: true},
			YAxis: models.Axis{Type: "log", Autorange: true},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, cfg, 400, 300))

	cfg.Traces[0].X = []models.Value{models.Number(-1)}
	cfg.Traces[0].Y = []models.Value{models.Number(-1)}
	buf.Reset()
	require.NoError(t, WriteSVG(&buf, cfg, 400, 300), "nothing plottable falls back to linear axes")
}

func TestGlyphAndColor(t *testing.T) {
	assert.Equal(t, glyph("circle"), glyph(""))
	assert.Equal(t, draw.RingGlyph{}, glyph("hexagram"))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, rgba("#ff0000", 1))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0x80}, rgba("#f00", 0.5))
	assert.Equal(t, color.Black, rgba("nope", 1))
}

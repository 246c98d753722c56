package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webplots/internal/models"
)

func TestResolveAestheticSources(t *testing.T) {
	row := models.Row{"temp": models.Number(21.5)}

	manual := models.AestheticMapping{Source: models.SourceManual, Value: models.Number(42)}
	assert.Equal(t, models.Number(42), ResolveAesthetic(manual, AestheticContext{Row: row}))

	column := models.AestheticMapping{Source: models.SourceColumn, Value: models.Text("temp")}
	assert.Equal(t, models.Number(21.5), ResolveAesthetic(column, AestheticContext{Row: row}))

	missing := models.AestheticMapping{Source: models.SourceColumn, Value: models.Text("nope")}
	assert.True(t, ResolveAesthetic(missing, AestheticContext{Row: row}).IsNull())
}

func TestResolveAestheticGroupIsPureFunctionOfIndex(t *testing.T) {
	group := models.AestheticMapping{Source: models.SourceGroup}
	cases := []struct {
		ch    Channel
		index int
		want  models.Value
	}{
		{ChannelHue, 0, models.Number(0)},
		{ChannelHue, 1, models.Number(137.5)},
		{ChannelHue, 3, models.Number(52.5)},
		{ChannelSaturation, 2, models.Number(60)},
		{ChannelLightness, 2, models.Number(40)},
		{ChannelShape, 1, models.Text("square")},
		{ChannelShape, 9, models.Text("circle")},
	}
	for _, tc := range cases {
		ctx := AestheticContext{Channel: tc.ch, GroupIndex: tc.index, GroupCount: 10}
		assert.Equal(t, tc.want, ResolveAesthetic(group, ctx), "channel %d index %d", tc.ch, tc.index)
		assert.Equal(t, ResolveAesthetic(group, ctx), ResolveAesthetic(group, ctx))
	}
}

func TestColorMapperManual(t *testing.T) {
	cfg := models.ColorConfig{
		Hue:        models.AestheticMapping{Source: models.SourceManual, Value: models.Number(0)},
		Saturation: models.AestheticMapping{Source: models.SourceManual, Value: models.Number(100)},
		Lightness:  models.AestheticMapping{Source: models.SourceManual, Value: models.Number(50)},
		Shape:      models.AestheticMapping{Source: models.SourceManual, Value: models.Text("diamond")},
	}
	m := NewColorMapper(cfg, nil)
	color, shape := m.Point(models.Row{}, 0, 1)
	assert.Equal(t, "#ff0000", color)
	assert.Equal(t, "diamond", shape)
}

func TestColorMapperColumnScalesOverDataset(t *testing.T) {
	rows := []models.Row{
		{"l": models.Number(10), "kind": models.Text("b")},
		{"l": models.Number(20), "kind": models.Text("a")},
		{"l": models.Text("n/a"), "kind": models.Text("c")},
	}
	cfg := models.ColorConfig{
		Hue:        models.AestheticMapping{Source: models.SourceManual, Value: models.Number(0)},
		Saturation: models.AestheticMapping{Source: models.SourceManual, Value: models.Number(0)},
		Lightness:  models.AestheticMapping{Source: models.SourceColumn, Value: models.Text("l")},
		Shape:      models.AestheticMapping{Source: models.SourceColumn, Value: models.Text("kind")},
	}
	m := NewColorMapper(cfg, rows)

	c0, s0 := m.Point(rows[0], 0, 1)
	c1, s1 := m.Point(rows[1], 0, 1)
	c2, s2 := m.Point(rows[2], 0, 1)
	assert.Equal(t, "#000000", c0, "column minimum maps to lightness 0")
	assert.Equal(t, "#ffffff", c1, "column maximum maps to lightness 100")
	assert.Equal(t, "#000000", c2, "non-numeric cells map to the range minimum")

	// Shapes follow the sorted distinct values: a, b, c.
	assert.Equal(t, "square", s0)
	assert.Equal(t, "circle", s1)
	assert.Equal(t, "diamond", s2)
}

func TestPalettes(t *testing.T) {
	assert.Equal(t, "#1f77b4", PaletteColor("Default", 0))
	assert.Equal(t, "#1f77b4", PaletteColor("Default", 8))
	assert.Equal(t, PaletteColor("Default", 3), PaletteColor("NoSuchPalette", 3))
	assert.Equal(t, []string{"Default", "Neon", "Pastel", "Seaborn"}, PaletteNames())

	p := Palette("Neon")
	p[0] = "#000000"
	assert.Equal(t, "#FF00FF", PaletteColor("Neon", 0), "Palette returns a copy")

	custom := models.TraceConfig{ColorPalette: "Neon", CurrentPaletteColors: []string{"#123456"}}
	assert.Equal(t, []string{"#123456"}, ActivePalette(custom))
	require.Len(t, ActivePalette(models.TraceConfig{ColorPalette: "Pastel"}), 8)
}

func TestValidColor(t *testing.T) {
	assert.True(t, ValidColor("#abcdef"))
	assert.True(t, ValidColor("#abc"))
	assert.False(t, ValidColor("red"))
	assert.False(t, ValidColor("#12345"))
}

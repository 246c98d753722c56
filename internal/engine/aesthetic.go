package engine

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/lucasb-eyer/go-colorful"

	"webplots/internal/models"
)

// Channel is one visual property resolved by an aesthetic mapping.
type Channel int

const (
	ChannelHue Channel = iota
	ChannelSaturation
	ChannelLightness
	ChannelShape
)

// Shapes is the marker symbol cycle used by group and column shape mappings.
var Shapes = []string{"circle", "square", "diamond", "cross", "x", "triangle-up", "pentagon", "hexagram", "star"}

// channel defaults and the output range column mappings scale into.
var channelRange = [...]struct{ def, lo, hi float64 }{
	ChannelHue:        {0, 0, 360},
	ChannelSaturation: {80, 0, 100},
	ChannelLightness:  {50, 0, 100},
}

// AestheticContext carries what a mapping may depend on for one point.
type AestheticContext struct {
	Channel    Channel
	Row        models.Row
	GroupIndex int
	GroupCount int
}

// ResolveAesthetic returns the raw value of a mapping for one point: the
// constant for manual, the cell for column, and a value derived from the
// group's enumeration index for group.
func ResolveAesthetic(m models.AestheticMapping, ctx AestheticContext) models.Value {
	switch m.Source {
	case models.SourceColumn:
		if m.Value.IsNull() || ctx.Row == nil {
			return models.Null()
		}
		return ctx.Row[m.Value.String()]
	case models.SourceGroup:
		return groupAesthetic(ctx.Channel, ctx.GroupIndex)
	}
	return m.Value
}

// groupAesthetic spreads groups apart. Hue walks the golden angle so that
// neighbouring groups never land on similar colours.
func groupAesthetic(ch Channel, index int) models.Value {
	i := float64(index)
	switch ch {
	case ChannelHue:
		return models.Number(math.Mod(i*137.5, 360))
	case ChannelSaturation:
		return models.Number(50 + math.Mod(i*30, 50))
	case ChannelLightness:
		return models.Number(40 + math.Mod(i*20, 40))
	}
	return models.Text(Shapes[mod(index, len(Shapes))])
}

// columnScale maps a numeric column linearly onto a channel's output range.
type columnScale struct {
	min, span float64
	lo, hi    float64
}

func newColumnScale(rows []models.Row, column string, lo, hi float64) *columnScale {
	nums := make([]float64, 0, len(rows))
	for _, row := range rows {
		if f, ok := row[column].Float(); ok && !math.IsInf(f, 0) {
			nums = append(nums, f)
		}
	}
	min, max := 0.0, 1.0
	if len(nums) > 0 {
		min, max = stats.Bounds(nums)
	}
	span := max - min
	if span == 0 {
		span = 1
	}
	return &columnScale{min: min, span: span, lo: lo, hi: hi}
}

func (s *columnScale) apply(v models.Value) float64 {
	f, ok := v.Float()
	if !ok || math.IsInf(f, 0) {
		return s.lo
	}
	return s.lo + (f-s.min)/s.span*(s.hi-s.lo)
}

// ColorMapper turns a ColorConfig into per-point colours and symbols. Column
// scales are computed once over the whole dataset so every trace shares them.
type ColorMapper struct {
	cfg    models.ColorConfig
	scales [3]*columnScale
	shapes map[string]string
}

func NewColorMapper(cfg models.ColorConfig, rows []models.Row) *ColorMapper {
	m := &ColorMapper{cfg: cfg}
	for ch, mapping := range []models.AestheticMapping{cfg.Hue, cfg.Saturation, cfg.Lightness} {
		if mapping.Source == models.SourceColumn {
			r := channelRange[ch]
			m.scales[ch] = newColumnScale(rows, mapping.Value.String(), r.lo, r.hi)
		}
	}
	if cfg.Shape.Source == models.SourceColumn {
		m.shapes = shapeCategories(rows, cfg.Shape.Value.String())
	}
	return m
}

// shapeCategories assigns shapes to the sorted distinct values of a column.
func shapeCategories(rows []models.Row, column string) map[string]string {
	seen := make(map[string]bool)
	var uniq []string
	for _, row := range rows {
		s := row[column].String()
		if !seen[s] {
			seen[s] = true
			uniq = append(uniq, s)
		}
	}
	sort.Strings(uniq)
	out := make(map[string]string, len(uniq))
	for i, s := range uniq {
		out[s] = Shapes[i%len(Shapes)]
	}
	return out
}

// Point resolves the colour and marker symbol of one row.
func (m *ColorMapper) Point(row models.Row, groupIndex, groupCount int) (color, shape string) {
	ctx := AestheticContext{Row: row, GroupIndex: groupIndex, GroupCount: groupCount}
	var hsl [3]float64
	for ch, mapping := range []models.AestheticMapping{m.cfg.Hue, m.cfg.Saturation, m.cfg.Lightness} {
		ctx.Channel = Channel(ch)
		hsl[ch] = m.channel(mapping, ctx)
	}
	color = hslHex(hsl[0], hsl[1], hsl[2])

	ctx.Channel = ChannelShape
	shape = "circle"
	switch m.cfg.Shape.Source {
	case models.SourceColumn:
		if s, ok := m.shapes[ResolveAesthetic(m.cfg.Shape, ctx).String()]; ok {
			shape = s
		}
	default:
		if v := ResolveAesthetic(m.cfg.Shape, ctx); v.Kind == models.KindText && v.Str != "" {
			shape = v.Str
		}
	}
	return color, shape
}

func (m *ColorMapper) channel(mapping models.AestheticMapping, ctx AestheticContext) float64 {
	v := ResolveAesthetic(mapping, ctx)
	if mapping.Source == models.SourceColumn {
		if s := m.scales[ctx.Channel]; s != nil {
			return s.apply(v)
		}
	}
	if f, ok := v.Float(); ok && !math.IsInf(f, 0) {
		return f
	}
	return channelRange[ctx.Channel].def
}

// hslHex renders hue in degrees and saturation/lightness in percent. Channels
// are rounded first so the output only changes on whole-unit steps.
func hslHex(h, s, l float64) string {
	h = math.Mod(math.Round(h), 360)
	if h < 0 {
		h += 360
	}
	c := colorful.Hsl(h, math.Round(s)/100, math.Round(l)/100)
	return c.Clamped().Hex()
}

package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webplots/internal/models"
)

// diagonal projects n+1 evenly spaced points from (0,0) to (1,1).
func diagonal(n int, width, height float64) []PixelPoint {
	xs := make([]float64, n+1)
	for i := range xs {
		xs[i] = float64(i) / float64(n)
	}
	p := NewProjector(xs, xs, nil, nil, width, height, false)
	points := make([]PixelPoint, len(xs))
	for i, v := range xs {
		points[i] = p.Project(v, v)
	}
	return points
}

func randomPoints(seed int64, n int) []PixelPoint {
	r := rand.New(rand.NewSource(seed))
	points := make([]PixelPoint, n)
	for i := range points {
		points[i] = PixelPoint{PX: r.Float64() * 500, PY: r.Float64() * 300}
	}
	return points
}

func TestDecimateDiagonal(t *testing.T) {
	points := diagonal(100, 500, 700)
	d := Decimate(points, 146)

	assert.Equal(t, []int{0, 17, 34, 51, 68, 85}, d.Kept)
	assert.Equal(t, 95, d.Dropped)
	assert.Equal(t, []int{16, 16, 16, 16, 16, 15}, d.Absorbed)
}

func TestDecimateDeterministic(t *testing.T) {
	points := randomPoints(7, 400)
	assert.Equal(t, Decimate(points, 12), Decimate(points, 12))
}

func TestDecimateKeptPairsRespectThreshold(t *testing.T) {
	points := randomPoints(11, 500)
	const minDist = 15.0
	d := Decimate(points, minDist)

	require.Equal(t, len(points), len(d.Kept)+d.Dropped)
	for i := 0; i < len(d.Kept); i++ {
		for j := i + 1; j < len(d.Kept); j++ {
			a, b := points[d.Kept[i]], points[d.Kept[j]]
			dist := math.Hypot(a.PX-b.PX, a.PY-b.PY)
			if dist < minDist {
				t.Fatalf("kept points %d and %d are %.3f px apart", d.Kept[i], d.Kept[j], dist)
			}
		}
	}

	absorbed := 0
	for _, n := range d.Absorbed {
		absorbed += n
	}
	assert.Equal(t, d.Dropped, absorbed)
}

func TestDecimateMonotonic(t *testing.T) {
	points := diagonal(200, 800, 600)
	prev := len(points) + 1
	for _, dist := range []float64{0, 1, 4.5, 9.7, 21, 43, 79, 146, 500} {
		kept := len(Decimate(points, dist).Kept)
		assert.LessOrEqual(t, kept, prev, "distance %v", dist)
		prev = kept
	}
	assert.Len(t, Decimate(points, 0).Kept, len(points))
}

func TestDecimateCoincidentPointsWithZeroDistance(t *testing.T) {
	points := []PixelPoint{{1, 1}, {1, 1}, {1, 1}}
	d := Decimate(points, 0)
	assert.Equal(t, []int{0, 1, 2}, d.Kept)
	assert.Zero(t, d.Dropped)

	d = Decimate(points, -4)
	assert.Len(t, d.Kept, 3)
}

func TestDecimateNonFinitePassThrough(t *testing.T) {
	points := []PixelPoint{
		{0, 0},
		{math.NaN(), 5},
		{1, 1},
		{0, math.Inf(1)},
		{100, 100},
	}
	d := Decimate(points, 10)
	assert.Equal(t, []int{0, 1, 3, 4}, d.Kept)
	assert.Equal(t, []int{1, 0, 0, 0}, d.Absorbed)
	assert.Equal(t, 1, d.Dropped)
}

func TestProjector(t *testing.T) {
	p := NewProjector([]float64{0, 10}, []float64{0, 5}, nil, nil, 100, 50, false)
	assert.Equal(t, PixelPoint{PX: 0, PY: 50}, p.Project(0, 0))
	assert.Equal(t, PixelPoint{PX: 100, PY: 0}, p.Project(10, 5))

	manual := [2]float64{0, 20}
	p = NewProjector([]float64{0, 10}, []float64{0, 5}, &manual, nil, 100, 50, false)
	assert.Equal(t, 50.0, p.Project(10, 0).PX)

	// Zero span and zero canvas fall back to 1.
	p = NewProjector([]float64{3, 3}, []float64{3, 3}, nil, nil, 0, 0, false)
	assert.Equal(t, PixelPoint{PX: 0, PY: 1}, p.Project(3, 3))
}

func TestProjectorLogAxes(t *testing.T) {
	p := NewProjector([]float64{1, 100}, []float64{1, 100}, nil, nil, 200, 200, true)
	assert.InDelta(t, 100, p.Project(10, 10).PX, 1e-9)
	assert.InDelta(t, 100, p.Project(10, 10).PY, 1e-9)
	assert.False(t, p.Project(0, 10).finite())
	assert.False(t, p.Project(-5, 10).finite())
}

func TestMinPixelDistance(t *testing.T) {
	cfg := models.DefaultDensityConfig()

	_, enabled := MinPixelDistance(cfg, 8)
	assert.True(t, enabled)

	cfg.InkRatio = 0.25
	dist, enabled := MinPixelDistance(cfg, 8)
	assert.True(t, enabled)
	assert.Equal(t, 12.0, dist)

	cfg.InkRatio = 1
	_, enabled = MinPixelDistance(cfg, 8)
	assert.False(t, enabled)

	cfg.InkRatio = -3
	dist, _ = MinPixelDistance(cfg, 8)
	assert.Equal(t, 16.0, dist)

	cfg.UseCustomRadius = true
	cfg.CustomRadius = 30
	cfg.InkRatio = 1
	dist, enabled = MinPixelDistance(cfg, 8)
	assert.True(t, enabled)
	assert.Equal(t, 30.0, dist)

	cfg.CustomRadius = 0
	_, enabled = MinPixelDistance(cfg, 8)
	assert.False(t, enabled)
}

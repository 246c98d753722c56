package engine

import (
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/aclements/go-moremath/stats"

	"webplots/internal/models"
)

const (
	sparklineBins = 15
	topCategories = 5
)

// Summaries computes the header summary of every column. Columns are split
// across one worker per CPU and the results come back in column order.
func (d *Dataset) Summaries() []models.ColumnSummary {
	out := make([]models.ColumnSummary, len(d.Columns))
	if len(d.Columns) == 0 {
		return out
	}
	numWorkers := min(runtime.NumCPU(), len(d.Columns))

	type result struct {
		idx     int
		summary models.ColumnSummary
	}
	jobs := make(chan int)
	results := make(chan result, len(d.Columns))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				col := d.Columns[idx]
				results <- result{idx: idx, summary: SummarizeColumn(col, d.Column(col))}
			}
		}()
	}
	go func() {
		for i := range d.Columns {
			jobs <- i
		}
		close(jobs)
	}()
	go func() { wg.Wait(); close(results) }()

	for r := range results {
		out[r.idx] = r.summary
	}
	return out
}

// SummarizeColumn describes one column: numeric and date columns get
// min/max/avg/median and a sparkline histogram, categories get their most
// frequent values.
func SummarizeColumn(name string, values []models.Value) models.ColumnSummary {
	present := make([]models.Value, 0, len(values))
	for _, v := range values {
		if blank(v) {
			continue
		}
		present = append(present, v)
	}
	reader := NewNumberReader(present)
	s := models.ColumnSummary{Column: name, Type: reader.Type}
	if len(present) == 0 {
		return s
	}

	if s.Type == models.ColumnNumber || s.Type == models.ColumnDate {
		nums := make([]float64, 0, len(present))
		for _, v := range present {
			if f, ok := reader.Number(v); ok {
				nums = append(nums, f)
			}
		}
		if len(nums) > 0 {
			sort.Float64s(nums)
			s.Count = len(nums)
			s.Min, s.Max = nums[0], nums[len(nums)-1]
			s.Avg = stats.Mean(nums)
			s.Median = median(nums)
			s.Sparkline = sparkline(nums, s.Min, s.Max)
			return s
		}
		s.Type = models.ColumnCategory
	}

	s.Count = len(present)
	counts := make(map[string]int)
	var order []string
	for _, v := range present {
		key := v.String()
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	s.UniqueCount = len(order)
	// Stable keeps first-seen order among equally frequent values.
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	for _, key := range order[:min(topCategories, len(order))] {
		s.TopCategories = append(s.TopCategories, models.CategoryCount{Value: key, Count: counts[key]})
	}
	return s
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// sparkline buckets values into equal-width bins, the last one closed. A
// single repeated value has no distribution and yields nil.
func sparkline(nums []float64, lo, hi float64) []int {
	if lo == hi || math.IsNaN(hi-lo) {
		return nil
	}
	bins := make([]int, sparklineBins)
	size := (hi - lo) / sparklineBins
	for _, v := range nums {
		i := int(math.Floor((v - lo) / size))
		if i >= sparklineBins {
			i = sparklineBins - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i]++
	}
	return bins
}

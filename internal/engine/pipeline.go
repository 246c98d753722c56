package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"webplots/internal/models"
)

// Pipeline runs filter, group, aesthetic, decimate, bin and assemble over a
// workspace state and remembers the last result. A repeated Run with an
// identical state returns the cached PlotConfig, which callers must treat as
// read-only.
type Pipeline struct {
	log       *zap.Logger
	maxTraces int

	mu      sync.Mutex
	lastKey uint64
	last    *models.PlotConfig
}

func NewPipeline(log *zap.Logger, maxTraces int) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{log: log, maxTraces: maxTraces}
}

type memoInput struct {
	State     *models.WorkspaceState `json:"state"`
	MaxTraces int                    `json:"maxTraces"`
}

// memoKey hashes everything a chart depends on.
func memoKey(state *models.WorkspaceState, maxTraces int) (uint64, error) {
	b, err := json.Marshal(memoInput{State: state, MaxTraces: maxTraces})
	if err != nil {
		return 0, fmt.Errorf("encode memo key: %w", err)
	}
	return xxh3.Hash(b), nil
}

// Run computes the chart for state. The state is copied before use so the
// caller may keep mutating its own copy.
func (p *Pipeline) Run(state *models.WorkspaceState) *models.PlotConfig {
	key, keyErr := memoKey(state, p.maxTraces)
	if keyErr != nil {
		p.log.Warn("plot memo disabled for this run", zap.Error(keyErr))
	}

	p.mu.Lock()
	if keyErr == nil && p.last != nil && key == p.lastKey {
		cfg := p.last
		p.mu.Unlock()
		p.log.Debug("plot memo hit", zap.Uint64("key", key))
		return cfg
	}
	p.mu.Unlock()

	start := time.Now()
	snap, err := state.Clone()
	if err != nil {
		p.log.Warn("state snapshot failed, using live state", zap.Error(err))
		snap = state
	}

	rows := ApplyFilters(snap.Data, snap.Filters)
	cfg := Assemble(rows, InputsFromState(snap, p.maxTraces))

	p.log.Debug("plot assembled",
		zap.Int("rows", len(snap.Data)),
		zap.Int("filtered_rows", len(rows)),
		zap.Int("traces", len(cfg.Traces)),
		zap.Duration("took", time.Since(start)),
	)

	if keyErr == nil {
		p.mu.Lock()
		p.lastKey, p.last = key, cfg
		p.mu.Unlock()
	}
	return cfg
}

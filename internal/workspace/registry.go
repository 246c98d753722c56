package workspace

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webplots/internal/models"
)

var ErrNotFound = errors.New("workspace not found")

// Defaults seed every workspace the registry creates.
type Defaults struct {
	ChartWidth  float64
	ChartHeight float64
	Palette     string
}

type entry struct {
	mu    sync.RWMutex
	state *models.WorkspaceState
}

// Registry holds the open workspaces. The map is guarded by the registry
// lock and each workspace by its own, so slow work on one workspace never
// blocks another.
type Registry struct {
	mu       sync.RWMutex
	items    map[string]*entry
	defaults Defaults
	log      *zap.Logger
}

func NewRegistry(defaults Defaults, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{items: make(map[string]*entry), defaults: defaults, log: log}
}

// Create opens a workspace with default state and returns its id.
func (r *Registry) Create() string {
	s := models.NewWorkspaceState()
	if r.defaults.ChartWidth > 0 {
		s.Density.ChartWidth = r.defaults.ChartWidth
	}
	if r.defaults.ChartHeight > 0 {
		s.Density.ChartHeight = r.defaults.ChartHeight
	}
	if r.defaults.Palette != "" {
		SetColorPalette(s, r.defaults.Palette)
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.items[id] = &entry{state: s}
	r.mu.Unlock()

	r.log.Info("workspace created", zap.String("workspace", id))
	return id
}

func (r *Registry) get(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// View runs fn with read access to the workspace state. fn must not retain
// or modify the state.
func (r *Registry) View(id string, fn func(*models.WorkspaceState) error) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.state)
}

// Update runs fn with exclusive access to a draft of the workspace state.
// The draft replaces the state only when fn succeeds, so a rejected change
// leaves nothing behind. Rows are shared with the draft: fn may replace Data
// but must not edit rows in place.
func (r *Registry) Update(id string, fn func(*models.WorkspaceState) error) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	draft, err := draftOf(e.state)
	if err != nil {
		return err
	}
	if err := fn(draft); err != nil {
		return err
	}
	e.state = draft
	return nil
}

// Snapshot returns a deep copy of the workspace state.
func (r *Registry) Snapshot(id string) (*models.WorkspaceState, error) {
	var snap *models.WorkspaceState
	err := r.View(id, func(s *models.WorkspaceState) error {
		var err error
		snap, err = Clone(s)
		return err
	})
	return snap, err
}

// Replace swaps the whole state of a workspace.
func (r *Registry) Replace(id string, s *models.WorkspaceState) error {
	return r.Update(id, func(cur *models.WorkspaceState) error {
		*cur = *s
		normalize(cur)
		return nil
	})
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.items, id)
	r.log.Info("workspace deleted", zap.String("workspace", id))
	return nil
}

// IDs lists the open workspaces in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone deep-copies a workspace state.
func Clone(s *models.WorkspaceState) (*models.WorkspaceState, error) {
	return s.Clone()
}

// draftOf deep-copies everything but the rows.
func draftOf(s *models.WorkspaceState) (*models.WorkspaceState, error) {
	settings := *s
	settings.Data = nil
	draft, err := Clone(&settings)
	if err != nil {
		return nil, err
	}
	draft.Data = s.Data
	return draft, nil
}

// normalize replaces nil collections so the state always marshals to the
// same shape.
func normalize(s *models.WorkspaceState) {
	if s.Data == nil {
		s.Data = []models.Row{}
	}
	if s.Columns == nil {
		s.Columns = []string{}
	}
	if s.Axis.YAxis == nil {
		s.Axis.YAxis = []string{}
	}
	if s.Axis.PlotType == "" {
		s.Axis.PlotType = models.PlotScatter
	}
	if s.Group.GroupSettings == nil {
		s.Group.GroupSettings = map[string]models.GroupSettings{}
	}
	if s.Trace.TraceCustomizations == nil {
		s.Trace.TraceCustomizations = map[string]models.TraceCustomization{}
	}
	if s.Trace.ColorPalette == "" {
		s.Trace.ColorPalette = "Default"
	}
	if s.Filters == nil {
		s.Filters = []models.Filter{}
	}
}

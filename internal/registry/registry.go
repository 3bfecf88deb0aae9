// Package registry provides a global registry for stage factories.
// Stages register themselves in init() functions, allowing the CLI and the
// servers to discover and instantiate stages without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-lemmings/internal/stage"
)

// StageInfo contains metadata about a registered stage.
type StageInfo struct {
	ID        string
	Title     string
	Width     int
	Height    int
	Obstacles int
}

// Factory creates a fresh, independent stage. Every colony gets its own
// instance so runtime mutation never leaks between sessions.
type Factory func() *stage.Stage

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]StageInfo)
	mu        sync.RWMutex
)

// Register adds a stage factory to the registry.
// Typically called from an init() function.
// Panics if a stage with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: stage %q already registered", id))
	}

	factories[id] = f

	// Describe the stage by creating a temporary instance
	s := f()
	info := StageInfo{ID: id, Title: s.Title(), Obstacles: len(s.Elements())}
	if vp, err := s.Viewport(); err == nil {
		info.Width, info.Height = vp.W, vp.H
	}
	infos[id] = info
}

// List returns information about all registered stages, sorted by ID.
func List() []StageInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]StageInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new stage by its ID.
// Returns an error if the stage ID is not registered.
func Create(id string) (*stage.Stage, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown stage %q", id)
	}

	return f(), nil
}

// Exists checks if a stage with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}

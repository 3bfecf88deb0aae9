package stage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-lemmings/internal/core"
)

// File is the YAML representation of a stage.
type File struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Viewport SizeFile      `yaml:"viewport"`
	Elements []ElementFile `yaml:"obstacles"`
}

// SizeFile is a width/height pair.
type SizeFile struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ElementFile is one obstacle entry.
type ElementFile struct {
	ID    string   `yaml:"id"`
	Class []string `yaml:"class"`
	Rect  RectFile `yaml:"rect"`
}

// RectFile is a rectangle in viewport pixels.
type RectFile struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Parse decodes a YAML stage definition.
func Parse(data []byte) (*Stage, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("stage: cannot parse: %w", err)
	}
	return f.Build()
}

// LoadFile reads and parses a stage file.
func LoadFile(path string) (*Stage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stage: cannot read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Build validates the file and creates the stage.
func (f File) Build() (*Stage, error) {
	if f.ID == "" {
		return nil, fmt.Errorf("stage: missing id")
	}
	if f.Viewport.Width <= 0 || f.Viewport.Height <= 0 {
		return nil, fmt.Errorf("stage %q: viewport %dx%d has no area", f.ID, f.Viewport.Width, f.Viewport.Height)
	}

	title := f.Title
	if title == "" {
		title = f.ID
	}

	s := New(f.ID, title, f.Viewport.Width, f.Viewport.Height)
	for _, e := range f.Elements {
		err := s.AddObstacle(Element{
			ID:      e.ID,
			Classes: e.Class,
			Rect:    core.NewRect(e.Rect.X, e.Rect.Y, e.Rect.W, e.Rect.H),
		})
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", f.ID, err)
		}
	}
	return s, nil
}

// Marshal encodes the stage's current geometry as YAML.
func (s *Stage) Marshal() ([]byte, error) {
	s.mu.RLock()
	vp := s.viewport
	s.mu.RUnlock()

	f := File{
		ID:       s.id,
		Title:    s.title,
		Viewport: SizeFile{Width: vp.W, Height: vp.H},
	}
	for _, e := range s.Elements() {
		f.Elements = append(f.Elements, ElementFile{
			ID:    e.ID,
			Class: e.Classes,
			Rect:  RectFile{X: e.Rect.X, Y: e.Rect.Y, W: e.Rect.W, H: e.Rect.H},
		})
	}
	return yaml.Marshal(f)
}

// Package builtin registers the stages shipped inside the binary.
// Import it for its side effect.
package builtin

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/vovakirdan/tui-lemmings/internal/registry"
	"github.com/vovakirdan/tui-lemmings/internal/stage"
)

// Default is the stage used when none is configured.
const Default = "steps"

//go:embed stages/*.yaml
var files embed.FS

func init() {
	names, err := fs.Glob(files, "stages/*.yaml")
	if err != nil {
		panic(fmt.Sprintf("builtin: %v", err))
	}

	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			panic(fmt.Sprintf("builtin: %s: %v", name, err))
		}
		s, err := stage.Parse(data)
		if err != nil {
			panic(fmt.Sprintf("builtin: %s: %v", name, err))
		}
		registry.Register(s.ID(), s.Clone)
	}
}

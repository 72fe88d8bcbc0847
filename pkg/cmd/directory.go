package cmd

import (
	"fmt"

	"github.com/tramite-io/tramite/pkg/directory"
)

// NewDirectory loads the organizational directory from its JSON file.
func NewDirectory(path string) directory.Directory {
	dir, err := directory.LoadStatic(path)
	if err != nil {
		panic(fmt.Errorf("failed to load directory from %s: %w", path, err))
	}

	return dir
}

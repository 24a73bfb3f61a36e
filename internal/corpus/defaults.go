package corpus

import (
	_ "embed"
	"strings"
)

//go:embed default_paths.txt
var defaultPathData string

// DefaultPaths returns the embedded bypass path list, used when no
// path corpus file is given.
func DefaultPaths() []string {
	var paths []string
	for _, line := range strings.Split(defaultPathData, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

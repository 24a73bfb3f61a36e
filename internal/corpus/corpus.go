// Package corpus loads the path, URL, method and header lists that
// drive a fuzzing run. Corpora are read once at startup and treated as
// read-only afterwards.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"403-fuzzer/internal/utils"
)

// defaultUserAgents backs requests when no user-agent file is given or
// the file is missing.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// HeaderSet is one group of extra headers applied to a request.
type HeaderSet map[string]string

// String renders the set in a stable order for result lines.
func (h HeaderSet) String() string {
	if len(h) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", k, h[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

// LoadLines reads a file into ordered, whitespace-trimmed lines. Blank
// lines are dropped.
func LoadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening corpus file %s", path)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading corpus file %s", path)
	}
	return lines, nil
}

// LoadHeaders reads a "Name: Value" per line header corpus into
// single-entry header sets, preserving file order. Malformed lines are
// skipped with a warning.
func LoadHeaders(path string) ([]HeaderSet, error) {
	lines, err := LoadLines(path)
	if err != nil {
		return nil, err
	}
	var sets []HeaderSet
	for _, line := range lines {
		set, err := ParseHeader(line)
		if err != nil {
			utils.PrintWarning(fmt.Sprintf("Skipping invalid header line: %s", line))
			continue
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// ParseHeader splits a single "Name: Value" string into a header set.
func ParseHeader(s string) (HeaderSet, error) {
	key, value, found := strings.Cut(s, ":")
	if !found || strings.TrimSpace(key) == "" {
		return nil, errors.Errorf("invalid header format: %q", s)
	}
	return HeaderSet{strings.TrimSpace(key): strings.TrimSpace(value)}, nil
}

// LoadUserAgents reads a user-agent list, falling back to the built-in
// pair when the file is absent.
func LoadUserAgents(path string) []string {
	if path == "" {
		return defaultUserAgents
	}
	agents, err := LoadLines(path)
	if err != nil || len(agents) == 0 {
		utils.PrintWarning(fmt.Sprintf("%s not found or empty. Using default User-Agents.", path))
		return defaultUserAgents
	}
	return agents
}

// Package config assembles the immutable run configuration from CLI
// flags and an optional YAML file. Once built, a RunConfig is passed by
// value into every component and never mutated.
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the CLI flag defaults.
const (
	DefaultThreads    = 4
	DefaultBatchSize  = 100
	DefaultTimeLimit  = 30 * time.Minute
	DefaultTimeout    = 10 * time.Second
	DefaultMaxResults = 10000
)

// RunConfig is the full, immutable configuration of one fuzzing run.
type RunConfig struct {
	// Targets
	Domain  string
	URLFile string

	// Corpora
	PathFile      string
	MethodFile    string
	HeaderFile    string
	UserAgentFile string
	InlineMethods []string
	InlineHeader  string

	// Cross-product caps (0 = unlimited)
	MaxMethods int
	MaxHeaders int

	// Scheduling
	Threads   int
	Delay     time.Duration
	BatchSize int

	// Budgets (0 = unlimited)
	GlobalLimit    time.Duration
	PerTargetLimit time.Duration

	// Request execution
	Timeout  time.Duration
	Insecure bool
	RPS      int
	ProxyURL string

	// Output
	FilterStatus []int
	OutputFile   string
	MaxResults   int
	ShowErrors   bool
	Verbose      bool
	NoBar        bool
}

// Validate rejects configurations that cannot start a run.
func (c RunConfig) Validate() error {
	if c.Domain == "" && c.URLFile == "" {
		return errors.New("either a target domain (-d) or a URL list (-l) is required")
	}
	if c.Threads < 1 {
		return errors.New("thread count must be at least 1")
	}
	if c.BatchSize < 1 {
		return errors.New("batch size must be at least 1")
	}
	if c.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	if c.ProxyURL != "" {
		if _, err := url.Parse(c.ProxyURL); err != nil {
			return errors.Wrap(err, "invalid proxy URL")
		}
	}
	return nil
}

// NormalizeTarget ensures a target carries an http/https scheme and a
// host, defaulting to http like the rest of the recon tooling expects.
func NormalizeTarget(domain string) (string, error) {
	if domain == "" {
		return "", errors.New("empty target")
	}
	raw := domain
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "invalid target %q", domain)
	}
	if parsed.Host == "" {
		return "", errors.Errorf("invalid target format: %q", domain)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.Errorf("invalid scheme %q: only http/https allowed", parsed.Scheme)
	}
	return strings.TrimSuffix(raw, "/"), nil
}

// ParseStatusFilter turns a comma-separated status list into the
// allow-list used by the result filter.
func ParseStatusFilter(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var codes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Errorf("invalid status code %q", part)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// fileConfig is the YAML shape of a config file. Durations use the
// same units as the flags: delay in seconds, time limits in minutes
// and seconds respectively.
type fileConfig struct {
	Domain        string   `yaml:"domain"`
	URLFile       string   `yaml:"url_file"`
	PathFile      string   `yaml:"path_file"`
	MethodFile    string   `yaml:"method_file"`
	HeaderFile    string   `yaml:"header_file"`
	UserAgentFile string   `yaml:"user_agent_file"`
	Methods       []string `yaml:"methods"`
	Header        string   `yaml:"header"`
	MaxMethods    int      `yaml:"max_methods"`
	MaxHeaders    int      `yaml:"max_headers"`
	Threads       int      `yaml:"threads"`
	DelaySeconds  float64  `yaml:"delay"`
	BatchSize     int      `yaml:"batch_size"`
	TimeMinutes   float64  `yaml:"time"`
	PerTargetSecs float64  `yaml:"per_target_time"`
	TimeoutSecs   float64  `yaml:"timeout"`
	Insecure      bool     `yaml:"insecure"`
	RPS           int      `yaml:"rps"`
	Proxy         string   `yaml:"proxy"`
	FilterStatus  []int    `yaml:"filter_status"`
	OutputFile    string   `yaml:"output_file"`
	MaxResults    int      `yaml:"max_results"`
	ShowErrors    bool     `yaml:"show_errors"`
	Verbose       bool     `yaml:"verbose"`
	NoBar         bool     `yaml:"no_bar"`
}

// LoadFile reads a YAML config file and overlays its values onto base.
// Zero-valued YAML fields leave the base untouched, so flag defaults
// survive and explicitly set flags can be re-applied on top by the
// caller.
func LoadFile(path string, base RunConfig) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrapf(err, "reading config file %s", path)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return base, errors.Wrapf(err, "parsing config file %s", path)
	}

	out := base
	if fc.Domain != "" {
		out.Domain = fc.Domain
	}
	if fc.URLFile != "" {
		out.URLFile = fc.URLFile
	}
	if fc.PathFile != "" {
		out.PathFile = fc.PathFile
	}
	if fc.MethodFile != "" {
		out.MethodFile = fc.MethodFile
	}
	if fc.HeaderFile != "" {
		out.HeaderFile = fc.HeaderFile
	}
	if fc.UserAgentFile != "" {
		out.UserAgentFile = fc.UserAgentFile
	}
	if len(fc.Methods) > 0 {
		out.InlineMethods = fc.Methods
	}
	if fc.Header != "" {
		out.InlineHeader = fc.Header
	}
	if fc.MaxMethods > 0 {
		out.MaxMethods = fc.MaxMethods
	}
	if fc.MaxHeaders > 0 {
		out.MaxHeaders = fc.MaxHeaders
	}
	if fc.Threads > 0 {
		out.Threads = fc.Threads
	}
	if fc.DelaySeconds > 0 {
		out.Delay = time.Duration(fc.DelaySeconds * float64(time.Second))
	}
	if fc.BatchSize > 0 {
		out.BatchSize = fc.BatchSize
	}
	if fc.TimeMinutes > 0 {
		out.GlobalLimit = time.Duration(fc.TimeMinutes * float64(time.Minute))
	}
	if fc.PerTargetSecs > 0 {
		out.PerTargetLimit = time.Duration(fc.PerTargetSecs * float64(time.Second))
	}
	if fc.TimeoutSecs > 0 {
		out.Timeout = time.Duration(fc.TimeoutSecs * float64(time.Second))
	}
	if fc.Insecure {
		out.Insecure = true
	}
	if fc.RPS > 0 {
		out.RPS = fc.RPS
	}
	if fc.Proxy != "" {
		out.ProxyURL = fc.Proxy
	}
	if len(fc.FilterStatus) > 0 {
		out.FilterStatus = fc.FilterStatus
	}
	if fc.OutputFile != "" {
		out.OutputFile = fc.OutputFile
	}
	if fc.MaxResults > 0 {
		out.MaxResults = fc.MaxResults
	}
	if fc.ShowErrors {
		out.ShowErrors = true
	}
	if fc.Verbose {
		out.Verbose = true
	}
	if fc.NoBar {
		out.NoBar = true
	}
	return out, nil
}

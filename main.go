package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"403-fuzzer/internal/config"
	"403-fuzzer/internal/corpus"
	"403-fuzzer/internal/engine"
	"403-fuzzer/internal/output"
	"403-fuzzer/internal/utils"
	"403-fuzzer/internal/variants"
)

const banner = `403-fuzzer - probe 403-protected endpoints for access control bypasses`

func main() {
	color.Output = os.Stderr

	var (
		domain     = flag.String("d", "", "Domain or URL to test for 403 bypasses.")
		urlFile    = flag.String("l", "", "File containing a list of target URLs.")
		pathFile   = flag.String("pf", "", "File containing the paths to test (default: built-in list).")
		methodFile = flag.String("mf", "", "File with HTTP methods for method fuzzing.")
		methodsArg = flag.String("m", "", "Comma-separated HTTP methods to use (overrides -mf).")
		headerFile = flag.String("hf", "", "File with headers, one 'Name: Value' per line.")
		headerArg  = flag.String("header", "", "Single custom header in 'Name: Value' format.")
		uaFile     = flag.String("uf", "", "File with User-Agents, one picked at random per request.")
		maxMethods = flag.Int("mm", 0, "Max methods to iterate the paths with (0 = all).")
		maxHeaders = flag.Int("mh", 0, "Max headers to iterate the paths with (0 = all).")
		threads    = flag.Int("th", config.DefaultThreads, "Number of concurrent workers.")
		delay      = flag.Float64("dd", 0, "Per-worker delay between requests in seconds (fractional allowed).")
		batchSize  = flag.Int("bz", config.DefaultBatchSize, "Number of tasks to schedule per batch.")
		timeLimit  = flag.Float64("t", 30, "Max scan time in minutes.")
		perTarget  = flag.Float64("put", 0, "Time limit per target in seconds (0 = none).")
		filterArg  = flag.String("fs", "", "Status codes to keep, comma-separated (e.g. 200,403).")
		outputFile = flag.String("o", "", "File to write results to.")
		timeoutSec = flag.Float64("timeout", 10, "Per-request timeout in seconds.")
		insecure   = flag.Bool("k", false, "Skip TLS certificate verification.")
		rps        = flag.Int("rps", 0, "Max requests per second across all workers (0 = no cap).")
		proxyURL   = flag.String("proxy", "", "Proxy URL for outbound requests.")
		configFile = flag.String("config", "", "YAML config file; explicitly set flags override its values.")
		maxResults = flag.Int("max-results", config.DefaultMaxResults, "Stop emitting results after this many matches.")
		showErrors = flag.Bool("show-errors", false, "Emit failed probes to the sink as diagnostic lines.")
		noBar      = flag.Bool("no-bar", false, "Disable the progress bar.")
		verbose    = flag.Bool("v", false, "Verbose output (per-request debug and curl repro lines).")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\nUsage: %s [options]\n\n", banner, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	filterStatus, err := config.ParseStatusFilter(*filterArg)
	if err != nil {
		fatal(err.Error())
	}

	cfg := config.RunConfig{
		Domain:         *domain,
		URLFile:        *urlFile,
		PathFile:       *pathFile,
		MethodFile:     *methodFile,
		HeaderFile:     *headerFile,
		UserAgentFile:  *uaFile,
		InlineMethods:  splitMethods(*methodsArg),
		InlineHeader:   *headerArg,
		MaxMethods:     *maxMethods,
		MaxHeaders:     *maxHeaders,
		Threads:        *threads,
		Delay:          time.Duration(*delay * float64(time.Second)),
		BatchSize:      *batchSize,
		GlobalLimit:    time.Duration(*timeLimit * float64(time.Minute)),
		PerTargetLimit: time.Duration(*perTarget * float64(time.Second)),
		Timeout:        time.Duration(*timeoutSec * float64(time.Second)),
		Insecure:       *insecure,
		RPS:            *rps,
		ProxyURL:       *proxyURL,
		FilterStatus:   filterStatus,
		OutputFile:     *outputFile,
		MaxResults:     *maxResults,
		ShowErrors:     *showErrors,
		Verbose:        *verbose,
		NoBar:          *noBar,
	}

	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile, cfg)
		if err != nil {
			fatal(err.Error())
		}
		// Explicitly set flags win over file values.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "d":
				cfg.Domain = *domain
			case "l":
				cfg.URLFile = *urlFile
			case "pf":
				cfg.PathFile = *pathFile
			case "mf":
				cfg.MethodFile = *methodFile
			case "m":
				cfg.InlineMethods = splitMethods(*methodsArg)
			case "hf":
				cfg.HeaderFile = *headerFile
			case "header":
				cfg.InlineHeader = *headerArg
			case "uf":
				cfg.UserAgentFile = *uaFile
			case "mm":
				cfg.MaxMethods = *maxMethods
			case "mh":
				cfg.MaxHeaders = *maxHeaders
			case "th":
				cfg.Threads = *threads
			case "dd":
				cfg.Delay = time.Duration(*delay * float64(time.Second))
			case "bz":
				cfg.BatchSize = *batchSize
			case "t":
				cfg.GlobalLimit = time.Duration(*timeLimit * float64(time.Minute))
			case "put":
				cfg.PerTargetLimit = time.Duration(*perTarget * float64(time.Second))
			case "fs":
				cfg.FilterStatus = filterStatus
			case "o":
				cfg.OutputFile = *outputFile
			case "timeout":
				cfg.Timeout = time.Duration(*timeoutSec * float64(time.Second))
			case "k":
				cfg.Insecure = *insecure
			case "rps":
				cfg.RPS = *rps
			case "proxy":
				cfg.ProxyURL = *proxyURL
			case "max-results":
				cfg.MaxResults = *maxResults
			case "show-errors":
				cfg.ShowErrors = *showErrors
			case "no-bar":
				cfg.NoBar = *noBar
			case "v":
				cfg.Verbose = *verbose
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		flag.Usage()
		fatal(err.Error())
	}

	targets, err := loadTargets(cfg)
	if err != nil {
		fatal(err.Error())
	}

	paths := corpus.DefaultPaths()
	if cfg.PathFile != "" {
		paths, err = corpus.LoadLines(cfg.PathFile)
		if err != nil {
			fatal(err.Error())
		}
	}
	if len(paths) == 0 {
		fatal("path corpus is empty")
	}

	methods, err := loadMethods(cfg)
	if err != nil {
		fatal(err.Error())
	}
	headers, err := loadHeaderSets(cfg)
	if err != nil {
		fatal(err.Error())
	}
	userAgents := corpus.LoadUserAgents(cfg.UserAgentFile)

	console := output.NewConsoleLogger(cfg.Verbose)
	sink, err := output.NewSink(cfg, console)
	if err != nil {
		fatal(err.Error())
	}
	defer sink.Close()

	executor, err := engine.NewExecutor(cfg, userAgents)
	if err != nil {
		fatal(err.Error())
	}
	budget := engine.NewBudget(cfg.GlobalLimit, cfg.PerTargetLimit, func(scope string) {
		if scope == "global" {
			console.Info("Global time limit exceeded, skipping remaining tasks")
		} else {
			console.Infof("Per-target time limit exceeded for %s, skipping its remaining tasks", scope)
		}
	})

	printConfiguration(console, cfg, targets, paths, methods, headers)

	var bar *progressbar.ProgressBar
	if total := engine.TotalTasks(cfg, targets, paths, methods, headers); !cfg.NoBar && total > 0 {
		bar = progressbar.NewOptions(total,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetDescription("[cyan]Fuzzing...[reset]"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}
	pool := engine.NewPool(cfg.Threads, cfg.Delay, executor, budget, sink, bar)
	runner := engine.NewRunner(cfg, targets, paths, methods, headers, budget, pool, console)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	summary, runErr := runner.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fatal(runErr.Error())
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		utils.PrintWarning("Operation cancelled by user")
	}

	utils.PrintInfo(fmt.Sprintf("Dispatched %d requests across %d target(s) in %s",
		summary.Dispatched, summary.Targets, utils.FormatTimeRemaining(time.Since(started).Seconds())))
	if summary.Skipped > 0 {
		utils.PrintWarning(fmt.Sprintf("Skipped %d tasks due to time limits", summary.Skipped))
	}
	if summary.Failures > 0 {
		utils.PrintWarning(fmt.Sprintf("%d requests failed (connection/timeout)", summary.Failures))
	}
	if sink.Diagnostics() > 0 {
		utils.PrintWarning(fmt.Sprintf("Recorded %d failure diagnostics", sink.Diagnostics()))
	}
	if sink.Matched() > 0 {
		utils.PrintSuccess(fmt.Sprintf("Recorded %d matching results", sink.Matched()))
		if cfg.OutputFile != "" {
			utils.PrintSuccess(fmt.Sprintf("Results written to %s", cfg.OutputFile))
		}
	} else {
		utils.PrintInfo("No results matched the filter criteria")
	}
}

func fatal(msg string) {
	utils.PrintError(msg)
	os.Exit(1)
}

func splitMethods(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var methods []string
	for _, m := range strings.Split(s, ",") {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			methods = append(methods, m)
		}
	}
	return methods
}

func loadTargets(cfg config.RunConfig) ([]string, error) {
	var targets []string
	if cfg.Domain != "" {
		target, err := config.NormalizeTarget(cfg.Domain)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	if cfg.URLFile != "" {
		lines, err := corpus.LoadLines(cfg.URLFile)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			target, err := config.NormalizeTarget(line)
			if err != nil {
				return nil, err
			}
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		return nil, errors.New("no valid targets loaded")
	}
	return targets, nil
}

func loadMethods(cfg config.RunConfig) ([]string, error) {
	if len(cfg.InlineMethods) > 0 {
		return cfg.InlineMethods, nil
	}
	if cfg.MethodFile == "" {
		return nil, nil
	}
	lines, err := corpus.LoadLines(cfg.MethodFile)
	if err != nil {
		return nil, err
	}
	methods := make([]string, 0, len(lines))
	for _, m := range lines {
		methods = append(methods, strings.ToUpper(m))
	}
	return methods, nil
}

func loadHeaderSets(cfg config.RunConfig) ([]corpus.HeaderSet, error) {
	if cfg.InlineHeader != "" {
		set, err := corpus.ParseHeader(cfg.InlineHeader)
		if err != nil {
			return nil, err
		}
		return []corpus.HeaderSet{set}, nil
	}
	if cfg.HeaderFile == "" {
		return nil, nil
	}
	return corpus.LoadHeaders(cfg.HeaderFile)
}

func printConfiguration(console *logrus.Logger, cfg config.RunConfig, targets, paths, methods []string, headers []corpus.HeaderSet) {
	console.Info(strings.Repeat("=", 50))
	console.Info("FUZZER CONFIGURATION")
	console.Info(strings.Repeat("=", 50))
	console.Infof("Targets: %d loaded", len(targets))
	console.Infof("Paths: %d loaded (%d variants each)", len(paths), variants.Count)
	switch {
	case len(methods) == 0:
		console.Info("Methods: GET (default)")
	case cfg.MaxMethods > 0 && len(methods) > cfg.MaxMethods:
		console.Infof("Methods: %d/%d loaded (limited by max methods)", cfg.MaxMethods, len(methods))
	default:
		console.Infof("Methods: %s", strings.Join(methods, ", "))
	}
	switch {
	case len(headers) == 0:
		console.Info("Headers: none")
	case cfg.MaxHeaders > 0 && len(headers) > cfg.MaxHeaders:
		console.Infof("Headers: %d/%d loaded (limited by max headers)", cfg.MaxHeaders, len(headers))
	default:
		console.Infof("Headers: %d loaded", len(headers))
	}
	console.Infof("Workers: %d, delay: %s, batch size: %d", cfg.Threads, cfg.Delay, cfg.BatchSize)
	console.Infof("Global time limit: %s", cfg.GlobalLimit)
	if cfg.PerTargetLimit > 0 {
		console.Infof("Per-target time limit: %s", cfg.PerTargetLimit)
	}
	if cfg.RPS > 0 {
		console.Infof("Rate cap: %d req/s", cfg.RPS)
	}
	console.Infof("Request timeout: %s, TLS verify: %t", cfg.Timeout, !cfg.Insecure)
	if len(cfg.FilterStatus) > 0 {
		console.Infof("Status code filter: %v", cfg.FilterStatus)
	}
	if cfg.OutputFile != "" {
		console.Infof("Output file: %s", cfg.OutputFile)
	}
	console.Info(strings.Repeat("=", 50))
}

package output

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"403-fuzzer/internal/config"
	"403-fuzzer/internal/engine"
	"403-fuzzer/internal/utils"
)

// Sink applies the status-code allow-list and appends matching records
// to the output file and the console. Writes are serialized so lines
// never interleave mid-line; across workers, lines land in completion
// order.
type Sink struct {
	console    *logrus.Logger
	formatter  *LineFormatter
	allow      map[int]struct{}
	showErrors bool
	verbose    bool
	maxResults int

	mu        sync.Mutex
	file      *os.File
	capWarned bool

	matched     atomic.Int64
	diagnostics atomic.Int64
}

// NewSink opens the output file (if configured) and builds the sink.
func NewSink(cfg config.RunConfig, console *logrus.Logger) (*Sink, error) {
	s := &Sink{
		console:    console,
		formatter:  &LineFormatter{},
		showErrors: cfg.ShowErrors,
		verbose:    cfg.Verbose,
		maxResults: cfg.MaxResults,
	}
	if len(cfg.FilterStatus) > 0 {
		s.allow = make(map[int]struct{}, len(cfg.FilterStatus))
		for _, code := range cfg.FilterStatus {
			s.allow[code] = struct{}{}
		}
	}
	if cfg.OutputFile != "" {
		file, err := os.OpenFile(cfg.OutputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "opening output file %s", cfg.OutputFile)
		}
		s.file = file
	}
	return s, nil
}

// Matched is the number of result records emitted so far. Failure
// lines are counted separately by Diagnostics.
func (s *Sink) Matched() int64 {
	return s.matched.Load()
}

// Diagnostics is the number of failure lines emitted via ShowErrors.
func (s *Sink) Diagnostics() int64 {
	return s.diagnostics.Load()
}

// Close releases the output file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Emit formats and writes one record if it passes the filter. A file
// write error is returned to the caller and aborts the run: results
// that cannot be persisted are results lost.
func (s *Sink) Emit(record engine.Record) error {
	level := logrus.InfoLevel
	status := fmt.Sprintf("%d", record.StatusCode)

	if record.Failed() {
		if !s.showErrors {
			s.console.Debugf("%s %s failed: %s", record.Task.Method, record.Task.URL(), record.Message)
			return nil
		}
		level = logrus.WarnLevel
		status = record.Failure.String()
	} else if s.allow != nil {
		if _, ok := s.allow[record.StatusCode]; !ok {
			return nil
		}
	}

	message := fmt.Sprintf("%s ---> %s, %s, %s, %d bytes",
		record.Task.URL(), status, record.Task.Method, record.Task.Headers, record.Size)

	line, err := s.formatter.Format(&logrus.Entry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	if err != nil {
		return errors.Wrap(err, "formatting result line")
	}

	s.mu.Lock()
	// Failure lines are diagnostics: they neither count as matches nor
	// consume the result cap.
	if record.Failed() {
		s.diagnostics.Inc()
	} else {
		if s.maxResults > 0 && s.matched.Load() >= int64(s.maxResults) {
			if !s.capWarned {
				s.capWarned = true
				s.mu.Unlock()
				s.console.Warnf("Result limit (%d) exceeded, further results are dropped", s.maxResults)
				return nil
			}
			s.mu.Unlock()
			return nil
		}
		s.matched.Inc()
	}
	if s.file != nil {
		if _, err := s.file.Write(line); err != nil {
			s.mu.Unlock()
			return errors.Wrap(err, "writing result to output file")
		}
	}
	s.mu.Unlock()

	s.console.Log(level, utils.ColorByStatus(record.StatusCode, message))
	if s.verbose && record.Curl != "" {
		s.console.Debugf("repro: %s", record.Curl)
	}
	return nil
}

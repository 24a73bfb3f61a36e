package output_test

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"403-fuzzer/internal/config"
	"403-fuzzer/internal/corpus"
	"403-fuzzer/internal/engine"
	"403-fuzzer/internal/output"
	"403-fuzzer/internal/variants"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func record(status int, size int) engine.Record {
	return engine.Record{
		Task: engine.Task{
			Target:  "http://example.com",
			Variant: variants.Generate("admin")[0],
			Method:  "GET",
			Headers: corpus.HeaderSet{},
		},
		StatusCode: status,
		Size:       size,
		Latency:    10 * time.Millisecond,
	}
}

func failureRecord(kind engine.FailureKind) engine.Record {
	r := record(0, 0)
	r.Failure = kind
	r.Message = "dial tcp: connection refused"
	return r
}

func newFileSink(t *testing.T, cfg config.RunConfig) (*output.Sink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.txt")
	cfg.OutputFile = path
	sink, err := output.NewSink(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink, path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestSinkStatusFilter(t *testing.T) {
	sink, path := newFileSink(t, config.RunConfig{FilterStatus: []int{200, 403}})

	require.NoError(t, sink.Emit(record(200, 5)))
	require.NoError(t, sink.Emit(record(404, 9)))
	require.NoError(t, sink.Emit(record(403, 7)))
	require.NoError(t, sink.Emit(record(500, 3)))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "---> 200,")
	assert.Contains(t, lines[1], "---> 403,")
	assert.Equal(t, int64(2), sink.Matched())
}

func TestSinkEmptyFilterEmitsEverything(t *testing.T) {
	sink, path := newFileSink(t, config.RunConfig{})

	require.NoError(t, sink.Emit(record(200, 5)))
	require.NoError(t, sink.Emit(record(404, 9)))

	assert.Len(t, readLines(t, path), 2)
}

func TestSinkLineFormat(t *testing.T) {
	sink, path := newFileSink(t, config.RunConfig{})
	require.NoError(t, sink.Emit(record(200, 1234)))

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - INFO - http://example\.com/admin ---> 200, GET, \{\}, 1234 bytes$`)
	assert.Regexp(t, re, lines[0])
}

func TestSinkFailuresNeedOptIn(t *testing.T) {
	sink, path := newFileSink(t, config.RunConfig{})
	require.NoError(t, sink.Emit(failureRecord(engine.FailureTimeout)))
	assert.Empty(t, readLines(t, path))

	sink, path = newFileSink(t, config.RunConfig{ShowErrors: true})
	require.NoError(t, sink.Emit(failureRecord(engine.FailureTimeout)))
	require.NoError(t, sink.Emit(failureRecord(engine.FailureConnection)))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " - WARNING - ")
	assert.Contains(t, lines[0], "---> TIMEOUT,")
	assert.Contains(t, lines[1], "---> CONNECTION_ERROR,")
}

func TestSinkMaxResultsCap(t *testing.T) {
	sink, path := newFileSink(t, config.RunConfig{MaxResults: 3})

	for i := 0; i < 10; i++ {
		require.NoError(t, sink.Emit(record(200, i)))
	}
	assert.Len(t, readLines(t, path), 3)
	assert.Equal(t, int64(3), sink.Matched())
}

func TestSinkFailureLinesDoNotCountAsMatches(t *testing.T) {
	sink, path := newFileSink(t, config.RunConfig{ShowErrors: true, MaxResults: 1})

	require.NoError(t, sink.Emit(failureRecord(engine.FailureTimeout)))
	require.NoError(t, sink.Emit(record(200, 5)))
	require.NoError(t, sink.Emit(failureRecord(engine.FailureConnection)))
	// Cap already consumed by the real match; further matches drop,
	// further diagnostics still land.
	require.NoError(t, sink.Emit(record(200, 6)))
	require.NoError(t, sink.Emit(failureRecord(engine.FailureTimeout)))

	assert.Equal(t, int64(1), sink.Matched())
	assert.Equal(t, int64(3), sink.Diagnostics())
	lines := readLines(t, path)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "---> 200,")
}

func TestSinkConcurrentEmitsKeepLinesIntact(t *testing.T) {
	sink, path := newFileSink(t, config.RunConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = sink.Emit(record(200, n))
		}(i)
	}
	wg.Wait()

	lines := readLines(t, path)
	require.Len(t, lines, 20)
	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - INFO - http://example\.com/admin ---> 200, GET, \{\}, \d+ bytes$`)
	for _, line := range lines {
		assert.Regexp(t, re, line)
	}
}

func TestSinkWithoutFileStillCountsMatches(t *testing.T) {
	sink, err := output.NewSink(config.RunConfig{}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, sink.Emit(record(200, 5)))
	assert.Equal(t, int64(1), sink.Matched())
}

func TestSinkUnwritableOutputFileIsFatal(t *testing.T) {
	cfg := config.RunConfig{OutputFile: filepath.Join(t.TempDir(), "no", "such", "dir", "out.txt")}
	_, err := output.NewSink(cfg, quietLogger())
	require.Error(t, err)
}

func TestLineFormatter(t *testing.T) {
	f := &output.LineFormatter{}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "hello",
	}
	line, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14 15:09:26 - INFO - hello\n", string(line))
}

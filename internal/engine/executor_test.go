package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"403-fuzzer/internal/config"
	"403-fuzzer/internal/corpus"
	"403-fuzzer/internal/engine"
	"403-fuzzer/internal/variants"
)

func testConfig() config.RunConfig {
	return config.RunConfig{
		Threads:     1,
		BatchSize:   config.DefaultBatchSize,
		GlobalLimit: time.Hour,
		Timeout:     2 * time.Second,
		MaxResults:  config.DefaultMaxResults,
	}
}

func taskFor(target, path, method string, headers corpus.HeaderSet) engine.Task {
	return engine.Task{
		Target:  target,
		Variant: variants.Generate(path)[0],
		Method:  method,
		Headers: headers,
	}
}

func TestExecutorRecordsStatusAndSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("denied"))
	}))
	defer srv.Close()

	executor, err := engine.NewExecutor(testConfig(), nil)
	require.NoError(t, err)

	record := executor.Do(context.Background(), taskFor(srv.URL, "admin", "GET", nil))
	require.False(t, record.Failed())
	assert.Equal(t, http.StatusForbidden, record.StatusCode)
	assert.Equal(t, len("denied"), record.Size)
	assert.Greater(t, record.Latency, time.Duration(0))
	assert.Contains(t, record.Curl, srv.URL)
}

func TestExecutorSendsMethodAndHeaders(t *testing.T) {
	var gotMethod, gotHeader, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Forwarded-For")
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	executor, err := engine.NewExecutor(testConfig(), []string{"probe-agent"})
	require.NoError(t, err)

	task := taskFor(srv.URL, "admin", "POST", corpus.HeaderSet{"X-Forwarded-For": "127.0.0.1"})
	record := executor.Do(context.Background(), task)
	require.False(t, record.Failed())
	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "127.0.0.1", gotHeader)
	assert.Equal(t, "probe-agent", gotUA)
}

func TestExecutorHeaderSetUserAgentWins(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	executor, err := engine.NewExecutor(testConfig(), []string{"pool-agent"})
	require.NoError(t, err)

	task := taskFor(srv.URL, "admin", "GET", corpus.HeaderSet{"User-Agent": "explicit-agent"})
	record := executor.Do(context.Background(), task)
	require.False(t, record.Failed())
	assert.Equal(t, "explicit-agent", gotUA)
}

func TestExecutorHostHeaderReachesWire(t *testing.T) {
	var gotHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
	}))
	defer srv.Close()

	executor, err := engine.NewExecutor(testConfig(), nil)
	require.NoError(t, err)

	task := taskFor(srv.URL, "admin", "GET", corpus.HeaderSet{"Host": "internal.local"})
	record := executor.Do(context.Background(), task)
	require.False(t, record.Failed(), record.Message)
	assert.Equal(t, "internal.local", gotHost)

	// Lower-cased corpus entries rewrite the host too.
	task = taskFor(srv.URL, "admin", "GET", corpus.HeaderSet{"host": "other.local"})
	record = executor.Do(context.Background(), task)
	require.False(t, record.Failed(), record.Message)
	assert.Equal(t, "other.local", gotHost)
}

func TestExecutorClassifiesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	executor, err := engine.NewExecutor(cfg, nil)
	require.NoError(t, err)

	record := executor.Do(context.Background(), taskFor(srv.URL, "admin", "GET", nil))
	require.True(t, record.Failed())
	assert.Equal(t, engine.FailureTimeout, record.Failure)
	assert.Equal(t, "TIMEOUT", record.Failure.String())
}

func TestExecutorClassifiesConnectionFailure(t *testing.T) {
	// A server that is immediately closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	executor, err := engine.NewExecutor(testConfig(), nil)
	require.NoError(t, err)

	record := executor.Do(context.Background(), taskFor(addr, "admin", "GET", nil))
	require.True(t, record.Failed())
	assert.Equal(t, engine.FailureConnection, record.Failure)
	assert.Equal(t, "CONNECTION_ERROR", record.Failure.String())
}

func TestExecutorInvalidMethod(t *testing.T) {
	executor, err := engine.NewExecutor(testConfig(), nil)
	require.NoError(t, err)

	record := executor.Do(context.Background(), taskFor("http://example.com", "admin", "BAD METHOD", nil))
	require.True(t, record.Failed())
	assert.Equal(t, engine.FailureInvalid, record.Failure)
}

package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"403-fuzzer/internal/config"
	"403-fuzzer/internal/utils"
)

// Executor performs one HTTP call per task. Every outcome is a Record;
// network faults never escape as errors and nothing is retried.
type Executor struct {
	client     *http.Client
	limiter    *rate.Limiter
	userAgents []string
}

// NewExecutor builds the shared HTTP client from the run
// configuration. Redirects are followed so the recorded status is the
// final one the server settles on.
func NewExecutor(cfg config.RunConfig, userAgents []string) (*Executor, error) {
	transport := &http.Transport{
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: cfg.Insecure},
		DisableKeepAlives: true,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	return &Executor{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter:    limiter,
		userAgents: userAgents,
	}, nil
}

// Do dispatches one task and returns its record. ctx only gates the
// rate-limiter wait; an in-flight request runs to its own timeout.
func (e *Executor) Do(ctx context.Context, task Task) Record {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return Record{Task: task, Failure: FailureInvalid, Message: err.Error()}
		}
	}

	req, err := http.NewRequest(task.Method, task.URL(), nil)
	if err != nil {
		return Record{Task: task, Failure: FailureInvalid, Message: err.Error()}
	}
	if _, ok := task.Headers["User-Agent"]; !ok && len(e.userAgents) > 0 {
		req.Header.Set("User-Agent", e.userAgents[rand.Intn(len(e.userAgents))])
	}
	for key, value := range task.Headers {
		// net/http takes the wire Host from req.Host, not the header
		// map; an empty value falls back to the URL host.
		if http.CanonicalHeaderKey(key) == "Host" {
			req.Host = value
			continue
		}
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return Record{
			Task:    task,
			Latency: time.Since(start),
			Failure: classifyFailure(err),
			Message: err.Error(),
			Curl:    utils.GenerateCurlCommand(req),
		}
	}
	defer resp.Body.Close()

	size, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return Record{
			Task:    task,
			Latency: time.Since(start),
			Failure: FailureInvalid,
			Message: err.Error(),
			Curl:    utils.GenerateCurlCommand(req),
		}
	}

	return Record{
		Task:       task,
		StatusCode: resp.StatusCode,
		Size:       int(size),
		Latency:    time.Since(start),
		Curl:       utils.GenerateCurlCommand(req),
	}
}

// classifyFailure maps transport errors onto the failure taxonomy.
func classifyFailure(err error) FailureKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return FailureConnection
	}
	return FailureInvalid
}

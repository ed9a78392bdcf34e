// Package heatermeter talks to a HeaterMeter controller over HTTP: status and
// history reads with primary/alternate failover, login and setpoint changes.
package heatermeter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	"pitwatch/internal/logger"
	"pitwatch/internal/metrics"
)

// Device endpoints.
const (
	HistoryPath = "/luci/lm/hist"
	StatusPath  = "/luci/lm/hmstatus"
	AuthPath    = "/luci/admin/lm"
)

// Both the connect and the read must finish within these bounds, otherwise an
// unreachable server can stall a tick for minutes.
const (
	ConnectTimeout = 5 * time.Second
	ReadTimeout    = 5 * time.Second
)

// ErrNoServer is returned when neither configured server answered.
var ErrNoServer = errors.New("no server reachable")

var schemeRE = regexp.MustCompile(`^(https?)://.*$`)

// NormalizeServer prefixes addr with http:// unless it already has an http(s) scheme.
func NormalizeServer(addr string) string {
	if schemeRE.MatchString(addr) {
		return addr
	}
	return "http://" + addr
}

// Fetcher issues GETs against the current server and fails over to the other
// one. The current-server index is kept in memory only.
type Fetcher struct {
	servers [2]string
	current atomic.Int32
	client  *http.Client
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewFetcher returns a fetcher for the primary and alternate base URLs.
// Addresses without a scheme get http://.
func NewFetcher(primary, alternate string, log *logger.Logger, m *metrics.Metrics) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{
		servers: [2]string{NormalizeServer(primary), NormalizeServer(alternate)},
		client:  newHTTPClient(),
		log:     log.Named("fetcher"),
		metrics: m,
	}
}

func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: ConnectTimeout}).DialContext,
		TLSHandshakeTimeout:   ConnectTimeout,
		ResponseHeaderTimeout: ReadTimeout,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   ConnectTimeout + ReadTimeout,
	}
}

// Current returns the index (0 primary, 1 alternate) of the last server that answered.
func (f *Fetcher) Current() int { return int(f.current.Load()) }

// BaseURL returns the base URL of the current server.
func (f *Fetcher) BaseURL() string { return f.servers[f.Current()] }

// Fetch GETs path from the current server, trying the other server once on
// failure, and returns the body. The server that answered becomes current.
func (f *Fetcher) Fetch(ctx context.Context, path string) (string, error) {
	server := f.Current()

	var lastErr error
	for attempt := 0; attempt < len(f.servers); attempt++ {
		body, err := f.get(ctx, f.servers[server]+path)
		if err == nil {
			if prev := f.current.Swap(int32(server)); int(prev) != server {
				f.log.Infow("server_switched", "server", server, "url", f.servers[server])
			}
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}

		server = (server + 1) % len(f.servers)
		f.log.Debugw("fetch_failed_switching", "path", path, "next_server", server, "err", err)
		if attempt+1 < len(f.servers) {
			f.metrics.Failover()
		}
	}

	f.metrics.FetchFailed()
	return "", fmt.Errorf("%w: %s: %v", ErrNoServer, path, lastErr)
}

// get performs one request. Bad URLs, DNS failures, I/O errors, timeouts and
// non-2xx responses all count as failures.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request %q: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(b), nil
}

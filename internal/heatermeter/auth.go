package heatermeter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"pitwatch/internal/logger"
	"pitwatch/internal/metrics"
)

// Messages left for the consumer after a login attempt.
const (
	MsgAuthSucceeded = "Authentication succeeded"
	MsgAuthFailed    = "Authentication failed"
)

var (
	// ErrAuthRejected means the device answered without a session cookie,
	// i.e. the password is wrong.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrNotAuthenticated is returned by ChangeSetpoint without a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoPassword is returned by Login when no admin password is set.
	ErrNoPassword = errors.New("no admin password configured")
	// ErrPasswordChanged means SetPassword ran while the login was in flight;
	// the answer for the old password is discarded.
	ErrPasswordChanged = errors.New("password changed during login")
)

// Authenticator owns the device login session: password, sysauth cookie and
// stok URL token.
type Authenticator struct {
	fetcher *Fetcher
	client  *http.Client
	log     *logger.Logger
	metrics *metrics.Metrics

	mu            sync.Mutex
	password      string
	cookie        string
	token         string
	statusMessage string
}

// NewAuthenticator returns an unauthenticated session that logs in against
// the fetcher's current server.
func NewAuthenticator(f *Fetcher, password string, log *logger.Logger, m *metrics.Metrics) *Authenticator {
	if log == nil {
		log = logger.Nop()
	}
	client := newHTTPClient()
	// The login answer carries the cookie; following the redirect would lose it.
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Authenticator{
		fetcher:  f,
		client:   client,
		log:      log.Named("auth"),
		metrics:  m,
		password: password,
	}
}

// SetPassword replaces the admin password and drops any existing session.
func (a *Authenticator) SetPassword(password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.password = password
	a.cookie = ""
	a.token = ""
}

// IsAuthenticated reports whether a session cookie is held.
func (a *Authenticator) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cookie != ""
}

// NeedsLogin reports whether a password is set but no session exists yet.
func (a *Authenticator) NeedsLogin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.password != "" && a.cookie == ""
}

// TakeStatusMessage returns the pending one-shot status message and clears it.
func (a *Authenticator) TakeStatusMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	msg := a.statusMessage
	a.statusMessage = ""
	return msg
}

// Login posts the admin password. A response without Set-Cookie clears the
// password so it is not retried; transport errors leave everything as is.
// Results for a password replaced mid-flight are dropped.
func (a *Authenticator) Login(ctx context.Context) error {
	a.mu.Lock()
	password := a.password
	a.mu.Unlock()
	if password == "" {
		return ErrNoPassword
	}

	a.log.Debugw("auth_attempt", "server", a.fetcher.BaseURL())
	err := a.login(ctx, password)

	a.mu.Lock()
	defer a.mu.Unlock()
	if errors.Is(err, ErrPasswordChanged) {
		return err
	}
	if a.cookie != "" {
		a.statusMessage = MsgAuthSucceeded
	} else {
		a.statusMessage = MsgAuthFailed
	}
	return err
}

func (a *Authenticator) login(ctx context.Context, password string) error {
	body := "username=root&password=" + url.QueryEscape(password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.fetcher.BaseURL()+AuthPath, strings.NewReader(body))
	if err != nil {
		a.metrics.AuthAttempt("error")
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		a.metrics.AuthAttempt("error")
		a.log.Infow("auth_transport_error", "err", err)
		return fmt.Errorf("login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	values := resp.Header.Values("Set-Cookie")
	if len(values) == 0 {
		a.mu.Lock()
		current := a.password == password
		if current {
			a.password = ""
		}
		a.mu.Unlock()
		if !current {
			a.log.Infow("auth_result_discarded", "reason", "password changed")
			return ErrPasswordChanged
		}
		a.metrics.AuthAttempt("rejected")
		a.log.Infow("auth_rejected", "status", resp.StatusCode)
		return ErrAuthRejected
	}

	cookie, token := ParseSessionCookies(values)

	a.mu.Lock()
	if a.password != password {
		a.mu.Unlock()
		a.log.Infow("auth_result_discarded", "reason", "password changed")
		return ErrPasswordChanged
	}
	if cookie != "" {
		a.cookie = cookie
	}
	if token != "" {
		a.token = token
	}
	ok := a.cookie != ""
	a.mu.Unlock()

	if !ok {
		a.metrics.AuthAttempt("error")
		a.log.Infow("auth_cookie_missing", "set_cookie", values)
		return fmt.Errorf("login: no sysauth in Set-Cookie")
	}
	a.metrics.AuthAttempt("ok")
	a.log.Infow("auth_succeeded")
	return nil
}

// ParseSessionCookies extracts the sysauth cookie and stok token from
// Set-Cookie header values. Values are split on ';' then on the first '='.
func ParseSessionCookies(values []string) (cookie, token string) {
	for _, chunk := range strings.Split(strings.Join(values, ";"), ";") {
		key, value, found := strings.Cut(chunk, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "sysauth":
			cookie = strings.TrimSpace(value)
		case "stok":
			token = strings.TrimSpace(value)
		}
	}
	return cookie, token
}

// SetpointURL builds the token-scoped setpoint URL for base.
func SetpointURL(base, token string, setpoint int) string {
	u := base + "/luci"
	if token != "" {
		u += "/;stok=" + token
	}
	return u + "/admin/lm/set?sp=" + strconv.Itoa(setpoint)
}

// ChangeSetpoint asks the device to drive the pit to setpoint. Without a
// session it does nothing and returns ErrNotAuthenticated. Callers may ignore
// the error; the device state is observed through the next poll.
func (a *Authenticator) ChangeSetpoint(ctx context.Context, setpoint int) error {
	a.mu.Lock()
	cookie, token := a.cookie, a.token
	a.mu.Unlock()
	if cookie == "" {
		return ErrNotAuthenticated
	}

	target := SetpointURL(a.fetcher.BaseURL(), token, setpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		a.log.Errorw("setpoint_bad_url", "url", target, "err", err)
		return fmt.Errorf("build setpoint request: %w", err)
	}
	req.Header.Set("Cookie", "sysauth="+cookie)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Errorw("setpoint_failed", "setpoint", setpoint, "err", err)
		return fmt.Errorf("change setpoint: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	a.log.Infow("setpoint_sent", "setpoint", setpoint, "status", resp.StatusCode)
	return nil
}

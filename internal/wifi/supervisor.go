package wifi

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/Deadolus/tschenggins-laempli/internal/backend"
	"github.com/Deadolus/tschenggins-laempli/internal/station"
	"github.com/Deadolus/tschenggins-laempli/internal/status"
)

const (
	defaultLinkTimeout     = 30 * time.Second
	defaultReconnect       = 5 * time.Second
	defaultReconnectSlow   = 60 * time.Second
	defaultStableThreshold = 5 * time.Minute
	defaultYield           = 100 * time.Millisecond
	defaultBackoffStep     = time.Second
)

// Options configure a Supervisor. Station, Handler, Board and URL are
// required; zero timing fields fall back to the defaults above.
type Options struct {
	Station station.Station
	Handler backend.Handler
	Board   *status.Board

	// URL is the backend base URL. The per-connection query string is
	// appended to it before each bootstrap attempt.
	URL       string
	Query     backend.Query
	UserAgent string

	// LinkTimeout bounds the wait for the station link while OFFLINE.
	LinkTimeout time.Duration

	// Reconnect is the wait after losing a connection that had been up
	// for longer than StableThreshold. ReconnectSlow applies when the
	// connection failed again quickly.
	Reconnect       time.Duration
	ReconnectSlow   time.Duration
	StableThreshold time.Duration

	// Yield is the pause between state bodies, BackoffStep the countdown
	// granularity of the retry wait.
	Yield       time.Duration
	BackoffStep time.Duration

	// Resolver, HelloWait and HelloMax are passed through to the backend
	// client. Zero values use the client defaults.
	Resolver  backend.Resolver
	HelloWait time.Duration
	HelloMax  int

	// OnTransition, when set, is invoked synchronously after every state
	// change.
	OnTransition func(from, to State)
}

// Supervisor owns the connection lifecycle: it waits for the station
// link, bootstraps a backend session, pumps it until it ends and backs
// off before trying again. All of that happens on the goroutine that
// calls Run; State and MonStatus may be called from anywhere.
type Supervisor struct {
	station station.Station
	handler backend.Handler
	board   *status.Board

	url       string
	query     backend.Query
	userAgent string

	linkTimeout     time.Duration
	reconnect       time.Duration
	reconnectSlow   time.Duration
	stableThreshold time.Duration
	yield           time.Duration
	backoffStep     time.Duration

	resolver  backend.Resolver
	helloWait time.Duration
	helloMax  int

	onTransition func(from, to State)

	mu    sync.Mutex
	state State

	// Run goroutine only.
	staIP    netip.Addr
	lastFail time.Time
	sess     *backend.Session
}

// New builds a supervisor from o.
func New(o Options) (*Supervisor, error) {
	if o.Station == nil {
		return nil, errors.New("station is required")
	}
	if o.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if o.Board == nil {
		return nil, errors.New("status board is required")
	}
	if o.URL == "" {
		return nil, errors.New("backend URL is required")
	}
	s := &Supervisor{
		station:         o.Station,
		handler:         o.Handler,
		board:           o.Board,
		url:             o.URL,
		query:           o.Query,
		userAgent:       o.UserAgent,
		linkTimeout:     o.LinkTimeout,
		reconnect:       o.Reconnect,
		reconnectSlow:   o.ReconnectSlow,
		stableThreshold: o.StableThreshold,
		yield:           o.Yield,
		backoffStep:     o.BackoffStep,
		resolver:        o.Resolver,
		helloWait:       o.HelloWait,
		helloMax:        o.HelloMax,
		onTransition:    o.OnTransition,
		state:           StateOffline,
	}
	if s.linkTimeout <= 0 {
		s.linkTimeout = defaultLinkTimeout
	}
	if s.reconnect <= 0 {
		s.reconnect = defaultReconnect
	}
	if s.reconnectSlow <= 0 {
		s.reconnectSlow = defaultReconnectSlow
	}
	if s.stableThreshold <= 0 {
		s.stableThreshold = defaultStableThreshold
	}
	if s.yield <= 0 {
		s.yield = defaultYield
	}
	if s.backoffStep <= 0 {
		s.backoffStep = defaultBackoffStep
	}
	return s, nil
}

// State reports the supervisor's current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run drives the state machine until ctx is done. Each iteration executes
// one state body, records the resulting transition and yields briefly so
// that a misbehaving body cannot spin the loop hot.
func (s *Supervisor) Run(ctx context.Context) {
	slog.InfoContext(ctx, "supervisor starting", "url", s.url, "state", s.State())
	for ctx.Err() == nil {
		var next State
		switch s.State() {
		case StateOffline:
			next = s.runOffline(ctx)
		case StateOnline:
			next = s.runOnline(ctx)
		case StateConnected:
			next = s.runConnected(ctx)
		case StateFail:
			next = s.runFail(ctx)
		}
		if ctx.Err() != nil {
			break
		}
		s.setState(ctx, next)
		select {
		case <-ctx.Done():
		case <-time.After(s.yield):
		}
	}
	// A session bootstrapped just before shutdown never reached
	// runConnected; release it here.
	if s.sess != nil {
		s.handler.Disconnect()
		_ = s.sess.Close()
		s.sess = nil
	}
	slog.InfoContext(ctx, "supervisor stopped", "state", s.State())
}

func (s *Supervisor) setState(ctx context.Context, next State) {
	s.mu.Lock()
	from := s.state
	s.state = next
	s.mu.Unlock()
	if next == from {
		return
	}
	slog.InfoContext(ctx, "state change", "from", from, "to", next)
	if next == StateConnected {
		s.board.Play(status.NoiseOnline)
		s.board.SetLED(status.LEDHeartbeat)
	}
	if s.onTransition != nil {
		s.onTransition(from, next)
	}
}

// runOffline waits for the station link. Link up moves to ONLINE with the
// abort cue and the update LED; a timeout moves to FAIL.
func (s *Supervisor) runOffline(ctx context.Context) State {
	info, ok := station.WaitOnline(ctx, s.station, s.linkTimeout)
	if !ok {
		return StateFail
	}
	s.staIP = info.IP
	s.board.Play(status.NoiseAbort)
	s.board.SetLED(status.LEDUpdate)
	return StateOnline
}

// runOnline assembles the request URL for this attempt and bootstraps the
// backend connection.
func (s *Supervisor) runOnline(ctx context.Context) State {
	q := s.query
	q.IP = s.staIP
	parts, err := backend.SplitURL(s.url + "?" + q.Encode())
	if err != nil {
		slog.ErrorContext(ctx, "backend URL unusable", "url", s.url, "error", err)
		return StateFail
	}
	client := &backend.Client{
		Parts:     parts,
		Query:     parts.Query,
		UserAgent: s.userAgent,
		Resolver:  s.resolver,
		HelloWait: s.helloWait,
		HelloMax:  s.helloMax,
	}
	sess, err := client.Dial(ctx, s.handler)
	if err != nil {
		slog.WarnContext(ctx, "connect failed", "host", parts.Host, "port", parts.Port, "error", err)
		return StateFail
	}
	s.sess = sess
	return StateConnected
}

// runConnected pumps the session until it ends, then picks the next state:
// a lost link beats everything, a reconnect request skips the backoff.
func (s *Supervisor) runConnected(ctx context.Context) State {
	sess := s.sess
	s.sess = nil
	if sess == nil {
		return StateFail
	}
	start := time.Now()
	reconnect := sess.Pump(ctx)
	slog.InfoContext(ctx, "connection ended", "after", time.Since(start).Round(time.Millisecond), "reconnect", reconnect)
	if !station.IsOnline(s.station) {
		return StateOffline
	}
	if reconnect {
		return StateOnline
	}
	return StateFail
}

// runFail plays the failure cues, waits out the backoff and retries: back
// to ONLINE when the link is still up, to OFFLINE otherwise.
func (s *Supervisor) runFail(ctx context.Context) State {
	s.board.Play(status.NoiseFail)
	s.board.SetLED(status.LEDFail)

	wait := s.chooseBackoff(time.Now())
	slog.WarnContext(ctx, "backing off", "wait", wait)
	for remaining := wait; remaining > 0; remaining -= s.backoffStep {
		steps := int(remaining / s.backoffStep)
		if steps%10 == 0 || steps < 10 {
			slog.InfoContext(ctx, "retrying", "in", remaining)
		}
		if steps <= 3 {
			s.board.Play(status.NoiseTick)
		}
		select {
		case <-ctx.Done():
			return StateFail
		case <-time.After(s.backoffStep):
		}
	}

	if station.IsOnline(s.station) {
		return StateOnline
	}
	return StateOffline
}

// chooseBackoff picks the wait before the next attempt and records the
// failure time. A connection that lived past the stable threshold earns
// the short wait; failing again quickly earns the slow one.
func (s *Supervisor) chooseBackoff(now time.Time) time.Duration {
	wait := s.reconnectSlow
	if now.Sub(s.lastFail) > s.stableThreshold {
		wait = s.reconnect
	}
	s.lastFail = now
	return wait
}

// MonStatus logs a one-line summary of the link and the supervisor, in
// the spirit of the firmware's periodic status monitor.
func (s *Supervisor) MonStatus(ctx context.Context) {
	st, info := s.station.Status()
	hostname, _ := os.Hostname()
	slog.InfoContext(ctx, "status",
		"state", s.State(),
		"link", st,
		"ssid", info.SSID,
		"ip", info.IP,
		"mask", info.Netmask,
		"gw", info.Gateway,
		"mac", info.MAC,
		"hostname", hostname)
}

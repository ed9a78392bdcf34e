package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pitwatch"
	"pitwatch/internal/heatermeter"
	"pitwatch/internal/logger"
	"pitwatch/internal/metrics"
	"pitwatch/internal/repository"
	"pitwatch/internal/store"
)

// Reconciliation tuning.
const (
	// MaxIncrementalSamples forces a full history once the store grows past it.
	MaxIncrementalSamples = 500
	// StaleAfter forces a full history when no tick produced data for this long.
	StaleAfter = 5 * time.Second
	// MinHistoryInterval is the minimum spacing between full history fetches.
	MinHistoryInterval = 5 * time.Second

	cacheWriteTimeout = 5 * time.Second
)

// DeviceSession is the part of the authenticator the services use.
type DeviceSession interface {
	NeedsLogin() bool
	Login(ctx context.Context) error
	IsAuthenticated() bool
	TakeStatusMessage() string
	ChangeSetpoint(ctx context.Context, setpoint int) error
	SetPassword(password string)
}

// PollerDeps groups the collaborators of PollerService. History, Session,
// Events and Metrics are optional.
type PollerDeps struct {
	Source    heatermeter.Source
	Session   DeviceSession
	Store     *store.SampleStore
	Listeners *Listeners
	History   repository.HistoryRepo
	Events    EventLog
	Metrics   *metrics.Metrics
	Log       *logger.Logger
}

// PollerService fetches from the source and applies the result to the store.
// Poll is the worker half (network, parsing, login). Apply is the single
// point where the store changes and listeners are told about it.
type PollerService struct {
	source    heatermeter.Source
	session   DeviceSession
	store     *store.SampleStore
	listeners *Listeners
	history   repository.HistoryRepo
	events    EventLog
	metrics   *metrics.Metrics
	log       *logger.Logger

	// pollMu guards the reconciliation clock.
	pollMu      sync.Mutex
	lastUpdate  time.Time
	lastHistory time.Time
	lastKind    pitwatch.UpdateKind
	ticked      bool

	applyMu sync.Mutex
	snap    atomic.Pointer[Snapshot]
}

// Snapshot pairs the sample of a tick with the store state that tick left.
type Snapshot struct {
	Latest *pitwatch.NamedSample
	Store  store.View // without samples
}

func NewPollerService(d PollerDeps) *PollerService {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Listeners == nil {
		d.Listeners = NewListeners(d.Metrics)
	}
	return &PollerService{
		source:    d.Source,
		session:   d.Session,
		store:     d.Store,
		listeners: d.Listeners,
		history:   d.History,
		events:    d.Events,
		metrics:   d.Metrics,
		log:       d.Log.Named("poller"),
	}
}

// Seed fills the store from the history cache so consumers see the last known
// series before the first fetch. The next tick still fetches a full history.
func (p *PollerService) Seed(ctx context.Context) error {
	if p.history == nil {
		return nil
	}
	names, samples, err := p.history.Load(ctx)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	p.Apply(pitwatch.Update{Kind: pitwatch.HistoryUpdate, History: samples, ProbeNames: &names})
	p.log.Infow("store_seeded", "samples", len(samples))
	return nil
}

// Run ticks immediately and then at the given interval until ctx is
// canceled. Cancellation stops scheduling; a tick already in flight finishes
// within its own request timeouts.
func (p *PollerService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	p.Tick(context.WithoutCancel(ctx), time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			p.Tick(context.WithoutCancel(ctx), now)
		}
	}
}

// Tick runs one poll and applies it.
func (p *PollerService) Tick(ctx context.Context, now time.Time) *pitwatch.NamedSample {
	start := time.Now()
	u := p.Poll(ctx, now)
	latest := p.Apply(u)
	p.metrics.ObserveTick(u.Kind.String(), time.Since(start).Seconds())
	p.recordTransition(ctx, u)
	return latest
}

// shouldFetchHistory reports whether this tick resynchronizes the full history.
func (p *PollerService) shouldFetchHistory(now time.Time) bool {
	n := p.store.Len()
	resync := n == 0 || n > MaxIncrementalSamples || now.Sub(p.lastUpdate) > StaleAfter
	return resync && now.Sub(p.lastHistory) > MinHistoryInterval
}

// Poll decides between a full history and a status read and performs it. It
// never touches the store.
func (p *PollerService) Poll(ctx context.Context, now time.Time) pitwatch.Update {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	var u pitwatch.Update
	if p.shouldFetchHistory(now) {
		p.lastHistory = now
		u = p.pollHistory(ctx)
	} else {
		u = p.pollStatus(ctx)
	}

	if u.Kind == pitwatch.NoData {
		return u
	}
	p.lastUpdate = now

	if p.session != nil && p.session.NeedsLogin() {
		p.login(ctx)
	}
	return u
}

func (p *PollerService) pollHistory(ctx context.Context) pitwatch.Update {
	history, names, err := p.source.FetchHistory(ctx)
	if err != nil {
		p.metrics.FetchFailed()
		p.log.Warnw("history_fetch_failed", "err", err)
		return pitwatch.Update{Kind: pitwatch.NoData}
	}
	// An empty history would leave the store empty after a successful fetch.
	if len(history) == 0 {
		p.log.Infow("history_empty")
		return pitwatch.Update{Kind: pitwatch.NoData}
	}
	p.cacheHistory(ctx, history, names)
	return pitwatch.Update{Kind: pitwatch.HistoryUpdate, History: history, ProbeNames: names}
}

func (p *PollerService) pollStatus(ctx context.Context) pitwatch.Update {
	status, err := p.source.FetchStatus(ctx)
	if err != nil {
		p.metrics.FetchFailed()
		p.log.Warnw("status_fetch_failed", "err", err)
		return pitwatch.Update{Kind: pitwatch.NoData}
	}
	return pitwatch.Update{Kind: pitwatch.StatusUpdate, Status: status}
}

// cacheHistory writes the fetched history to the cache. Names from the source
// win; otherwise the names the store already knows are kept.
func (p *PollerService) cacheHistory(ctx context.Context, history []pitwatch.Sample, names *[pitwatch.NumProbes]string) {
	if p.history == nil {
		return
	}
	n := p.store.ProbeNames()
	if names != nil {
		n = *names
	}
	ctx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()
	if err := p.history.Save(ctx, n, history); err != nil {
		p.log.Errorw("history_cache_failed", "err", err)
	}
}

func (p *PollerService) login(ctx context.Context) {
	err := p.session.Login(ctx)
	switch {
	case err == nil:
		p.record(ctx, pitwatch.EventAuth, heatermeter.MsgAuthSucceeded, nil)
	case errors.Is(err, heatermeter.ErrAuthRejected):
		p.record(ctx, pitwatch.EventAuth, heatermeter.MsgAuthFailed, nil)
	default:
		// Transport trouble; the next tick with data retries.
		p.log.Infow("login_deferred", "err", err)
	}
}

// Apply mutates the store according to u and notifies listeners, all under
// one lock so no consumer observes a half-applied tick.
func (p *PollerService) Apply(u pitwatch.Update) *pitwatch.NamedSample {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	var latest *pitwatch.NamedSample
	switch u.Kind {
	case pitwatch.HistoryUpdate:
		latest = p.store.ReplaceHistory(u.History, u.ProbeNames)
	case pitwatch.StatusUpdate:
		latest, _ = p.store.AddStatus(u.Status)
	}
	view := p.store.Summary()
	p.snap.Store(&Snapshot{Latest: latest, Store: view})
	p.metrics.SetStoreSamples(p.store.Len())

	p.listeners.Notify(latest)
	return latest
}

// Latest returns the sample of the last applied tick, nil when it had no data.
func (p *PollerService) Latest() *pitwatch.NamedSample {
	if snap := p.snap.Load(); snap != nil {
		return snap.Latest
	}
	return nil
}

// Snapshot returns the last applied tick. Before the first one it reports
// the store as it is.
func (p *PollerService) Snapshot() Snapshot {
	if snap := p.snap.Load(); snap != nil {
		return *snap
	}
	return Snapshot{Store: p.store.Summary()}
}

// recordTransition logs resyncs and connection changes, not every tick.
func (p *PollerService) recordTransition(ctx context.Context, u pitwatch.Update) {
	p.pollMu.Lock()
	prev, first := p.lastKind, !p.ticked
	p.lastKind, p.ticked = u.Kind, true
	p.pollMu.Unlock()

	switch u.Kind {
	case pitwatch.HistoryUpdate:
		p.record(ctx, pitwatch.EventSync, "history synchronized", map[string]any{"samples": len(u.History)})
	case pitwatch.NoData:
		if first || prev != pitwatch.NoData {
			p.record(ctx, pitwatch.EventNoData, "no data from server", nil)
		}
	case pitwatch.StatusUpdate:
		if !first && prev == pitwatch.NoData {
			p.record(ctx, pitwatch.EventStatus, "connection restored", map[string]any{"time": u.Status.Time})
		}
	}
}

func (p *PollerService) record(ctx context.Context, typ, description string, meta any) {
	if p.events == nil {
		return
	}
	p.events.Record(ctx, typ, description, meta)
}

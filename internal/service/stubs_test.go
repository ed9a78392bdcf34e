package service

import (
	"context"
	"sync"
	"time"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/store"
)

func mkSample(t int64, probes ...float64) pitwatch.Sample {
	s := pitwatch.NewSample()
	s.Time = t
	s.SetPoint = 225
	copy(s.Probes[:], probes)
	return s
}

func mkNamed(t int64, probes ...float64) *pitwatch.NamedSample {
	ns := pitwatch.NewNamedSample(mkSample(t, probes...))
	ns.ProbeNames = [pitwatch.NumProbes]string{"Pit", "Food 1", "Food 2", "Ambient"}
	return ns
}

// fakeSource is a scripted heatermeter.Source.
type fakeSource struct {
	mu sync.Mutex

	history    []pitwatch.Sample
	names      *[pitwatch.NumProbes]string
	historyErr error
	status     *pitwatch.NamedSample
	statusErr  error

	historyCalls int
	statusCalls  int
}

func (f *fakeSource) FetchHistory(context.Context) ([]pitwatch.Sample, *[pitwatch.NumProbes]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, nil, f.historyErr
	}
	out := make([]pitwatch.Sample, len(f.history))
	copy(out, f.history)
	return out, f.names, nil
}

func (f *fakeSource) FetchStatus(context.Context) (*pitwatch.NamedSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeSource) calls() (history, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyCalls, f.statusCalls
}

// fakeSession is a scripted DeviceSession.
type fakeSession struct {
	mu sync.Mutex

	needsLogin    bool
	loginErr      error
	authenticated bool
	message       string
	setpointErr   error

	loginCalls int
	setpoints  []int
	password   string
}

func (f *fakeSession) NeedsLogin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.needsLogin
}

func (f *fakeSession) Login(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr == nil {
		f.needsLogin = false
		f.authenticated = true
		f.message = "Authentication succeeded"
	}
	return f.loginErr
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeSession) TakeStatusMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.message
	f.message = ""
	return m
}

func (f *fakeSession) ChangeSetpoint(_ context.Context, sp int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setpointErr != nil {
		return f.setpointErr
	}
	f.setpoints = append(f.setpoints, sp)
	return nil
}

func (f *fakeSession) SetPassword(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = p
	f.needsLogin = p != ""
	f.authenticated = false
}

// fakeHistoryRepo keeps the last saved history in memory.
type fakeHistoryRepo struct {
	mu sync.Mutex

	names   [pitwatch.NumProbes]string
	samples []pitwatch.Sample
	saveErr error
	loadErr error
	saves   int
}

func (f *fakeHistoryRepo) Save(_ context.Context, names [pitwatch.NumProbes]string, samples []pitwatch.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.names = names
	f.samples = append([]pitwatch.Sample(nil), samples...)
	return nil
}

func (f *fakeHistoryRepo) Load(context.Context) ([pitwatch.NumProbes]string, []pitwatch.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names, f.samples, f.loadErr
}

// fakeEvents records events in memory.
type fakeEvents struct {
	mu     sync.Mutex
	events []pitwatch.Event
}

func (f *fakeEvents) List(context.Context, LogFilter) ([]pitwatch.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pitwatch.Event(nil), f.events...), nil
}

func (f *fakeEvents) Record(_ context.Context, typ, description string, meta any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pitwatch.Event{
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

// fakeAlarmRepo keeps alarm settings in memory.
type fakeAlarmRepo struct {
	mu       sync.Mutex
	settings alarm.Settings
	found    bool
	saveErr  error
	loadErr  error
}

func (f *fakeAlarmRepo) Save(_ context.Context, s alarm.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.settings, f.found = s, true
	return nil
}

func (f *fakeAlarmRepo) Load(context.Context) (alarm.Settings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return alarm.DefaultSettings(), false, f.loadErr
	}
	if !f.found {
		return alarm.DefaultSettings(), false, nil
	}
	return f.settings, true, nil
}

// staticLatest is a latestSource with a fixed sample.
type staticLatest struct{ sample *pitwatch.NamedSample }

func (s staticLatest) Latest() *pitwatch.NamedSample { return s.sample }

// storeSnapshot is a snapshotSource reading st on every call.
type storeSnapshot struct {
	st     *store.SampleStore
	latest *pitwatch.NamedSample
}

func (s storeSnapshot) Snapshot() Snapshot {
	return Snapshot{Latest: s.latest, Store: s.st.Summary()}
}

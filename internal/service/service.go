package service

import (
	"context"
	"io"
	"time"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/heatermeter"
	"pitwatch/internal/logger"
	"pitwatch/internal/metrics"
	"pitwatch/internal/repository"
	"pitwatch/internal/store"
)

// Authorization manages the operator account and its bearer tokens.
type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (Operator, error)
}

// Monitoring exposes read-only views of the store and the latest sample.
type Monitoring interface {
	Status(ctx context.Context) StatusView
	Samples(ctx context.Context) SamplesView
	ExportCSV(w io.Writer) error
	ExportXLSX(w io.Writer) error
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]pitwatch.Event, error)
	Record(ctx context.Context, typ, description string, meta any)
}

// Poller drives the reconciliation loop. Stop via context cancellation in
// main() for graceful shutdown.
type Poller interface {
	Seed(ctx context.Context) error
	Run(ctx context.Context, interval time.Duration)
	Latest() *pitwatch.NamedSample
}

// Alarms manages the per-probe thresholds and the background check.
type Alarms interface {
	Load(ctx context.Context) error
	Get() AlarmView
	Update(ctx context.Context, s alarm.Settings) (AlarmView, error)
	Check() alarm.Report
	Run(ctx context.Context, interval time.Duration)
	Engine() alarm.Engine
}

// Setpoint forwards setpoint changes to the device.
type Setpoint interface {
	ChangeSetpoint(ctx context.Context, setpoint int) error
	SetDevicePassword(ctx context.Context, password string) error
}

// Subscriptions registers consumers of the latest sample.
type Subscriptions interface {
	Subscribe(l Listener) int
	Unsubscribe(id int)
}

// Service aggregates all sub-services.
type Service struct {
	Monitoring
	EventLog
	Poller
	Alarms
	Setpoint
	Subscriptions
	Authorization
}

// Options carries the runtime settings the services need.
type Options struct {
	AlarmSettings         alarm.Settings
	AlarmOnLostConnection bool
	AlwaysSoundAlarm      bool
	SigningKey            string
}

// Deps are the collaborators built in main().
type Deps struct {
	Repos   *repository.Repository
	Store   *store.SampleStore
	Source  heatermeter.Source
	Auth    *heatermeter.Authenticator // nil in saved-history mode
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// NewService wires the repository layer and device clients into concrete services.
func NewService(d Deps, opts Options) *Service {
	if d.Log == nil {
		d.Log = logger.Nop()
	}

	events := NewEventLogService(d.Repos.EventRepo, d.Log)
	listeners := NewListeners(d.Metrics)

	var session DeviceSession
	if d.Auth != nil {
		session = d.Auth
	}

	poller := NewPollerService(PollerDeps{
		Source:    d.Source,
		Session:   session,
		Store:     d.Store,
		Listeners: listeners,
		History:   d.Repos.HistoryRepo,
		Events:    events,
		Metrics:   d.Metrics,
		Log:       d.Log,
	})
	alarms := NewAlarmService(d.Repos.AlarmRepo, poller, events, d.Metrics, d.Log, opts)

	return &Service{
		Monitoring:    NewMonitoringService(d.Store, poller, alarms, session),
		EventLog:      events,
		Poller:        poller,
		Alarms:        alarms,
		Setpoint:      NewSetpointService(session, events, d.Log),
		Subscriptions: listeners,
		Authorization: NewAuthService(d.Repos.Auth, opts.SigningKey, d.Log),
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/logger"
	"pitwatch/internal/metrics"
	"pitwatch/internal/repository"
)

// AlarmService owns the active thresholds and the background alarm check.
type AlarmService struct {
	repo    repository.AlarmRepo
	latest  latestSource
	events  EventLog
	metrics *metrics.Metrics
	log     *logger.Logger

	alarmOnLostConnection bool
	alwaysSound           bool

	mu     sync.RWMutex
	engine alarm.Engine
}

func NewAlarmService(repo repository.AlarmRepo, latest latestSource, events EventLog, m *metrics.Metrics, log *logger.Logger, opts Options) *AlarmService {
	if log == nil {
		log = logger.Nop()
	}
	return &AlarmService{
		repo:                  repo,
		latest:                latest,
		events:                events,
		metrics:               m,
		log:                   log.Named("alarms"),
		alarmOnLostConnection: opts.AlarmOnLostConnection,
		alwaysSound:           opts.AlwaysSoundAlarm,
		engine:                alarm.NewEngine(opts.AlarmSettings),
	}
}

// Load replaces the configured thresholds with persisted ones, if any.
func (s *AlarmService) Load(ctx context.Context) error {
	settings, found, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	s.engine = alarm.NewEngine(settings)
	s.mu.Unlock()
	s.log.Infow("alarms_loaded", "lo", settings.Lo, "hi", settings.Hi)
	return nil
}

func (s *AlarmService) Engine() alarm.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *AlarmService) Get() AlarmView {
	return newAlarmView(s.Engine())
}

// Update persists settings and makes them active.
func (s *AlarmService) Update(ctx context.Context, settings alarm.Settings) (AlarmView, error) {
	if err := s.repo.Save(ctx, settings); err != nil {
		return AlarmView{}, fmt.Errorf("save alarms: %w", err)
	}
	e := alarm.NewEngine(settings)
	s.mu.Lock()
	s.engine = e
	s.mu.Unlock()
	if s.events != nil {
		s.events.Record(ctx, pitwatch.EventAlarm, "alarm thresholds updated",
			operatorMeta(ctx, map[string]any{"lo": settings.Lo, "hi": settings.Hi}))
	}
	return newAlarmView(e), nil
}

// Check evaluates the current thresholds against the latest sample.
func (s *AlarmService) Check() alarm.Report {
	return s.Engine().Check(s.latest.Latest(), s.alarmOnLostConnection)
}

// Run checks alarms at the given interval until ctx is canceled. Nothing is
// checked while every alarm is disabled.
func (s *AlarmService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.checkOnce(ctx)
		}
	}
}

func (s *AlarmService) checkOnce(ctx context.Context) {
	if !s.Engine().HasAnyEnabled() {
		return
	}
	report := s.Check()
	if !report.Triggered {
		s.log.Debugw("alarm_check_clear", "status", alarm.StatusLine(s.latest.Latest()))
		return
	}

	s.metrics.AlarmTriggered()
	sound := alarm.ShouldSound(false, s.alwaysSound)
	s.log.Warnw("alarm_triggered", "text", report.Text, "sound", sound)
	if s.events != nil {
		s.events.Record(ctx, pitwatch.EventAlarm, report.Text, map[string]any{"sound": sound})
	}
}

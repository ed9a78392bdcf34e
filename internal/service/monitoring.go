package service

import (
	"context"
	"io"
	"math"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/export"
	"pitwatch/internal/parser"
	"pitwatch/internal/store"
)

// latestSource yields the sample of the last applied tick.
type latestSource interface {
	Latest() *pitwatch.NamedSample
}

// snapshotSource yields the last applied tick with the store state it left.
type snapshotSource interface {
	Snapshot() Snapshot
}

// engineSource yields the current alarm thresholds.
type engineSource interface {
	Engine() alarm.Engine
}

type MonitoringService struct {
	store   *store.SampleStore
	ticks   snapshotSource
	alarms  engineSource
	session DeviceSession // nil without a device login
}

func NewMonitoringService(st *store.SampleStore, ticks snapshotSource, alarms engineSource, session DeviceSession) *MonitoringService {
	return &MonitoringService{store: st, ticks: ticks, alarms: alarms, session: session}
}

// Status returns the latest sample with alarm and rate texts per probe. The
// pending auth status message is consumed by this call. Sample and store
// fields always come from the same tick.
func (s *MonitoringService) Status(ctx context.Context) StatusView {
	snap := s.ticks.Snapshot()
	latest, view := snap.Latest, snap.Store
	engine := s.alarms.Engine()

	out := StatusView{
		Connected:  latest != nil,
		Latest:     latest,
		StatusLine: alarm.StatusLine(latest),
		Range:      view.Range,
		MinTime:    view.MinTime,
		MaxTime:    view.MaxTime,
	}

	for p := 0; p < pitwatch.NumProbes; p++ {
		ps := ProbeStatus{Name: view.ProbeNames[p]}
		if latest != nil {
			t := latest.Probes[p]
			ps.Name = latest.ProbeNames[p]
			ps.Connected = !math.IsNaN(t)
			if ps.Connected {
				ps.Temperature = &t
				if view.Range.Max > view.Range.Min {
					pos := view.Range.Normalize(t)
					ps.Position = &pos
				}
			}
			ps.AlarmText = engine.FormatAlarm(p, t)
			if txt, ok := engine.RateOfChangeText(p, latest.DegreesPerHour[p], t); ok {
				ps.RateText = txt
			}
		}
		out.Probes[p] = ps
	}

	if s.session != nil {
		out.Authenticated = s.session.IsAuthenticated()
		out.StatusMessage = s.session.TakeStatusMessage()
	}
	return out
}

// Samples returns the ordered series with its derived bounds.
func (s *MonitoringService) Samples(ctx context.Context) SamplesView {
	v := s.store.View()
	return SamplesView{
		Samples:    v.Samples,
		ProbeNames: v.ProbeNames,
		Range:      v.Range,
		MinTime:    v.MinTime,
		MaxTime:    v.MaxTime,
	}
}

// ExportCSV writes the series in the saved-history format, which the
// saved-history source reads back.
func (s *MonitoringService) ExportCSV(w io.Writer) error {
	v := s.store.View()
	return parser.WriteSavedHistory(w, v.ProbeNames, v.Samples)
}

// ExportXLSX writes the series as a spreadsheet.
func (s *MonitoringService) ExportXLSX(w io.Writer) error {
	v := s.store.View()
	return export.WriteXLSX(w, v.ProbeNames, v.Samples)
}

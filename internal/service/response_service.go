package service

import (
	"time"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/store"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SYNC", "STATUS", "NO_DATA", "AUTH", "SETPOINT", "ALARM"
}

// ProbeStatus is the derived display state of one probe.
type ProbeStatus struct {
	Name        string   `json:"name"`
	Temperature *float64 `json:"temperature"`
	Connected   bool     `json:"connected"`
	// Position is the temperature as a 0..1 fraction of the display range.
	Position  *float64 `json:"position,omitempty"`
	AlarmText string   `json:"alarm_text,omitempty"`
	RateText  string   `json:"rate_text,omitempty"`
}

// StatusView is the latest sample with everything derived from it.
type StatusView struct {
	Connected     bool                            `json:"connected"`
	Latest        *pitwatch.NamedSample           `json:"latest"`
	Probes        [pitwatch.NumProbes]ProbeStatus `json:"probes"`
	StatusLine    string                          `json:"status_line"`
	Range         store.Range                     `json:"range"`
	MinTime       int64                           `json:"min_time"`
	MaxTime       int64                           `json:"max_time"`
	Authenticated bool                            `json:"authenticated"`
	// StatusMessage is a one-shot auth result; it is returned once.
	StatusMessage string `json:"status_message,omitempty"`
}

// SamplesView is the full ordered series.
type SamplesView struct {
	Samples    []pitwatch.Sample          `json:"samples"`
	ProbeNames [pitwatch.NumProbes]string `json:"probe_names"`
	Range      store.Range                `json:"range"`
	MinTime    int64                      `json:"min_time"`
	MaxTime    int64                      `json:"max_time"`
}

// AlarmView exposes both the packed and the decoded thresholds.
type AlarmView struct {
	Settings  alarm.Settings                  `json:"settings"`
	Lo        [pitwatch.NumProbes]alarm.Bound `json:"lo"`
	Hi        [pitwatch.NumProbes]alarm.Bound `json:"hi"`
	HasAlarms bool                            `json:"has_alarms"`
}

func newAlarmView(e alarm.Engine) AlarmView {
	v := AlarmView{Settings: e.Settings(), HasAlarms: e.HasAnyEnabled()}
	for p := 0; p < pitwatch.NumProbes; p++ {
		v.Lo[p] = e.Lo(p)
		v.Hi[p] = e.Hi(p)
	}
	return v
}

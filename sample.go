package pitwatch

import (
	"encoding/json"
	"math"
	"time"
)

// NumProbes is the fixed number of probe channels on a HeaterMeter (pit + 3 food).
const NumProbes = 4

// Event types recorded in the event log.
const (
	EventSync     = "SYNC"     // full history replaced the store
	EventStatus   = "STATUS"   // first status sample after a gap
	EventNoData   = "NO_DATA"  // tick without data
	EventAuth     = "AUTH"     // login attempt result
	EventSetpoint = "SETPOINT" // setpoint change sent to the device
	EventAlarm    = "ALARM"    // alarm check triggered or thresholds changed
)

// EventTypes lists every type the event log records.
var EventTypes = []string{EventSync, EventStatus, EventNoData, EventAuth, EventSetpoint, EventAlarm}

// Sample is a single reading from the controller.
type Sample struct {
	Time     int64              `json:"time"`      // unix seconds
	FanSpeed float64            `json:"fan_speed"` // percent 0..100
	LidOpen  float64            `json:"lid_open"`  // 0 or 1, interpolated in between
	SetPoint float64            `json:"set_point"` // NaN when absent
	Probes   [NumProbes]float64 `json:"probes"`    // NaN when disconnected
}

// NewSample returns a sample with no setpoint and every probe disconnected.
func NewSample() Sample {
	s := Sample{SetPoint: math.NaN()}
	for p := range s.Probes {
		s.Probes[p] = math.NaN()
	}
	return s
}

// MarshalJSON renders NaN readings as null.
func (s Sample) MarshalJSON() ([]byte, error) {
	probes := make([]*float64, NumProbes)
	for p, v := range s.Probes {
		probes[p] = nullable(v)
	}
	return json.Marshal(struct {
		Time     int64      `json:"time"`
		FanSpeed float64    `json:"fan_speed"`
		LidOpen  float64    `json:"lid_open"`
		SetPoint *float64   `json:"set_point"`
		Probes   []*float64 `json:"probes"`
	}{
		Time:     s.Time,
		FanSpeed: s.FanSpeed,
		LidOpen:  s.LidOpen,
		SetPoint: nullable(s.SetPoint),
		Probes:   probes,
	})
}

// NamedSample is the latest sample together with probe names and rates.
type NamedSample struct {
	Sample
	ProbeNames     [NumProbes]string  `json:"probe_names"`
	DegreesPerHour [NumProbes]float64 `json:"degrees_per_hour"`
}

// NewNamedSample wraps s with empty names and zero rates.
func NewNamedSample(s Sample) *NamedSample {
	return &NamedSample{Sample: s}
}

// MarshalJSON keeps the embedded sample's null handling.
func (n NamedSample) MarshalJSON() ([]byte, error) {
	base, err := n.Sample.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	fields["probe_names"] = n.ProbeNames
	fields["degrees_per_hour"] = n.DegreesPerHour
	return json.Marshal(fields)
}

// UpdateKind tags what a poll tick produced.
type UpdateKind int

const (
	NoData UpdateKind = iota
	StatusUpdate
	HistoryUpdate
)

func (k UpdateKind) String() string {
	switch k {
	case StatusUpdate:
		return "status"
	case HistoryUpdate:
		return "history"
	default:
		return "no_data"
	}
}

// Update is the result of one poll tick, consumed by the apply step.
type Update struct {
	Kind    UpdateKind
	Status  *NamedSample // set for StatusUpdate
	History []Sample     // set for HistoryUpdate
	// ProbeNames is set when the history source knows probe names (saved histories do).
	ProbeNames *[NumProbes]string
}

// Event is a single log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // SYNC | STATUS | NO_DATA | AUTH | SETPOINT | ALARM
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// User is a local API account.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

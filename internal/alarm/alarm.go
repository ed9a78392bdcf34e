// Package alarm decodes the packed per-probe alarm thresholds and derives the
// alarm, rate-of-change and status texts shown to consumers.
package alarm

import (
	"fmt"
	"math"
	"strings"

	"pitwatch"
)

// Default packed thresholds: both disabled, magnitudes kept for when the user
// enables them.
const (
	DefaultLo = -70
	DefaultHi = -200
)

// MinRateForDisplay suppresses rate-of-change text below this many degrees per hour.
const MinRateForDisplay = 1.0

// NoServerText is reported when a tick produced no sample.
const NoServerText = "No connection to server"

// Bound is one decoded threshold.
type Bound struct {
	Enabled bool `json:"enabled"`
	Value   int  `json:"value"`
}

// Decode unpacks a stored threshold. Positive means enabled; the magnitude is
// the threshold either way.
func Decode(packed int) Bound {
	if packed > 0 {
		return Bound{Enabled: true, Value: packed}
	}
	return Bound{Enabled: false, Value: -packed}
}

// Encode packs b back into the stored form. Decode(Encode(b)) == b for any
// enabled bound with a positive value and for every disabled bound.
func Encode(b Bound) int {
	v := b.Value
	if v < 0 {
		v = -v
	}
	if b.Enabled {
		return v
	}
	return -v
}

// Settings holds the packed lo/hi thresholds for every probe.
type Settings struct {
	Lo [pitwatch.NumProbes]int `json:"lo"`
	Hi [pitwatch.NumProbes]int `json:"hi"`
}

// DefaultSettings returns every probe with both bounds disabled.
func DefaultSettings() Settings {
	var s Settings
	for p := 0; p < pitwatch.NumProbes; p++ {
		s.Lo[p] = DefaultLo
		s.Hi[p] = DefaultHi
	}
	return s
}

// Engine evaluates alarms for a fixed set of thresholds. It is a value type;
// replace it wholesale when settings change.
type Engine struct {
	settings Settings
}

// NewEngine returns an engine for s.
func NewEngine(s Settings) Engine {
	return Engine{settings: s}
}

// Settings returns the packed thresholds the engine evaluates.
func (e Engine) Settings() Settings { return e.settings }

// Lo returns the decoded low bound of probe p.
func (e Engine) Lo(p int) Bound { return Decode(e.settings.Lo[p]) }

// Hi returns the decoded high bound of probe p.
func (e Engine) Hi(p int) Bound { return Decode(e.settings.Hi[p]) }

// HasAnyEnabled reports whether any probe has a bound enabled.
func (e Engine) HasAnyEnabled() bool {
	for p := 0; p < pitwatch.NumProbes; p++ {
		if e.Lo(p).Enabled || e.Hi(p).Enabled {
			return true
		}
	}
	return false
}

// FormatAlarm returns the text for a triggered alarm on probe p, or "" when
// nothing triggered. A disconnected probe with an alarm set reports "off".
func (e Engine) FormatAlarm(p int, temperature float64) string {
	lo, hi := e.Lo(p), e.Hi(p)

	switch {
	case (lo.Enabled || hi.Enabled) && math.IsNaN(temperature):
		return "off"
	case lo.Enabled && temperature < float64(lo.Value):
		return FormatTemperature(float64(lo.Value)-temperature) + " below alarm point"
	case hi.Enabled && temperature > float64(hi.Value):
		return FormatTemperature(temperature-float64(hi.Value)) + " above alarm point"
	}
	return ""
}

// RateOfChangeText formats the rate for probe p. ok is false when the rate is
// too small to be meaningful. A time-to-alarm estimate is appended when the
// high alarm is enabled, current is a real reading and the alarm is still ahead.
func (e Engine) RateOfChangeText(p int, degreesPerHour, current float64) (text string, ok bool) {
	if !(degreesPerHour >= MinRateForDisplay) {
		return "", false
	}

	text = fmt.Sprintf("%.1f°/hr", degreesPerHour)

	hi := e.Hi(p)
	if hi.Enabled && !math.IsNaN(current) {
		minutes := int((float64(hi.Value) - current) / degreesPerHour * 60)
		if minutes > 0 {
			text += fmt.Sprintf(", %d:%02d to %d°", minutes/60, minutes%60, hi.Value)
		}
	}
	return text, true
}

// FormatTemperature renders t with one decimal and a degree sign.
func FormatTemperature(t float64) string {
	return fmt.Sprintf("%.1f°", t)
}

// Report is the outcome of a background alarm check.
type Report struct {
	Triggered bool   `json:"triggered"`
	Text      string `json:"text"`
}

// Check evaluates every probe of latest. A nil sample means the server could
// not be reached, which triggers only when alarmOnLostConnection is set.
func (e Engine) Check(latest *pitwatch.NamedSample, alarmOnLostConnection bool) Report {
	if latest == nil {
		return Report{Triggered: alarmOnLostConnection, Text: NoServerText}
	}

	var lines []string
	for p := 0; p < pitwatch.NumProbes; p++ {
		if txt := e.FormatAlarm(p, latest.Probes[p]); txt != "" {
			lines = append(lines, strings.TrimSpace(latest.ProbeNames[p]+" "+txt))
		}
	}
	return Report{Triggered: len(lines) > 0, Text: strings.Join(lines, "\n")}
}

// StatusLine lists the connected probes of latest as "name: temp°" pairs.
func StatusLine(latest *pitwatch.NamedSample) string {
	if latest == nil {
		return NoServerText
	}
	var parts []string
	for p := 0; p < pitwatch.NumProbes; p++ {
		if math.IsNaN(latest.Probes[p]) {
			continue
		}
		parts = append(parts, latest.ProbeNames[p]+": "+FormatTemperature(latest.Probes[p]))
	}
	return strings.Join(parts, " ")
}

// ShouldSound reports whether a triggered alarm should play a sound.
func ShouldSound(silentMode, alwaysSound bool) bool {
	return !silentMode || alwaysSound
}

// Package parser turns raw HeaterMeter responses into samples.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"pitwatch"
)

// ErrMalformedStatus is returned for status documents that are not usable.
var ErrMalformedStatus = errors.New("malformed status")

type statusProbe struct {
	Name *string  `json:"n"`
	Temp *float64 `json:"c"`
	DPH  *float64 `json:"dph"`
}

type statusFan struct {
	Current *float64 `json:"c"`
}

type statusDocument struct {
	Time  *int64        `json:"time"`
	Set   *float64      `json:"set"`
	Fan   *statusFan    `json:"fan"`
	Lid   *float64      `json:"lid"`
	Temps []statusProbe `json:"temps"`
}

// ParseStatus parses the /luci/lm/hmstatus document. It returns either a
// complete sample or an error, never a partially filled sample.
func ParseStatus(raw string) (*pitwatch.NamedSample, error) {
	var doc statusDocument
	if err := json.NewDecoder(strings.NewReader(raw)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}

	switch {
	case doc.Time == nil:
		return nil, fmt.Errorf("%w: missing time", ErrMalformedStatus)
	case doc.Fan == nil || doc.Fan.Current == nil:
		return nil, fmt.Errorf("%w: missing fan.c", ErrMalformedStatus)
	case doc.Lid == nil:
		return nil, fmt.Errorf("%w: missing lid", ErrMalformedStatus)
	case len(doc.Temps) > pitwatch.NumProbes:
		return nil, fmt.Errorf("%w: %d temps, at most %d supported", ErrMalformedStatus, len(doc.Temps), pitwatch.NumProbes)
	}

	sample := pitwatch.NewNamedSample(pitwatch.NewSample())
	sample.Time = *doc.Time
	sample.FanSpeed = *doc.Fan.Current
	sample.LidOpen = *doc.Lid
	if doc.Set != nil {
		sample.SetPoint = *doc.Set
	}

	for i, probe := range doc.Temps {
		if probe.Name == nil {
			return nil, fmt.Errorf("%w: temps[%d] missing name", ErrMalformedStatus, i)
		}
		sample.ProbeNames[i] = *probe.Name

		sample.Probes[i] = math.NaN()
		if probe.Temp != nil {
			sample.Probes[i] = *probe.Temp
		}
		if probe.DPH != nil {
			sample.DegreesPerHour[i] = *probe.DPH
		}
	}

	return sample, nil
}

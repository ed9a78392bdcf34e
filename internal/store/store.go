// Package store holds the in-memory sample series and the values derived from it.
package store

import (
	"encoding/json"
	"math"
	"sync"

	"pitwatch"
)

// Range is the display range of temperatures seen so far.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Empty reports whether no temperature has widened the range yet.
func (r Range) Empty() bool { return r.Min > r.Max }

// MarshalJSON renders an empty range as nulls.
func (r Range) MarshalJSON() ([]byte, error) {
	if r.Empty() {
		return []byte(`{"min":null,"max":null}`), nil
	}
	type plain Range
	return json.Marshal(plain(r))
}

// Normalize maps temperature into 0..1 over r.
func (r Range) Normalize(temperature float64) float64 {
	return (temperature - r.Min) / (r.Max - r.Min)
}

func emptyRange() Range { return Range{Min: math.Inf(1), Max: math.Inf(-1)} }

// widen grows r to include temp rounded outward to a multiple of 10 with at
// least 1 degree of headroom.
func (r *Range) widen(temp float64) {
	roundedUp := math.Ceil((temp+5.0)/10.0) * 10.0
	roundedDown := math.Floor((temp-5.0)/10.0) * 10.0

	r.Min = math.Min(r.Min, roundedDown)
	r.Max = math.Max(r.Max, roundedUp)
}

func (r *Range) widenSample(s pitwatch.Sample) {
	if isReading(s.SetPoint) {
		r.widen(s.SetPoint)
	}
	for _, p := range s.Probes {
		if isReading(p) {
			r.widen(p)
		}
	}
}

func isReading(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// SampleStore is the ordered sample series. Mutations come from a single
// writer; readers may call any method concurrently.
type SampleStore struct {
	mu             sync.RWMutex
	samples        []pitwatch.Sample
	rng            Range
	newestTime     int64
	probeNames     [pitwatch.NumProbes]string
	degreesPerHour [pitwatch.NumProbes]float64
}

// New returns an empty store.
func New() *SampleStore {
	return &SampleStore{rng: emptyRange()}
}

// ReplaceHistory swaps in a complete history and recomputes the range from
// scratch. names overrides the cached probe names when the source knows them.
// It returns the latest sample, or nil for an empty history.
func (s *SampleStore) ReplaceHistory(history []pitwatch.Sample, names *[pitwatch.NumProbes]string) *pitwatch.NamedSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = history
	s.rng = emptyRange()
	if names != nil {
		s.probeNames = *names
	}

	for _, smp := range s.samples {
		if smp.Time > s.newestTime {
			s.newestTime = smp.Time
		}
		s.rng.widenSample(smp)
	}

	if len(s.samples) == 0 {
		return nil
	}
	latest := pitwatch.NewNamedSample(s.samples[len(s.samples)-1])
	latest.ProbeNames = s.probeNames
	return latest
}

// AddStatus appends sample unless its time equals the newest time already
// seen. The range only widens here; it shrinks on the next ReplaceHistory.
// sample is returned unchanged as the latest sample, with appended reporting
// whether the store grew.
func (s *SampleStore) AddStatus(sample *pitwatch.NamedSample) (latest *pitwatch.NamedSample, appended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sample.Time == s.newestTime {
		return sample, false
	}
	s.newestTime = sample.Time
	s.probeNames = sample.ProbeNames
	s.degreesPerHour = sample.DegreesPerHour

	s.rng.widenSample(sample.Sample)
	s.samples = append(s.samples, sample.Sample)

	return sample, true
}

// Len returns the number of samples.
func (s *SampleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// MinTime is the time of the first sample, 0 when empty.
func (s *SampleStore) MinTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return 0
	}
	return s.samples[0].Time
}

// MaxTime is the time of the last sample, 0 when empty.
func (s *SampleStore) MaxTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return 0
	}
	return s.samples[len(s.samples)-1].Time
}

// Samples returns a copy of the series.
func (s *SampleStore) Samples() []pitwatch.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pitwatch.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Range returns the current temperature display range.
func (s *SampleStore) Range() Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rng
}

// Normalized maps temperature into 0..1 over the display range.
func (s *SampleStore) Normalized(temperature float64) float64 {
	return s.Range().Normalize(temperature)
}

// Original is the inverse of Normalized.
func (s *SampleStore) Original(normalized float64) float64 {
	r := s.Range()
	return normalized*(r.Max-r.Min) + r.Min
}

// ProbeNames returns the cached probe names.
func (s *SampleStore) ProbeNames() [pitwatch.NumProbes]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.probeNames
}

// DegreesPerHour returns the cached rate for probe p.
func (s *SampleStore) DegreesPerHour(p int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degreesPerHour[p]
}

// View is a consistent read of everything consumers display.
type View struct {
	Samples        []pitwatch.Sample
	Range          Range
	MinTime        int64
	MaxTime        int64
	ProbeNames     [pitwatch.NumProbes]string
	DegreesPerHour [pitwatch.NumProbes]float64
}

// View returns all derived state under one read lock.
func (s *SampleStore) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.summaryLocked()
	v.Samples = make([]pitwatch.Sample, len(s.samples))
	copy(v.Samples, s.samples)
	return v
}

// Summary is View without the samples.
func (s *SampleStore) Summary() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLocked()
}

func (s *SampleStore) summaryLocked() View {
	v := View{
		Range:          s.rng,
		ProbeNames:     s.probeNames,
		DegreesPerHour: s.degreesPerHour,
	}
	if n := len(s.samples); n > 0 {
		v.MinTime = s.samples[0].Time
		v.MaxTime = s.samples[n-1].Time
	}
	return v
}

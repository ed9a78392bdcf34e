package heatermeter

import (
	"context"
	"errors"
	"io"
	"strings"

	"pitwatch"
	"pitwatch/internal/parser"
)

// Source provides the two kinds of reads the poller makes.
type Source interface {
	// FetchHistory returns the full history. names is non-nil when the source
	// knows the probe names.
	FetchHistory(ctx context.Context) (history []pitwatch.Sample, names *[pitwatch.NumProbes]string, err error)
	// FetchStatus returns the live sample.
	FetchStatus(ctx context.Context) (*pitwatch.NamedSample, error)
}

// DeviceSource reads from a live controller.
type DeviceSource struct {
	fetcher *Fetcher
}

func NewDeviceSource(f *Fetcher) *DeviceSource {
	return &DeviceSource{fetcher: f}
}

func (d *DeviceSource) FetchHistory(ctx context.Context) ([]pitwatch.Sample, *[pitwatch.NumProbes]string, error) {
	body, err := d.fetcher.Fetch(ctx, HistoryPath)
	if err != nil {
		return nil, nil, err
	}
	history, err := parser.ParseHistory(strings.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	return history, nil, nil
}

func (d *DeviceSource) FetchStatus(ctx context.Context) (*pitwatch.NamedSample, error) {
	body, err := d.fetcher.Fetch(ctx, StatusPath)
	if err != nil {
		return nil, err
	}
	return parser.ParseStatus(body)
}

// ErrEmptySavedHistory is returned by SavedSource.FetchStatus when the saved
// history has no rows.
var ErrEmptySavedHistory = errors.New("saved history is empty")

// SavedSource replays a saved history instead of talking to a device. History
// reads return the whole file, status reads return its last row.
type SavedSource struct {
	names   [pitwatch.NumProbes]string
	history []pitwatch.Sample
}

// NewSavedSource reads a saved history (four name lines, then history CSV).
func NewSavedSource(r io.Reader) (*SavedSource, error) {
	names, history, err := parser.ParseSavedHistory(r)
	if err != nil {
		return nil, err
	}
	return &SavedSource{names: names, history: history}, nil
}

func (s *SavedSource) FetchHistory(context.Context) ([]pitwatch.Sample, *[pitwatch.NumProbes]string, error) {
	out := make([]pitwatch.Sample, len(s.history))
	copy(out, s.history)
	names := s.names
	return out, &names, nil
}

func (s *SavedSource) FetchStatus(context.Context) (*pitwatch.NamedSample, error) {
	if len(s.history) == 0 {
		return nil, ErrEmptySavedHistory
	}
	ns := pitwatch.NewNamedSample(s.history[len(s.history)-1])
	ns.ProbeNames = s.names
	return ns, nil
}

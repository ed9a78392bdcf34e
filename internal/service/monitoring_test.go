package service

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/parser"
	"pitwatch/internal/store"
)

type fixedEngine struct{ e alarm.Engine }

func (f fixedEngine) Engine() alarm.Engine { return f.e }

func TestMonitoringService_Status(t *testing.T) {
	t.Parallel()

	st := store.New()
	latest := st.ReplaceHistory([]pitwatch.Sample{mkSample(100, 230, 140)}, &[pitwatch.NumProbes]string{"Pit", "Brisket", "", ""})
	latest.DegreesPerHour = [pitwatch.NumProbes]float64{0, 20, 0, 0}

	settings := alarm.DefaultSettings()
	settings.Hi[0] = 225
	settings.Hi[1] = 200
	engine := alarm.NewEngine(settings)

	session := &fakeSession{authenticated: true, message: "Authentication succeeded"}
	svc := NewMonitoringService(st, storeSnapshot{st: st, latest: latest}, fixedEngine{engine}, session)

	got := svc.Status(context.Background())
	if !got.Connected || got.Latest != latest {
		t.Fatalf("unexpected latest: %+v", got)
	}
	if got.Probes[0].Name != "Pit" || got.Probes[0].Temperature == nil || *got.Probes[0].Temperature != 230 {
		t.Fatalf("probe 0: %+v", got.Probes[0])
	}
	if got.Probes[0].AlarmText != "5.0° above alarm point" {
		t.Fatalf("alarm text: %q", got.Probes[0].AlarmText)
	}
	if got.Probes[1].RateText != "20.0°/hr, 3:00 to 200°" {
		t.Fatalf("rate text: %q", got.Probes[1].RateText)
	}
	if got.Probes[2].Connected || got.Probes[2].Temperature != nil {
		t.Fatalf("probe 2 should be disconnected: %+v", got.Probes[2])
	}
	if pos := got.Probes[1].Position; pos == nil || math.Abs(*pos-10.0/110) > 1e-9 {
		t.Fatalf("probe 1 position: %v", pos)
	}
	if got.Range.Min != 130 || got.Range.Max != 240 {
		t.Fatalf("range: %+v", got.Range)
	}
	if !got.Authenticated || got.StatusMessage != "Authentication succeeded" {
		t.Fatalf("auth fields: %+v", got)
	}

	// One-shot message is consumed.
	if again := svc.Status(context.Background()); again.StatusMessage != "" {
		t.Fatalf("status message should be returned once, got %q", again.StatusMessage)
	}
}

func TestMonitoringService_StatusWithoutData(t *testing.T) {
	t.Parallel()

	svc := NewMonitoringService(store.New(), storeSnapshot{st: store.New()}, fixedEngine{alarm.NewEngine(alarm.DefaultSettings())}, nil)

	got := svc.Status(context.Background())
	if got.Connected || got.Latest != nil {
		t.Fatalf("expected disconnected view: %+v", got)
	}
	if got.StatusLine != alarm.NoServerText {
		t.Fatalf("status line: %q", got.StatusLine)
	}
	if !got.Range.Empty() {
		t.Fatalf("range should be empty: %+v", got.Range)
	}
}

func TestMonitoringService_StatusMatchesOneTick(t *testing.T) {
	t.Parallel()

	st := store.New()
	poller := NewPollerService(PollerDeps{Source: &fakeSource{}, Store: st})
	svc := NewMonitoringService(st, poller, fixedEngine{alarm.NewEngine(alarm.DefaultSettings())}, nil)

	if got := svc.Status(context.Background()); got.Connected || got.MaxTime != 0 {
		t.Fatalf("before the first tick: %+v", got)
	}

	const ticks = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Apply(pitwatch.Update{Kind: pitwatch.HistoryUpdate, History: []pitwatch.Sample{mkSample(1, 100)}})
		for i := int64(2); i <= ticks; i++ {
			poller.Apply(pitwatch.Update{Kind: pitwatch.StatusUpdate, Status: mkNamed(i, 100+float64(i))})
		}
	}()

	for {
		select {
		case <-done:
			got := svc.Status(context.Background())
			if got.Latest == nil || got.Latest.Time != ticks || got.MaxTime != ticks {
				t.Fatalf("final status: latest=%+v max=%d", got.Latest, got.MaxTime)
			}
			return
		default:
		}
		got := svc.Status(context.Background())
		if got.Latest == nil {
			continue
		}
		if got.Latest.Time != got.MaxTime {
			t.Fatalf("status mixes ticks: latest=%d store max=%d", got.Latest.Time, got.MaxTime)
		}
		if temp := got.Probes[0].Temperature; temp != nil && (*temp < got.Range.Min || *temp > got.Range.Max) {
			t.Fatalf("temperature %v outside range %+v", *temp, got.Range)
		}
	}
}

func TestMonitoringService_SamplesAndExport(t *testing.T) {
	t.Parallel()

	st := store.New()
	names := [pitwatch.NumProbes]string{"Pit", "", "", ""}
	st.ReplaceHistory([]pitwatch.Sample{mkSample(100, 200), mkSample(110, math.NaN())}, &names)
	svc := NewMonitoringService(st, storeSnapshot{st: st}, fixedEngine{alarm.NewEngine(alarm.DefaultSettings())}, nil)

	v := svc.Samples(context.Background())
	if len(v.Samples) != 2 || v.MinTime != 100 || v.MaxTime != 110 || v.ProbeNames != names {
		t.Fatalf("samples view: %+v", v)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(&buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	gotNames, samples, err := parser.ParseSavedHistory(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("exported CSV must parse back: %v", err)
	}
	if gotNames != names || len(samples) != 2 || !math.IsNaN(samples[1].Probes[0]) {
		t.Fatalf("round trip: names=%v samples=%+v", gotNames, samples)
	}

	buf.Reset()
	if err := svc.ExportXLSX(&buf); err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Fatalf("xlsx output should be a zip archive")
	}
}

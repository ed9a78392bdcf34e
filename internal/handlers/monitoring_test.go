package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pitwatch"
	"pitwatch/internal/metrics"
	"pitwatch/internal/service"

	"github.com/gin-gonic/gin"
)

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	m.AlarmTriggered()
	r := NewHandler(&service.Service{}, m.Handler(), nil).InitRoutes()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pitwatch_alarms_triggered_total 1") {
		t.Fatalf("exposition missing alarm counter:\n%s", w.Body.String())
	}

	// Without a metrics handler the route is not registered.
	w = httptest.NewRecorder()
	newTestRouter(&service.Service{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}
}

func TestGetStatus(t *testing.T) {
	s := pitwatch.NewSample()
	s.Time = 1700000000
	s.SetPoint = 225
	s.Probes[0] = 224.5
	latest := pitwatch.NewNamedSample(s)
	latest.ProbeNames = [pitwatch.NumProbes]string{"Pit", "Food 1", "Food 2", "Ambient"}

	mon := &mockMonitoring{status: service.StatusView{
		Connected:     true,
		Latest:        latest,
		StatusLine:    "Pit: 224.5°",
		MinTime:       1699990000,
		MaxTime:       1700000000,
		StatusMessage: "Authentication succeeded",
	}}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var out struct {
		Connected bool `json:"connected"`
		Latest    struct {
			SetPoint   *float64   `json:"set_point"`
			Probes     []*float64 `json:"probes"`
			ProbeNames []string   `json:"probe_names"`
		} `json:"latest"`
		StatusLine    string `json:"status_line"`
		MaxTime       int64  `json:"max_time"`
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Connected || out.StatusLine != "Pit: 224.5°" || out.MaxTime != 1700000000 {
		t.Fatalf("unexpected status: %+v", out)
	}
	if out.Latest.SetPoint == nil || *out.Latest.SetPoint != 225 {
		t.Fatalf("set_point=%v", out.Latest.SetPoint)
	}
	if out.Latest.Probes[0] == nil || out.Latest.Probes[1] != nil {
		t.Fatalf("disconnected probes must be null: %v", out.Latest.Probes)
	}
	if out.Latest.ProbeNames[3] != "Ambient" || out.StatusMessage != "Authentication succeeded" {
		t.Fatalf("unexpected names/message: %+v", out)
	}
}

func TestGetSamples(t *testing.T) {
	a, b := pitwatch.NewSample(), pitwatch.NewSample()
	a.Time, b.Time = 100, 105
	mon := &mockMonitoring{samples: service.SamplesView{
		Samples: []pitwatch.Sample{a, b},
		MinTime: 100,
		MaxTime: 105,
	}}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/samples", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Samples []struct {
			Time int64 `json:"time"`
		} `json:"samples"`
		MinTime int64 `json:"min_time"`
		MaxTime int64 `json:"max_time"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Samples) != 2 || out.Samples[1].Time != 105 || out.MinTime != 100 || out.MaxTime != 105 {
		t.Fatalf("unexpected samples: %+v", out)
	}
}

func TestExports(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		mon      *mockMonitoring
		wantCode int
		wantType string
		wantBody string
		wantFile string
	}{
		{
			name:     "csv",
			path:     "/api/v1/samples/export.csv",
			mon:      &mockMonitoring{csv: "1700000000,225,224.5,nan,nan,nan,40,0\n"},
			wantCode: http.StatusOK,
			wantType: mimeCSV,
			wantBody: "1700000000,225,224.5,nan,nan,nan,40,0\n",
			wantFile: "samples.csv",
		},
		{
			name:     "xlsx",
			path:     "/api/v1/samples/export.xlsx",
			mon:      &mockMonitoring{xlsx: []byte("PK\x03\x04")},
			wantCode: http.StatusOK,
			wantType: mimeXLSX,
			wantBody: "PK\x03\x04",
			wantFile: "samples.xlsx",
		},
		{
			name:     "csv error",
			path:     "/api/v1/samples/export.csv",
			mon:      &mockMonitoring{exportErr: errors.New("broken pipe")},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "xlsx error",
			path:     "/api/v1/samples/export.xlsx",
			mon:      &mockMonitoring{exportErr: errors.New("zip failed")},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Monitoring: tc.mon})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d", w.Code, tc.wantCode)
			}
			if tc.wantCode != http.StatusOK {
				if !strings.Contains(w.Body.String(), errExport) {
					t.Fatalf("body=%s", w.Body.String())
				}
				return
			}
			if got := w.Header().Get("Content-Type"); got != tc.wantType {
				t.Fatalf("content type=%q, want %q", got, tc.wantType)
			}
			if !strings.Contains(w.Header().Get("Content-Disposition"), tc.wantFile) {
				t.Fatalf("disposition=%q", w.Header().Get("Content-Disposition"))
			}
			if w.Body.String() != tc.wantBody {
				t.Fatalf("body=%q, want %q", w.Body.String(), tc.wantBody)
			}
		})
	}
}

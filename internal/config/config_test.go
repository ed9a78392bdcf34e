package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pitwatch/internal/alarm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeConfig(t, "server: 192.168.1.20\n")

	cfg, err := Load("config", dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "http://192.168.1.20" {
		t.Fatalf("server: got %q", cfg.Server)
	}
	if cfg.AltServer != cfg.Server {
		t.Fatalf("alt server should fall back to server, got %q", cfg.AltServer)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("poll interval: got %s", cfg.PollInterval)
	}
	if cfg.BackgroundUpdateInterval != 15*time.Minute {
		t.Fatalf("background interval: got %s", cfg.BackgroundUpdateInterval)
	}
	if !cfg.AlwaysSoundAlarm || !cfg.AlarmOnLostConnection || cfg.KeepScreenOn {
		t.Fatalf("unexpected alarm flags: %+v", cfg)
	}
	if cfg.Alarms != alarm.DefaultSettings() {
		t.Fatalf("alarms: got %+v", cfg.Alarms)
	}
	if cfg.Port != "8080" || cfg.DBPath != "pitwatch.db" || cfg.MQTTTopic != "pitwatch/status" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_FileValues(t *testing.T) {
	dir := writeConfig(t, `
server: "https://pit.example.com/"
alt_server: "10.0.0.5:8080"
admin_password: "secret"
poll_interval: "2s"
background_update_minutes: 5
always_sound_alarm: false
alarms:
  lo: [200, -70, -70, -70]
  hi: [250, -200, 165, -200]
mqtt:
  broker: "tcp://localhost:1883"
`)

	cfg, err := Load("config", dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "https://pit.example.com" {
		t.Fatalf("server: got %q", cfg.Server)
	}
	if cfg.AltServer != "http://10.0.0.5:8080" {
		t.Fatalf("alt server: got %q", cfg.AltServer)
	}
	if cfg.AdminPassword != "secret" || cfg.PollInterval != 2*time.Second || cfg.BackgroundUpdateInterval != 5*time.Minute {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.AlwaysSoundAlarm {
		t.Fatalf("always_sound_alarm should be false")
	}
	want := alarm.Settings{Lo: [4]int{200, -70, -70, -70}, Hi: [4]int{250, -200, 165, -200}}
	if cfg.Alarms != want {
		t.Fatalf("alarms: got %+v", cfg.Alarms)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Fatalf("mqtt broker: got %q", cfg.MQTTBroker)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := writeConfig(t, "server: a.local\n")
	t.Setenv("PITWATCH_SERVER", "b.local")
	t.Setenv("PITWATCH_DB_PATH", "/tmp/x.db")

	cfg, err := Load("config", dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "http://b.local" {
		t.Fatalf("server: got %q", cfg.Server)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Fatalf("db path: got %q", cfg.DBPath)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{name: "no server", body: "port: \"9000\"\n", want: ErrNoServer},
		{name: "short alarm list", body: "server: x\nalarms:\n  lo: [1, 2]\n", want: ErrBadAlarmCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.body)
			_, err := Load("config", dir)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_MissingFileUsesSavedHistory(t *testing.T) {
	t.Setenv("PITWATCH_SAVED_HISTORY", "demo.csv")

	cfg, err := Load("config", t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SavedHistory != "demo.csv" || cfg.Server != "" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

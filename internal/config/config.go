// Package config loads runtime settings from configs/config.yml and
// PITWATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pitwatch"
	"pitwatch/internal/alarm"
	"pitwatch/internal/heatermeter"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PITWATCH_SERVER.
const EnvPrefix = "PITWATCH"

// Config is the fully resolved configuration.
type Config struct {
	Server    string
	AltServer string
	// AdminPassword enables login and setpoint changes when non-empty.
	AdminPassword string

	PollInterval             time.Duration
	BackgroundUpdateInterval time.Duration
	AlwaysSoundAlarm         bool
	AlarmOnLostConnection    bool
	KeepScreenOn             bool
	Alarms                   alarm.Settings

	// SavedHistory replays a saved history file instead of polling a device.
	SavedHistory string

	Port          string
	DBPath        string
	LogLevel      string
	JWTSigningKey string

	MQTTBroker string
	MQTTTopic  string
}

var (
	ErrNoServer      = errors.New("server is not configured")
	ErrBadAlarmCount = fmt.Errorf("alarm lists must have %d entries", pitwatch.NumProbes)
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server", "")
	v.SetDefault("alt_server", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("background_update_minutes", 15)
	v.SetDefault("always_sound_alarm", true)
	v.SetDefault("alarm_on_lost_connection", true)
	v.SetDefault("keep_screen_on", false)
	v.SetDefault("saved_history", "")
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "pitwatch.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt.signing_key", "")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "pitwatch/status")

	defaults := alarm.DefaultSettings()
	v.SetDefault("alarms.lo", defaults.Lo[:])
	v.SetDefault("alarms.hi", defaults.Hi[:])
}

// Load reads the named config file from dirs (the first one found wins).
// A missing file is fine: defaults and environment still apply.
func Load(name string, dirs ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server:                   serverURL(v.GetString("server")),
		AltServer:                serverURL(v.GetString("alt_server")),
		AdminPassword:            v.GetString("admin_password"),
		PollInterval:             v.GetDuration("poll_interval"),
		BackgroundUpdateInterval: time.Duration(v.GetInt("background_update_minutes")) * time.Minute,
		AlwaysSoundAlarm:         v.GetBool("always_sound_alarm"),
		AlarmOnLostConnection:    v.GetBool("alarm_on_lost_connection"),
		KeepScreenOn:             v.GetBool("keep_screen_on"),
		SavedHistory:             v.GetString("saved_history"),
		Port:                     v.GetString("port"),
		DBPath:                   v.GetString("db.path"),
		LogLevel:                 v.GetString("log_level"),
		JWTSigningKey:            v.GetString("jwt.signing_key"),
		MQTTBroker:               v.GetString("mqtt.broker"),
		MQTTTopic:                v.GetString("mqtt.topic"),
	}

	lo := v.GetIntSlice("alarms.lo")
	hi := v.GetIntSlice("alarms.hi")
	if len(lo) != pitwatch.NumProbes || len(hi) != pitwatch.NumProbes {
		return nil, ErrBadAlarmCount
	}
	copy(cfg.Alarms.Lo[:], lo)
	copy(cfg.Alarms.Hi[:], hi)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serverURL(addr string) string {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if addr == "" {
		return ""
	}
	return heatermeter.NormalizeServer(addr)
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Server == "" && c.SavedHistory == "" {
		return ErrNoServer
	}
	if c.AltServer == "" {
		c.AltServer = c.Server
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.BackgroundUpdateInterval <= 0 {
		return fmt.Errorf("background_update_minutes must be positive, got %s", c.BackgroundUpdateInterval)
	}
	return nil
}

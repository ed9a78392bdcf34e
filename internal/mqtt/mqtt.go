// Package mqtt bridges the latest controller sample to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"math"

	"pitwatch"
	"pitwatch/internal/logger"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "pitwatch/status"

// queueSize bounds the snapshots waiting for the broker. Older snapshots are
// dropped first; only the newest matters to subscribers.
const queueSize = 16

// Publisher publishes payloads to MQTT.
type Publisher interface {
	// Publish sends a payload to the configured topic.
	// Returns error if publishing fails (should not crash the process).
	Publish(payload []byte) error

	// Close disconnects from the broker.
	Close() error
}

// ProbePayload is one probe of a snapshot.
type ProbePayload struct {
	Name           string   `json:"name"`
	Temperature    *float64 `json:"temperature"`
	DegreesPerHour float64  `json:"degrees_per_hour"`
}

// Payload is the snapshot published after every tick.
type Payload struct {
	Connected bool                              `json:"connected"`
	Time      int64                             `json:"time,omitempty"`
	SetPoint  *float64                          `json:"set_point,omitempty"`
	FanSpeed  *float64                          `json:"fan_speed,omitempty"`
	LidOpen   *bool                             `json:"lid_open,omitempty"`
	Probes    *[pitwatch.NumProbes]ProbePayload `json:"probes,omitempty"`
}

// FormatPayload renders latest as JSON. A nil sample yields {"connected":false}.
func FormatPayload(latest *pitwatch.NamedSample) ([]byte, error) {
	if latest == nil {
		return json.Marshal(Payload{})
	}

	fan := latest.FanSpeed
	lid := latest.LidOpen >= 0.5
	var probes [pitwatch.NumProbes]ProbePayload
	for p := range probes {
		probes[p] = ProbePayload{
			Name:           latest.ProbeNames[p],
			Temperature:    finite(latest.Probes[p]),
			DegreesPerHour: latest.DegreesPerHour[p],
		}
	}
	return json.Marshal(Payload{
		Connected: true,
		Time:      latest.Time,
		SetPoint:  finite(latest.SetPoint),
		FanSpeed:  &fan,
		LidOpen:   &lid,
		Probes:    &probes,
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Bridge is a sample listener that forwards snapshots to a Publisher. The
// listener side never blocks; Run does the publishing.
type Bridge struct {
	pub   Publisher
	log   *logger.Logger
	queue chan []byte
}

func NewBridge(pub Publisher, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{pub: pub, log: log.Named("mqtt"), queue: make(chan []byte, queueSize)}
}

// OnSample queues a snapshot of latest.
func (b *Bridge) OnSample(latest *pitwatch.NamedSample) {
	payload, err := FormatPayload(latest)
	if err != nil {
		b.log.Errorw("mqtt_format_failed", "err", err)
		return
	}
	for {
		select {
		case b.queue <- payload:
			return
		default:
		}
		// Full: drop the oldest and retry.
		select {
		case <-b.queue:
			b.log.Debugw("mqtt_snapshot_dropped")
		default:
		}
	}
}

// Run publishes queued snapshots until ctx is canceled, then closes the
// publisher.
func (b *Bridge) Run(ctx context.Context) {
	defer func() {
		if err := b.pub.Close(); err != nil {
			b.log.Warnw("mqtt_close_failed", "err", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-b.queue:
			if err := b.pub.Publish(payload); err != nil {
				b.log.Warnw("mqtt_publish_failed", "err", err)
			}
		}
	}
}

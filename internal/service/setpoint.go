package service

import (
	"context"
	"errors"
	"fmt"

	"pitwatch"
	"pitwatch/internal/heatermeter"
	"pitwatch/internal/logger"
)

// Setpoint bounds accepted from API callers.
const (
	MinSetpoint = 0
	MaxSetpoint = 1000
)

var (
	ErrSetpointUnavailable = errors.New("device control needs a live device, not a saved history")
	ErrSetpointOutOfRange  = fmt.Errorf("setpoint must be within [%d, %d]", MinSetpoint, MaxSetpoint)
)

type SetpointService struct {
	session DeviceSession
	events  EventLog
	log     *logger.Logger
}

func NewSetpointService(session DeviceSession, events EventLog, log *logger.Logger) *SetpointService {
	if log == nil {
		log = logger.Nop()
	}
	return &SetpointService{session: session, events: events, log: log.Named("setpoint")}
}

// ChangeSetpoint sends the new setpoint to the device. Before a successful
// login it returns heatermeter.ErrNotAuthenticated and sends nothing.
func (s *SetpointService) ChangeSetpoint(ctx context.Context, setpoint int) error {
	if s.session == nil {
		return ErrSetpointUnavailable
	}
	if setpoint < MinSetpoint || setpoint > MaxSetpoint {
		return ErrSetpointOutOfRange
	}
	if err := s.session.ChangeSetpoint(ctx, setpoint); err != nil {
		if !errors.Is(err, heatermeter.ErrNotAuthenticated) {
			s.log.Warnw("setpoint_not_sent", "setpoint", setpoint, "err", err)
		}
		return err
	}
	if s.events != nil {
		s.events.Record(ctx, pitwatch.EventSetpoint, fmt.Sprintf("setpoint changed to %d", setpoint), operatorMeta(ctx, map[string]any{"setpoint": setpoint}))
	}
	return nil
}

// SetDevicePassword replaces the device admin password. The next poll tick
// logs in with it.
func (s *SetpointService) SetDevicePassword(ctx context.Context, password string) error {
	if s.session == nil {
		return ErrSetpointUnavailable
	}
	s.session.SetPassword(password)
	if s.events != nil {
		s.events.Record(ctx, pitwatch.EventAuth, "device password updated", operatorMeta(ctx, nil))
	}
	return nil
}

package turntable

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cjeanneret/TurnGo/internal/debug"
	"github.com/cjeanneret/TurnGo/internal/hw/transport"
)

// ErrNotConnected is returned when a motion command is issued before Connect.
var ErrNotConnected = errors.New("turntable: not connected")

// Table is the capability set the orchestration engine drives.
// Motion is open-loop: every command is "send, then wait a computed
// duration"; completion is assumed, not sensed. The only detectable
// failure is a link write error.
type Table interface {
	Connect() error
	Disconnect() error
	Configure() error
	ResetPosition() error
	ResetTilt() error
	StepHorizontal(stepCount int) error
	StepTilt(deltaDeg float64) error
}

// Config holds the driver parameters for a RevoTable.
type Config struct {
	Link         transport.Config
	Mock         bool
	RotationPace float64 // device speed units; also scales rotation delays
	TiltPace     float64
}

// RevoTable drives a Revopoint-style dual axis turntable over a command
// link. It keeps a local tilt position because the device only accepts
// absolute tilt targets while the engine thinks in deltas.
type RevoTable struct {
	cfg     Config
	link    transport.Link
	tiltDeg float64
	sleep   func(time.Duration) // injected for deterministic tests
}

// NewRevoTable creates a driver; Connect must be called before motion.
func NewRevoTable(cfg Config) *RevoTable {
	return &RevoTable{
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// Connect opens the command link.
func (t *RevoTable) Connect() error {
	link, err := transport.Open(t.cfg.Link, t.cfg.Mock)
	if err != nil {
		return fmt.Errorf("connect turntable: %w", err)
	}
	t.link = link
	return nil
}

// Disconnect closes the link. Safe to call when not connected.
func (t *RevoTable) Disconnect() error {
	if t.link == nil {
		return nil
	}
	err := t.link.Close()
	t.link = nil
	return err
}

func (t *RevoTable) send(cmd Command) error {
	if t.link == nil {
		return ErrNotConnected
	}
	return t.link.Send(cmd.String())
}

// Configure sets the rotation and tilt speeds and lets the device settle.
func (t *RevoTable) Configure() error {
	if err := t.send(SetRotationSpeed(t.cfg.RotationPace)); err != nil {
		return fmt.Errorf("configure rotation speed: %w", err)
	}
	if err := t.send(SetTiltSpeed(t.cfg.TiltPace)); err != nil {
		return fmt.Errorf("configure tilt speed: %w", err)
	}
	t.sleep(100 * time.Millisecond)
	return nil
}

// ResetPosition returns both axes to their zero positions.
func (t *RevoTable) ResetPosition() error {
	if err := t.send(ZeroRotation()); err != nil {
		return fmt.Errorf("zero rotation: %w", err)
	}
	if err := t.send(ZeroTilt()); err != nil {
		return fmt.Errorf("zero tilt: %w", err)
	}
	t.sleep(resetDelay(t.cfg.RotationPace))
	t.tiltDeg = 0
	return nil
}

// ResetTilt returns the tilt axis to neutral.
func (t *RevoTable) ResetTilt() error {
	if err := t.send(ZeroTilt()); err != nil {
		return fmt.Errorf("zero tilt: %w", err)
	}
	t.sleep(tiltResetFloor)
	t.tiltDeg = 0
	return nil
}

// StepHorizontal rotates by one step of a full rotation divided into
// stepCount steps, then waits out the computed motion time.
func (t *RevoTable) StepHorizontal(stepCount int) error {
	if stepCount <= 0 {
		return fmt.Errorf("step count must be > 0, got %d", stepCount)
	}
	angle := 360.0 / float64(stepCount)
	debug.Move("rotation", angle)
	if err := t.send(RotateBy(angle)); err != nil {
		return fmt.Errorf("rotate by %.2f: %w", angle, err)
	}
	t.sleep(rotationStepDelay(t.cfg.RotationPace, stepCount))
	return nil
}

// StepTilt tilts by deltaDeg relative to the current tracked position,
// then waits out the computed motion time.
func (t *RevoTable) StepTilt(deltaDeg float64) error {
	target := t.tiltDeg + deltaDeg
	debug.Move("tilt", deltaDeg)
	if err := t.send(TiltTo(target)); err != nil {
		return fmt.Errorf("tilt to %.2f: %w", target, err)
	}
	t.sleep(tiltStepDelay(deltaDeg))
	t.tiltDeg = target
	return nil
}

// tiltResetFloor is how long a worst-case tilt return takes.
const tiltResetFloor = 3500 * time.Millisecond

// rotationStepDelay is the assumed motion time for one rotation step at
// the configured pace: 1000 * pace / stepCount milliseconds.
func rotationStepDelay(pace float64, stepCount int) time.Duration {
	ms := 1000.0 * pace / float64(stepCount)
	return time.Duration(ms) * time.Millisecond
}

// tiltStepDelay is the assumed motion time for a tilt of deltaDeg at the
// fixed tilt rate of 60 degrees per 7 seconds.
func tiltStepDelay(deltaDeg float64) time.Duration {
	ms := 7000.0 * math.Abs(deltaDeg) / 60.0
	return time.Duration(ms) * time.Millisecond
}

// resetDelay is the assumed worst-case time for a full return to zero.
func resetDelay(pace float64) time.Duration {
	d := time.Duration(pace*500.0) * time.Millisecond
	if d < tiltResetFloor {
		return tiltResetFloor
	}
	return d
}

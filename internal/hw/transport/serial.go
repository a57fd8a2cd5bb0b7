package transport

import (
	"fmt"

	"go.bug.st/serial"

	"github.com/cjeanneret/TurnGo/internal/debug"
)

// SerialLink is the real implementation over the turntable's BLE/UART
// bridge, which exposes a plain serial device to the host.
type SerialLink struct {
	port serial.Port
	name string
}

// OpenSerial opens the serial device and returns a connected link.
func OpenSerial(cfg Config) (*SerialLink, error) {
	debug.Info("Opening turntable link on %s @ %d baud", cfg.Port, cfg.BaudRate)

	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	return &SerialLink{port: port, name: cfg.Port}, nil
}

func (s *SerialLink) Send(cmd string) error {
	debug.Wire(cmd)
	n, err := s.port.Write([]byte(cmd))
	if err != nil {
		return fmt.Errorf("write to %s: %w", s.name, err)
	}
	if n != len(cmd) {
		return fmt.Errorf("short write to %s: %d of %d bytes", s.name, n, len(cmd))
	}
	return nil
}

func (s *SerialLink) Close() error {
	debug.Trace("link close (%s)", s.name)
	return s.port.Close()
}

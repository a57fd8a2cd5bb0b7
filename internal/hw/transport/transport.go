package transport

import (
	"sync"

	"github.com/cjeanneret/TurnGo/internal/debug"
)

// Link defines the abstract interface for the turntable command link.
// This allows plugging in the real serial bridge or a mock for
// development and tests.
type Link interface {
	// Send writes one ASCII command (already terminated by ';') to the device.
	Send(cmd string) error
	Close() error
}

// Config holds the link parameters.
type Config struct {
	Port     string // serial device, e.g. /dev/ttyUSB0
	BaudRate int
}

// Open creates a command link based on the chosen mode.
// If mock is true, returns a MockLink (for dev/test).
// If mock is false, opens the real serial bridge.
func Open(cfg Config, mock bool) (Link, error) {
	if mock {
		debug.Info("Using MOCK turntable link (development mode)")
		return &MockLink{}, nil
	}
	return OpenSerial(cfg)
}

// MockLink is a test implementation that records sent commands.
type MockLink struct {
	mu   sync.Mutex
	sent []string
}

func (m *MockLink) Send(cmd string) error {
	debug.Wire(cmd)
	m.mu.Lock()
	m.sent = append(m.sent, cmd)
	m.mu.Unlock()
	return nil
}

func (m *MockLink) Close() error {
	debug.Trace("link close (mock)")
	return nil
}

// Sent returns a copy of all commands sent so far.
func (m *MockLink) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

package turntable

import (
	"errors"
	"testing"
	"time"

	"github.com/cjeanneret/TurnGo/internal/hw/transport"
)

// failingLink rejects every write.
type failingLink struct{}

func (f *failingLink) Send(cmd string) error { return errors.New("wire write failed") }
func (f *failingLink) Close() error          { return nil }

func newTestTable() (*RevoTable, *transport.MockLink, *[]time.Duration) {
	link := &transport.MockLink{}
	var slept []time.Duration
	tbl := NewRevoTable(Config{RotationPace: 35.64, TiltPace: 9})
	tbl.link = link
	tbl.sleep = func(d time.Duration) { slept = append(slept, d) }
	return tbl, link, &slept
}

func TestConfigure_SendsBothSpeeds(t *testing.T) {
	tbl, link, _ := newTestTable()

	if err := tbl.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	sent := link.Sent()
	want := []string{"+CT,TURNSPEED=35.64;", "+CR,TILTSPEED=9.00;"}
	if len(sent) != len(want) {
		t.Fatalf("sent %d commands, want %d: %v", len(sent), len(want), sent)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, sent[i], want[i])
		}
	}
}

func TestStepHorizontal_CommandAndDelay(t *testing.T) {
	tbl, link, slept := newTestTable()

	if err := tbl.StepHorizontal(24); err != nil {
		t.Fatalf("StepHorizontal: %v", err)
	}

	sent := link.Sent()
	if len(sent) != 1 || sent[0] != "+CT,TURNANGLE=15.00;" {
		t.Errorf("sent = %v, want [+CT,TURNANGLE=15.00;]", sent)
	}
	// 1000 * 35.64 / 24 = 1485 ms
	if len(*slept) != 1 || (*slept)[0] != 1485*time.Millisecond {
		t.Errorf("slept = %v, want [1.485s]", *slept)
	}
}

func TestStepHorizontal_InvalidStepCount(t *testing.T) {
	tbl, _, _ := newTestTable()
	if err := tbl.StepHorizontal(0); err == nil {
		t.Error("expected error for step count 0, got nil")
	}
}

func TestStepTilt_TracksAbsolutePosition(t *testing.T) {
	tbl, link, slept := newTestTable()

	if err := tbl.StepTilt(10); err != nil {
		t.Fatalf("StepTilt(10): %v", err)
	}
	if err := tbl.StepTilt(5); err != nil {
		t.Fatalf("StepTilt(5): %v", err)
	}
	if err := tbl.StepTilt(-20); err != nil {
		t.Fatalf("StepTilt(-20): %v", err)
	}

	sent := link.Sent()
	want := []string{"+CR,TILTVALUE=10.00;", "+CR,TILTVALUE=15.00;", "+CR,TILTVALUE=-5.00;"}
	for i := range want {
		if sent[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, sent[i], want[i])
		}
	}

	// 7000 * |delta| / 60 ms
	wantSlept := []time.Duration{
		7000 * 10 / 60 * time.Millisecond,
		7000 * 5 / 60 * time.Millisecond,
		7000 * 20 / 60 * time.Millisecond,
	}
	for i := range wantSlept {
		if (*slept)[i] != wantSlept[i] {
			t.Errorf("slept[%d] = %v, want %v", i, (*slept)[i], wantSlept[i])
		}
	}
}

func TestResetPosition_ZeroesBothAxesAndTilt(t *testing.T) {
	tbl, link, slept := newTestTable()
	tbl.tiltDeg = 30

	if err := tbl.ResetPosition(); err != nil {
		t.Fatalf("ResetPosition: %v", err)
	}

	sent := link.Sent()
	want := []string{"+CT,TOZERO;", "+CR,TOZERO;"}
	for i := range want {
		if sent[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, sent[i], want[i])
		}
	}
	if tbl.tiltDeg != 0 {
		t.Errorf("tiltDeg = %.2f, want 0 after reset", tbl.tiltDeg)
	}
	// max(35.64*500, 3500) ms = 17820 ms
	if (*slept)[0] != 17820*time.Millisecond {
		t.Errorf("slept = %v, want 17.82s", (*slept)[0])
	}
}

func TestResetDelay_Floor(t *testing.T) {
	// A fast pace is still floored at the worst-case return time.
	if d := resetDelay(1.0); d != tiltResetFloor {
		t.Errorf("resetDelay(1) = %v, want %v", d, tiltResetFloor)
	}
}

func TestMotion_WireWriteFailure(t *testing.T) {
	tbl := NewRevoTable(Config{RotationPace: 35.64, TiltPace: 9})
	tbl.link = &failingLink{}
	tbl.sleep = func(time.Duration) {}

	if err := tbl.StepHorizontal(24); err == nil {
		t.Error("expected error from failing link, got nil")
	}
	if err := tbl.StepTilt(5); err == nil {
		t.Error("expected error from failing link, got nil")
	}
	if err := tbl.ResetTilt(); err == nil {
		t.Error("expected error from failing link, got nil")
	}
}

func TestMotion_NotConnected(t *testing.T) {
	tbl := NewRevoTable(Config{RotationPace: 35.64, TiltPace: 9})
	tbl.sleep = func(time.Duration) {}

	if err := tbl.StepHorizontal(24); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestConnectDisconnect_MockLink(t *testing.T) {
	tbl := NewRevoTable(Config{Mock: true, RotationPace: 35.64, TiltPace: 9})
	if err := tbl.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := tbl.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	// Disconnect when not connected is a no-op.
	if err := tbl.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
}

package debug

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T, debugLevel int, emit func()) string {
	t.Helper()
	Init(debugLevel)
	var buf bytes.Buffer
	SetOutput(&buf)
	emit()
	return buf.String()
}

func TestLevels(t *testing.T) {
	out := capture(t, LevelVerbose, func() {
		Info("connected")
		Live("step taken")
		Verbose("delay computed")
		Trace("low level detail")
		Wire("+CT,STOP;")
	})

	for _, want := range []string{"[INFO] connected", "[LIVE] step taken", "[VERBOSE] delay computed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, absent := range []string{"[TRACE]", "[WIRE]"} {
		if strings.Contains(out, absent) {
			t.Errorf("level %d output contains %s:\n%s", LevelVerbose, absent, out)
		}
	}
}

func TestTraceLevel(t *testing.T) {
	out := capture(t, LevelTrace, func() {
		Wire("+CT,TOZERO;")
	})
	if !strings.Contains(out, "[WIRE] -> +CT,TOZERO;") {
		t.Errorf("output missing wire command:\n%s", out)
	}
}

func TestOffIsSilent(t *testing.T) {
	Init(LevelOff)
	var buf bytes.Buffer
	SetOutput(&buf)
	Info("should not appear")
	Error(nil)
	if buf.Len() != 0 {
		t.Errorf("level 0 produced output: %q", buf.String())
	}
}

func TestDomainHelpers(t *testing.T) {
	out := capture(t, LevelLive, func() {
		Sequence(24, 2, 48)
		StepOf(0, 48)
		Capture(3, "/tmp/image_abc.jpg")
		Move("rotation", 15)
	})

	for _, want := range []string{
		"24 rotation steps x 2 tilt levels = 48 captures",
		"Step 1/48",
		"Captured image seq=3",
		"Motion rotation: 15.00 deg",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestIsEnabled(t *testing.T) {
	Init(LevelLive)
	if !IsEnabled(LevelInfo) || !IsEnabled(LevelLive) {
		t.Error("levels at or below the configured one must be enabled")
	}
	if IsEnabled(LevelVerbose) {
		t.Error("levels above the configured one must be disabled")
	}
	if Level() != LevelLive {
		t.Errorf("Level() = %d, want %d", Level(), LevelLive)
	}
}

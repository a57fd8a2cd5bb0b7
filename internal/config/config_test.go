package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidateConfigPath(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid", "configs/default.yaml", false},
		{"valid_nested", "/opt/turngo/configs/lab.yaml", false},
		{"empty", "", true},
		{"traversal", "configs/../secrets.yaml", true},
		{"wrong_ext", "configs/default.yml", true},
		{"no_ext", "configs/default", true},
		{"outside_configs", "etc/default.yaml", true},
		{"bare_file", "default.yaml", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfigPath(tc.path)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateConfigPath(%q): expected error, got nil", tc.path)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateConfigPath(%q): %v", tc.path, err)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "configs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
turntable:
  port: /dev/ttyUSB0
  baud_rate: 9600
  rotation_pace: 131
  tilt_pace: 35
camera:
  type: gphoto2
  extra_delay_ms: 750
preview:
  max_width: 640
  max_height: 480
export:
  directory: /tmp/shots
defaults:
  rotation_steps: 36
  tilt_lower_deg: -5
  tilt_upper_deg: 20
  tilt_steps: 3
  debug_level: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Turntable.Port != "/dev/ttyUSB0" || cfg.Turntable.BaudRate != 9600 {
		t.Errorf("turntable = %+v", cfg.Turntable)
	}
	if cfg.Turntable.RotationPace != 131 || cfg.Turntable.TiltPace != 35 {
		t.Errorf("paces = %.2f/%.2f", cfg.Turntable.RotationPace, cfg.Turntable.TiltPace)
	}
	if cfg.Camera.Type != "gphoto2" {
		t.Errorf("camera.type = %q", cfg.Camera.Type)
	}
	if got := cfg.ExtraDelay(); got != 750*time.Millisecond {
		t.Errorf("ExtraDelay() = %v, want 750ms", got)
	}
	if cfg.Preview.MaxWidth != 640 || cfg.Preview.MaxHeight != 480 {
		t.Errorf("preview = %+v", cfg.Preview)
	}
	if cfg.Export.Directory != "/tmp/shots" {
		t.Errorf("export.directory = %q", cfg.Export.Directory)
	}
	if cfg.Defaults.RotationSteps != 36 || cfg.Defaults.TiltSteps != 3 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
turntable:
  mock: true
camera:
  type: sim
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Turntable.BaudRate != 115200 {
		t.Errorf("baud_rate default = %d, want 115200", cfg.Turntable.BaudRate)
	}
	if cfg.Turntable.RotationPace != 35.64 {
		t.Errorf("rotation_pace default = %.2f, want 35.64", cfg.Turntable.RotationPace)
	}
	if cfg.Turntable.TiltPace != 9.0 {
		t.Errorf("tilt_pace default = %.2f, want 9.0", cfg.Turntable.TiltPace)
	}
	if cfg.Preview.MaxWidth != 320 || cfg.Preview.MaxHeight != 240 {
		t.Errorf("preview defaults = %+v", cfg.Preview)
	}
	if cfg.Defaults.RotationSteps != 24 || cfg.Defaults.TiltSteps != 1 {
		t.Errorf("sequence defaults = %+v", cfg.Defaults)
	}
	if cfg.Export.Directory != "export" {
		t.Errorf("export.directory default = %q, want \"export\"", cfg.Export.Directory)
	}
}

func TestLoad_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing_camera_type", "turntable:\n  mock: true\n"},
		{"bad_camera_type", "turntable:\n  mock: true\ncamera:\n  type: webcam\n"},
		{"port_required", "camera:\n  type: sim\n"},
		{"negative_delay", "turntable:\n  mock: true\ncamera:\n  type: sim\n  extra_delay_ms: -1\n"},
		{"tilt_bounds_inverted", "turntable:\n  mock: true\ncamera:\n  type: sim\ndefaults:\n  tilt_lower_deg: 10\n  tilt_upper_deg: 5\n"},
		{"debug_out_of_range", "turntable:\n  mock: true\ncamera:\n  type: sim\ndefaults:\n  debug_level: 5\n"},
		{"not_yaml", "{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "configs", "absent.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

package camera

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/cjeanneret/TurnGo/internal/debug"
)

// Gphoto2Driver controls a tethered USB camera through the gphoto2 CLI.
// Requires gphoto2 to be installed and the camera to be in PC/tether mode.
type Gphoto2Driver struct {
	binary string
}

// NewGphoto2Driver creates a driver using the gphoto2 binary from PATH.
func NewGphoto2Driver() *Gphoto2Driver {
	return &Gphoto2Driver{binary: "gphoto2"}
}

// List runs `gphoto2 --auto-detect` and parses the model/port table.
func (d *Gphoto2Driver) List() ([]Spec, error) {
	out, err := exec.Command(d.binary, "--auto-detect").Output()
	if err != nil {
		return nil, fmt.Errorf("gphoto2 auto-detect: %w", err)
	}

	var specs []Spec
	lines := strings.Split(string(out), "\n")
	for _, line := range lines {
		// Skip the two header lines and anything that is not a device row.
		// Device rows end with a port like "usb:001,007".
		idx := strings.LastIndex(line, "usb:")
		if idx < 0 {
			continue
		}
		port := strings.TrimSpace(line[idx:])
		model := strings.TrimSpace(line[:idx])
		if model == "" || port == "usb:" {
			continue
		}
		specs = append(specs, Spec{ID: port, Name: model})
	}

	debug.Verbose("gphoto2 detected %d camera(s)", len(specs))
	return specs, nil
}

// Connect verifies the camera answers on its port and returns a handle.
func (d *Gphoto2Driver) Connect(spec Spec) (Camera, error) {
	if err := exec.Command(d.binary, "--port", spec.ID, "--summary").Run(); err != nil {
		return nil, fmt.Errorf("gphoto2 summary for %s (%s): %w", spec.Name, spec.ID, err)
	}
	return &gphoto2Camera{binary: d.binary, port: spec.ID}, nil
}

type gphoto2Camera struct {
	binary string
	port   string
}

// Capture triggers a tethered capture, downloads the image to dst and
// detects its MIME type from the file contents.
func (c *gphoto2Camera) Capture(dst string) (string, error) {
	cmd := exec.Command(c.binary,
		"--port", c.port,
		"--capture-image-and-download",
		"--filename", dst,
		"--force-overwrite",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("gphoto2 capture: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return detectMIME(dst)
}

// detectMIME sniffs the MIME type from the first bytes of the file.
func detectMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open captured image: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "", fmt.Errorf("read captured image: %w", err)
	}
	mt := http.DetectContentType(buf[:n])
	// DetectContentType returns "application/octet-stream; charset=..." forms
	// for unknowns; strip parameters either way.
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt, nil
}

package camera

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"sync"

	"github.com/cjeanneret/TurnGo/internal/debug"
)

// SimDriver is a camera implementation without hardware: each capture
// writes a small generated JPEG. Used for development and tests.
type SimDriver struct{}

// NewSimDriver creates a simulated camera driver.
func NewSimDriver() *SimDriver {
	return &SimDriver{}
}

func (d *SimDriver) List() ([]Spec, error) {
	return []Spec{{ID: "sim:0", Name: "Simulated Camera"}}, nil
}

func (d *SimDriver) Connect(spec Spec) (Camera, error) {
	if spec.ID != "sim:0" {
		return nil, fmt.Errorf("unknown simulated camera: %q", spec.ID)
	}
	return &SimCamera{}, nil
}

// SimCamera writes synthetic gradient images, varying per shot so that
// consecutive captures are distinguishable.
type SimCamera struct {
	mu    sync.Mutex
	shots int
}

func (c *SimCamera) Capture(dst string) (string, error) {
	c.mu.Lock()
	c.shots++
	shot := c.shots
	c.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 4),
				G: uint8(y * 5),
				B: uint8(shot * 16),
				A: 255,
			})
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create simulated image: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, nil); err != nil {
		return "", fmt.Errorf("encode simulated image: %w", err)
	}

	debug.Verbose("simulated capture #%d -> %s", shot, dst)
	return "image/jpeg", nil
}

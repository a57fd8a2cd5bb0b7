package camera

import "fmt"

// Spec is an opaque camera descriptor produced by device enumeration.
// Two specs refer to the same device iff their IDs are equal.
type Spec struct {
	ID   string // device address, e.g. "usb:001,007"
	Name string // human-readable model name
}

// Driver enumerates cameras and opens connections to them.
type Driver interface {
	List() ([]Spec, error)
	Connect(spec Spec) (Camera, error)
}

// Camera is a connected device able to take one photo at a time.
type Camera interface {
	// Capture takes a photo and writes it to dst. It returns the MIME
	// type of the produced image as reported (or detected) by the driver.
	Capture(dst string) (mime string, err error)
}

// NewDriver creates a camera driver based on the configured type.
func NewDriver(driverType string) (Driver, error) {
	switch driverType {
	case "gphoto2":
		return NewGphoto2Driver(), nil
	case "sim":
		return NewSimDriver(), nil
	default:
		return nil, fmt.Errorf("unknown camera type: %q", driverType)
	}
}

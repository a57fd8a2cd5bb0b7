package turntable

import "fmt"

// Command is one ASCII command of the turntable wire protocol.
// Commands are a fixed grammar terminated by ';', e.g. "+CT,TURNANGLE=30.00;".
type Command struct {
	text string
}

// String renders the command as the ASCII string to send over the link.
func (c Command) String() string {
	return c.text
}

// SetRotationSpeed sets the rotation speed in device units (e.g. 35.64 to 131).
func SetRotationSpeed(v float64) Command {
	return Command{fmt.Sprintf("+CT,TURNSPEED=%.2f;", v)}
}

// SetTiltSpeed sets the tilt speed in device units (e.g. 9 to 35).
func SetTiltSpeed(v float64) Command {
	return Command{fmt.Sprintf("+CR,TILTSPEED=%.2f;", v)}
}

// RotateBy rotates by an angle in degrees. Positive moves right, negative left.
func RotateBy(angleDeg float64) Command {
	return Command{fmt.Sprintf("+CT,TURNANGLE=%.2f;", angleDeg)}
}

// StopRotation stops rotation immediately.
func StopRotation() Command {
	return Command{"+CT,STOP;"}
}

// ZeroRotation zeroes the rotation angle (go to home).
func ZeroRotation() Command {
	return Command{"+CT,TOZERO;"}
}

// ContinuousRotation starts infinite rotation: -1 for left, 1 for right.
func ContinuousRotation(dir int) Command {
	return Command{fmt.Sprintf("+CT,TURNCONTINUE=%d;", dir)}
}

// TiltTo tilts to an absolute position in degrees.
func TiltTo(deg float64) Command {
	return Command{fmt.Sprintf("+CR,TILTVALUE=%.2f;", deg)}
}

// StopTilt stops tilt immediately.
func StopTilt() Command {
	return Command{"+CR,STOP;"}
}

// ZeroTilt zeroes the tilt value (go to neutral).
func ZeroTilt() Command {
	return Command{"+CR,TOZERO;"}
}

// QueryAngle asks the device for its current angle (device replies +DATA=<angle>;).
func QueryAngle() Command {
	return Command{"+QT,CHANGEANGLE;"}
}

// Raw wraps a custom command string (must end with ';').
func Raw(s string) Command {
	return Command{s}
}

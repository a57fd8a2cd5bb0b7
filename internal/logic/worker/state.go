package worker

import (
	"time"

	"github.com/cjeanneret/TurnGo/internal/hw/camera"
	"github.com/cjeanneret/TurnGo/internal/logic/stepping"
)

// CameraPhase enumerates the camera state machine phases.
type CameraPhase int

const (
	CameraDisconnected CameraPhase = iota
	CameraGettingList
	CameraListed
	CameraConnecting
	CameraReady
	CameraFailed
	CameraCapturing
)

func (p CameraPhase) String() string {
	switch p {
	case CameraDisconnected:
		return "disconnected"
	case CameraGettingList:
		return "getting_camera_list"
	case CameraListed:
		return "cameras_listed"
	case CameraConnecting:
		return "camera_connecting"
	case CameraReady:
		return "ready"
	case CameraFailed:
		return "failed"
	case CameraCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// CameraState is an immutable snapshot published on every camera worker
// transition. Capturing carries the in-flight sequence number; Ready and
// Failed carry the sequence number of the last resolved capture so that
// subscribers which miss the intermediate Capturing broadcast can still
// correlate the terminal state with their request.
type CameraState struct {
	Phase   CameraPhase
	Cameras []camera.Spec // set when Phase == CameraListed
	Seq     uint32        // capture correlation, meaningful iff HasSeq
	HasSeq  bool
}

// CameraCommandKind enumerates camera worker commands.
type CameraCommandKind int

const (
	CameraCmdList CameraCommandKind = iota
	CameraCmdConnect
	CameraCmdCapture
)

// CameraCommand is one inbound command for the camera worker.
type CameraCommand struct {
	Kind       CameraCommandKind
	Spec       camera.Spec   // for CameraCmdConnect
	Seq        uint32        // for CameraCmdCapture
	ExtraDelay time.Duration // for CameraCmdCapture
}

// ImageHandle names a just-captured original image. Produced once per
// successful capture, consumed exactly once by the preview stage.
type ImageHandle struct {
	Seq  uint32
	Path string
}

// TablePhase enumerates the turntable state machine phases.
type TablePhase int

const (
	TableUninitialised TablePhase = iota
	TableConnecting
	TableConnected
	TableReturningToReset
	TableStepping
	TablePaused
)

func (p TablePhase) String() string {
	switch p {
	case TableUninitialised:
		return "uninitialised"
	case TableConnecting:
		return "connecting"
	case TableConnected:
		return "connected"
	case TableReturningToReset:
		return "returning_to_reset_position"
	case TableStepping:
		return "stepping"
	case TablePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TableState is an immutable snapshot published on every turntable
// worker transition. Stepping holds the progress snapshot when the
// phase is TableStepping or TablePaused.
type TableState struct {
	Phase       TablePhase
	Stepping    stepping.State
	HasStepping bool
}

// TableCommandKind enumerates turntable worker commands.
type TableCommandKind int

const (
	TableCmdConnect TableCommandKind = iota
	TableCmdDisconnect
	TableCmdResetPosition
	TableCmdStep
	TableCmdPause
	TableCmdResume
)

func (k TableCommandKind) String() string {
	switch k {
	case TableCmdConnect:
		return "connect"
	case TableCmdDisconnect:
		return "disconnect"
	case TableCmdResetPosition:
		return "reset_position"
	case TableCmdStep:
		return "step"
	case TableCmdPause:
		return "pause_stepping"
	case TableCmdResume:
		return "resume_stepping"
	default:
		return "unknown"
	}
}

// TableCommand is one inbound command for the turntable worker.
type TableCommand struct {
	Kind TableCommandKind
	Job  stepping.Job // for TableCmdStep
}

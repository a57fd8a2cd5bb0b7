package worker

import (
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cjeanneret/TurnGo/internal/debug"
	"github.com/cjeanneret/TurnGo/internal/hw/camera"
)

// CameraWorker owns camera connectivity and at most one in-flight
// capture. It consumes commands from a queue and publishes every state
// transition on a broadcaster observed independently by the control
// surface and the turntable worker.
type CameraWorker struct {
	driver camera.Driver
	cmds   <-chan CameraCommand
	states *Broadcaster[CameraState]
	images chan<- ImageHandle

	tempDir string
	newID   func() string
	sleep   func(time.Duration)

	cam   camera.Camera
	state CameraState
}

// NewCameraWorker wires a camera worker. The images channel receives
// one ImageHandle per successful capture and is closed when the worker
// stops (command channel closed).
func NewCameraWorker(driver camera.Driver, cmds <-chan CameraCommand, states *Broadcaster[CameraState], images chan<- ImageHandle) *CameraWorker {
	return &CameraWorker{
		driver:  driver,
		cmds:    cmds,
		states:  states,
		images:  images,
		tempDir: os.TempDir(),
		newID:   uuid.NewString,
		sleep:   time.Sleep,
		state:   CameraState{Phase: CameraDisconnected},
	}
}

// Run processes commands until the command channel closes.
func (w *CameraWorker) Run() {
	w.publish()
	for cmd := range w.cmds {
		w.handle(cmd)
	}
	close(w.images)
}

func (w *CameraWorker) publish() {
	w.states.Publish(w.state)
}

func (w *CameraWorker) setState(s CameraState) {
	w.state = s
	w.publish()
}

func (w *CameraWorker) handle(cmd CameraCommand) {
	switch cmd.Kind {
	case CameraCmdList:
		w.handleList()
	case CameraCmdConnect:
		w.handleConnect(cmd.Spec)
	case CameraCmdCapture:
		w.handleCapture(cmd.Seq, cmd.ExtraDelay)
	default:
		debug.Verbose("camera worker: unknown command %d ignored", cmd.Kind)
		w.publish()
	}
}

func (w *CameraWorker) handleList() {
	w.setState(CameraState{Phase: CameraGettingList})
	specs, err := w.driver.List()
	if err != nil {
		debug.Error(err)
		w.setState(CameraState{Phase: CameraDisconnected})
		return
	}
	w.setState(CameraState{Phase: CameraListed, Cameras: specs})
}

func (w *CameraWorker) handleConnect(spec camera.Spec) {
	w.setState(CameraState{Phase: CameraConnecting})
	cam, err := w.driver.Connect(spec)
	if err != nil {
		debug.Error(err)
		w.cam = nil
		w.setState(CameraState{Phase: CameraDisconnected})
		return
	}
	debug.Info("Connected to camera %s (%s)", spec.Name, spec.ID)
	w.cam = cam
	w.setState(CameraState{Phase: CameraReady})
}

// handleCapture runs one capture. Requests arriving while the worker is
// not Ready or Failed are ignored, not queued; the current state is
// re-published so observers still get a fresh snapshot.
func (w *CameraWorker) handleCapture(seq uint32, extraDelay time.Duration) {
	if (w.state.Phase != CameraReady && w.state.Phase != CameraFailed) || w.cam == nil {
		debug.Live("capture seq=%d requested, but no camera is ready (state %s)", seq, w.state.Phase)
		w.publish()
		return
	}

	w.setState(CameraState{Phase: CameraCapturing, Seq: seq, HasSeq: true})

	if extraDelay > 0 {
		w.sleep(extraDelay)
	}

	dst := filepath.Join(w.tempDir, "image_"+w.newID())
	mimeType, err := w.cam.Capture(dst)
	if err != nil {
		debug.Error(err)
		w.setState(CameraState{Phase: CameraFailed, Seq: seq, HasSeq: true})
		return
	}

	// Rename with the canonical extension for the reported MIME type.
	// A rename failure is soft: the original path is still usable.
	final := dst
	if ext := extensionForMIME(mimeType); ext != "" {
		withExt := dst + ext
		if err := os.Rename(dst, withExt); err != nil {
			debug.Verbose("rename %s -> %s failed: %v", dst, withExt, err)
		} else {
			final = withExt
		}
	}

	w.images <- ImageHandle{Seq: seq, Path: final}
	debug.Capture(seq, final)
	w.setState(CameraState{Phase: CameraReady, Seq: seq, HasSeq: true})
}

// canonicalExts prefers the conventional extension where the platform
// MIME table is ambiguous (e.g. ".jpe" for image/jpeg).
var canonicalExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/tiff": ".tif",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/webp": ".webp",
}

// extensionForMIME maps a MIME type to a file extension, or "" when no
// mapping exists (the rename is then skipped).
func extensionForMIME(mimeType string) string {
	if ext, ok := canonicalExts[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/cjeanneret/TurnGo/internal/debug"
	"github.com/cjeanneret/TurnGo/internal/hw/turntable"
	"github.com/cjeanneret/TurnGo/internal/logic/stepping"
)

var (
	// ErrCaptureFailed means the camera resolved our capture request to
	// its Failed state.
	ErrCaptureFailed = errors.New("worker: capture failed")

	// ErrCaptureRefused means the camera ignored our capture request
	// because no camera was ready.
	ErrCaptureRefused = errors.New("worker: capture refused, camera not ready")

	// ErrCameraGone means the camera state broadcast ended mid-wait.
	ErrCameraGone = errors.New("worker: camera state stream closed")
)

// Capture retry policy: a failed capture is retried with the same
// sequence number, without advancing position, before the sequence
// pauses for manual resume.
const (
	captureAttempts = 3
	captureBackoff  = 2 * time.Second
)

// TurntableWorker owns turntable connectivity and the stepping
// sequence. It drives the camera worker through its command queue and
// synchronizes each step on the camera state broadcast, matching
// capture requests to resolutions by sequence number.
type TurntableWorker struct {
	table        turntable.Table
	cmds         <-chan TableCommand
	states       *Broadcaster[TableState]
	cameraCmds   chan<- CameraCommand
	cameraStates <-chan CameraState

	sleep func(time.Duration)
	state TableState
}

// NewTurntableWorker wires a turntable worker. cameraStates must be a
// dedicated subscription to the camera state broadcast; the worker
// consumes it during sync-waits and drains it between steps.
func NewTurntableWorker(table turntable.Table, cmds <-chan TableCommand, states *Broadcaster[TableState],
	cameraCmds chan<- CameraCommand, cameraStates <-chan CameraState) *TurntableWorker {
	return &TurntableWorker{
		table:        table,
		cmds:         cmds,
		states:       states,
		cameraCmds:   cameraCmds,
		cameraStates: cameraStates,
		sleep:        time.Sleep,
		state:        TableState{Phase: TableUninitialised},
	}
}

// Run processes commands until the command channel closes.
func (w *TurntableWorker) Run() {
	w.publish()
	for cmd := range w.cmds {
		w.handle(cmd)
	}
}

func (w *TurntableWorker) publish() {
	w.states.Publish(w.state)
}

func (w *TurntableWorker) setPhase(p TablePhase) {
	w.state = TableState{Phase: p}
	w.publish()
}

func (w *TurntableWorker) setStepping(p TablePhase, st stepping.State) {
	w.state = TableState{Phase: p, Stepping: st, HasStepping: true}
	w.publish()
}

// handle applies one command to the current state. Combinations not in
// the transition table are no-ops that still re-publish the state, so
// the control surface always gets a fresh snapshot.
func (w *TurntableWorker) handle(cmd TableCommand) {
	switch cmd.Kind {
	case TableCmdConnect:
		if w.state.Phase != TableUninitialised {
			w.ignored(cmd)
			return
		}
		w.connect()

	case TableCmdDisconnect:
		switch w.state.Phase {
		case TableConnected, TableStepping, TablePaused:
			w.disconnect()
		default:
			w.ignored(cmd)
		}

	case TableCmdResetPosition:
		if w.state.Phase != TableConnected {
			w.ignored(cmd)
			return
		}
		w.resetPosition()

	case TableCmdStep:
		if w.state.Phase != TableConnected {
			w.ignored(cmd)
			return
		}
		if err := cmd.Job.Validate(); err != nil {
			debug.Error(fmt.Errorf("rejecting step job: %w", err))
			w.publish()
			return
		}
		debug.Sequence(cmd.Job.RotationStepCount, cmd.Job.TiltStepCount, int(cmd.Job.TotalSteps()))
		w.setStepping(TableStepping, stepping.NewState(cmd.Job))
		w.runSequence()

	case TableCmdPause:
		// Pause between steps is handled inside runSequence; reaching
		// here means no sequence is running.
		w.ignored(cmd)

	case TableCmdResume:
		if w.state.Phase != TablePaused {
			w.ignored(cmd)
			return
		}
		// The snapshot names the step still to perform, so resume
		// re-runs it even when it is the terminal one.
		st := w.state.Stepping
		debug.Live("Resuming sequence at step %d/%d", st.OverallStep()+1, st.Job.TotalSteps())
		w.setStepping(TableStepping, st)
		w.runSequence()

	default:
		w.ignored(cmd)
	}
}

func (w *TurntableWorker) ignored(cmd TableCommand) {
	debug.Verbose("turntable worker: command %s ignored in state %s", cmd.Kind, w.state.Phase)
	w.publish()
}

func (w *TurntableWorker) connect() {
	w.setPhase(TableConnecting)
	if err := w.table.Connect(); err != nil {
		debug.Error(err)
		w.setPhase(TableUninitialised)
		return
	}
	if err := w.table.Configure(); err != nil {
		debug.Error(err)
		_ = w.table.Disconnect()
		w.setPhase(TableUninitialised)
		return
	}
	debug.Info("Turntable connected and configured")
	w.setPhase(TableConnected)
}

func (w *TurntableWorker) disconnect() {
	// Best-effort: a failing disconnect still drops the device.
	if err := w.table.Disconnect(); err != nil {
		debug.Verbose("disconnect error ignored: %v", err)
	}
	w.setPhase(TableUninitialised)
}

func (w *TurntableWorker) resetPosition() {
	w.setPhase(TableReturningToReset)
	if err := w.table.ResetPosition(); err != nil {
		debug.Error(fmt.Errorf("reset position: %w", err))
	}
	w.setPhase(TableConnected)
}

// runSequence advances the stepping sequence autonomously until it
// completes, fails, or a pause/disconnect arrives at a step boundary.
// Commands are only polled between steps, never during one.
func (w *TurntableWorker) runSequence() {
	for {
		if stop := w.pollCommands(); stop {
			return
		}

		st := w.state.Stepping

		// Initial tilt positioning, repeated on resume if it never
		// completed.
		if !st.Positioned {
			if err := w.position(&st); err != nil {
				debug.Error(err)
				w.setStepping(TablePaused, st)
				return
			}
			w.state.Stepping = st
		}

		if err := w.captureStep(st); err != nil {
			debug.Error(fmt.Errorf("step %d: %w", st.OverallStep(), err))
			w.setStepping(TablePaused, st)
			return
		}

		if err := w.advanceMotors(st); err != nil {
			debug.Error(fmt.Errorf("step %d: %w", st.OverallStep(), err))
			w.setStepping(TablePaused, st)
			return
		}

		debug.StepOf(st.OverallStep(), st.Job.TotalSteps())

		if st.Done() {
			if err := w.table.ResetTilt(); err != nil {
				debug.Verbose("final tilt reset failed: %v", err)
			}
			debug.Info("Sequence complete: %d captures", st.Job.TotalSteps())
			w.setPhase(TableConnected)
			return
		}

		w.setStepping(TableStepping, st.Next())
	}
}

// pollCommands checks the command queue without blocking. It reports
// true when the sequence must stop (paused, disconnected, or the queue
// closed).
func (w *TurntableWorker) pollCommands() bool {
	for {
		select {
		case cmd, ok := <-w.cmds:
			if !ok {
				w.setStepping(TablePaused, w.state.Stepping)
				return true
			}
			switch cmd.Kind {
			case TableCmdPause:
				debug.Live("Pausing sequence at step %d", w.state.Stepping.OverallStep())
				w.setStepping(TablePaused, w.state.Stepping)
				return true
			case TableCmdDisconnect:
				w.disconnect()
				return true
			default:
				w.ignored(cmd)
			}
		default:
			return false
		}
	}
}

// position zeroes the tilt axis and moves it to the job's lower bound.
func (w *TurntableWorker) position(st *stepping.State) error {
	if err := w.table.ResetTilt(); err != nil {
		return fmt.Errorf("reset tilt: %w", err)
	}
	if st.Job.TiltLowerDeg != 0 {
		if err := w.table.StepTilt(st.Job.TiltLowerDeg); err != nil {
			return fmt.Errorf("tilt to lower bound: %w", err)
		}
	}
	st.Positioned = true
	return nil
}

// captureStep requests a capture for the current overall step and waits
// for its resolution, retrying the same sequence number on failure.
// Retries never advance position.
func (w *TurntableWorker) captureStep(st stepping.State) error {
	seq := st.OverallStep()
	var err error
	for attempt := 1; attempt <= captureAttempts; attempt++ {
		// Stale states buffered from earlier steps or out-of-band
		// captures must not satisfy this wait.
		Drain(w.cameraStates)

		w.cameraCmds <- CameraCommand{Kind: CameraCmdCapture, Seq: seq, ExtraDelay: st.Job.ExtraDelay}

		err = w.awaitCapture(seq)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCameraGone) {
			return err
		}
		if attempt < captureAttempts {
			debug.Verbose("capture seq=%d attempt %d/%d failed (%v), retrying", seq, attempt, captureAttempts, err)
			w.sleep(captureBackoff)
		}
	}
	return fmt.Errorf("capture seq=%d exhausted %d attempts: %w", seq, captureAttempts, err)
}

// awaitCapture consumes camera state broadcasts until the capture with
// the given sequence number resolves. The protocol tolerates lossy
// broadcasts: a terminal Ready/Failed carrying our sequence number
// resolves the wait even if the intermediate Capturing snapshot was
// never observed. States tied to other sequence numbers are ignored.
func (w *TurntableWorker) awaitCapture(seq uint32) error {
	sawCapturing := false
	for state := range w.cameraStates {
		switch state.Phase {
		case CameraCapturing:
			if state.HasSeq && state.Seq == seq {
				sawCapturing = true
			}
			// A different sequence number is a stale or out-of-band
			// capture; keep waiting.
		case CameraReady:
			if (state.HasSeq && state.Seq == seq) || sawCapturing {
				return nil
			}
			if !state.HasSeq && !sawCapturing {
				// Ready with no capture history: our request was
				// re-published as a no-op before any capture ran.
				continue
			}
		case CameraFailed:
			if (state.HasSeq && state.Seq == seq) || sawCapturing {
				return ErrCaptureFailed
			}
		default:
			if !sawCapturing {
				// The camera re-published a non-capture state after
				// our request: the capture was ignored, not queued.
				return fmt.Errorf("%w (camera state %s)", ErrCaptureRefused, state.Phase)
			}
		}
	}
	return ErrCameraGone
}

// advanceMotors performs the motion part of one step: one horizontal
// step, plus one tilt increment when the rotation index wraps -- except
// on the terminal step, which has no next tilt level.
func (w *TurntableWorker) advanceMotors(st stepping.State) error {
	if err := w.table.StepHorizontal(st.Job.RotationStepCount); err != nil {
		return fmt.Errorf("step horizontal: %w", err)
	}
	if st.RotationWraps() && !st.Done() {
		if err := w.table.StepTilt(st.Job.TiltIncrement()); err != nil {
			return fmt.Errorf("step tilt: %w", err)
		}
	}
	return nil
}

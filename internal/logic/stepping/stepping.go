package stepping

import (
	"fmt"
	"time"
)

// Job is the immutable configuration for one capture run: a full
// rotation split into RotationStepCount steps, repeated at
// TiltStepCount tilt levels between TiltLowerDeg and TiltUpperDeg.
type Job struct {
	RotationStepCount int
	TiltLowerDeg      float64
	TiltUpperDeg      float64
	TiltStepCount     int
	ExtraDelay        time.Duration // stabilization delay before each capture
}

// Validate rejects jobs that cannot produce at least one step.
func (j Job) Validate() error {
	if j.RotationStepCount < 1 {
		return fmt.Errorf("rotation step count must be >= 1, got %d", j.RotationStepCount)
	}
	if j.TiltStepCount < 1 {
		return fmt.Errorf("tilt step count must be >= 1, got %d", j.TiltStepCount)
	}
	if j.TiltUpperDeg < j.TiltLowerDeg {
		return fmt.Errorf("tilt upper (%.2f) must be >= tilt lower (%.2f)", j.TiltUpperDeg, j.TiltLowerDeg)
	}
	if j.ExtraDelay < 0 {
		return fmt.Errorf("extra delay must be >= 0, got %v", j.ExtraDelay)
	}
	return nil
}

// TiltIncrement is the tilt delta between consecutive tilt levels.
func (j Job) TiltIncrement() float64 {
	return (j.TiltUpperDeg - j.TiltLowerDeg) / float64(j.TiltStepCount)
}

// TotalSteps is the number of captures in the whole run.
func (j Job) TotalSteps() uint32 {
	return uint32(j.RotationStepCount) * uint32(j.TiltStepCount)
}

// State is a progress snapshot within a Job. The indices always name
// the step about to be performed. Values are copied freely; a snapshot
// handed out never mutates.
type State struct {
	Job          Job
	RotationStep int // in [0, RotationStepCount)
	TiltStep     int // in [0, TiltStepCount)

	// Positioned records that the initial tilt positioning (reset +
	// move to the lower bound) completed, so a resume after an early
	// failure repeats it.
	Positioned bool
}

// NewState starts a job at step (0, 0).
func NewState(job Job) State {
	return State{Job: job}
}

// OverallStep is the zero-based index of the current rotate+capture
// unit: tilt level times rotation steps plus rotation index.
func (s State) OverallStep() uint32 {
	return uint32(s.TiltStep)*uint32(s.Job.RotationStepCount) + uint32(s.RotationStep)
}

// Progress reports completion in (0, 1]: the fraction reached once the
// current step finishes.
func (s State) Progress() float64 {
	return float64(s.OverallStep()+1) / float64(s.Job.TotalSteps())
}

// Done reports whether the current step is the last one of the run.
func (s State) Done() bool {
	return s.TiltStep == s.Job.TiltStepCount-1 && s.RotationStep == s.Job.RotationStepCount-1
}

// RotationWraps reports whether finishing the current step completes a
// full rotation, i.e. the rotation index is about to wrap to 0.
func (s State) RotationWraps() bool {
	return s.RotationStep == s.Job.RotationStepCount-1
}

// Next returns the snapshot after one successful step. The overall step
// increments by exactly one: rotation advances, and wraps into the next
// tilt level. Calling Next on a done state returns it unchanged.
func (s State) Next() State {
	if s.Done() {
		return s
	}
	n := s
	n.RotationStep++
	if n.RotationStep == n.Job.RotationStepCount {
		n.RotationStep = 0
		n.TiltStep++
	}
	return n
}

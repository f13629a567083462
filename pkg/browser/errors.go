package browser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedEngine is returned when an engine name is not one of Engines.
	ErrUnsupportedEngine = errors.New("unsupported browser engine")

	// ErrConflictingViewport is returned when a descriptor sets both a device
	// profile and an explicit resolution.
	ErrConflictingViewport = errors.New("device profile and resolution are mutually exclusive")

	// ErrUnknownDevice is returned when the device registry has no such profile.
	ErrUnknownDevice = errors.New("unknown device profile")
	// ErrMobileUnsupported is returned for a mobile device profile on an
	// engine that cannot emulate mobile viewports.
	ErrMobileUnsupported = errors.New("engine does not support mobile device emulation")
)

// SetupError is returned when a session fails while acquiring resources.
// Whatever had been acquired is already torn down; Teardown says how that went.
type SetupError struct {
	Stage      Stage
	Descriptor Descriptor
	Err        error
	Teardown   *TeardownReport

	// Transitions is the path the session took, ending in CLOSED.
	Transitions []State
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("session setup failed at %s (%s): %v", e.Stage, e.Descriptor, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// IsSetupError reports whether err is or wraps a SetupError.
func IsSetupError(err error) bool {
	var setupErr *SetupError
	return errors.As(err, &setupErr)
}

// TeardownError is a single failed teardown step.
type TeardownError struct {
	Step Step
	Err  error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown %s: %v", e.Step, e.Err)
}

func (e *TeardownError) Unwrap() error {
	return e.Err
}

// StepResult is the outcome of one teardown step.
type StepResult struct {
	Step Step
	Err  error
}

// TeardownReport lists the teardown steps that ran, in order.
type TeardownReport struct {
	SessionID string
	Steps     []StepResult
}

// run executes fn as step, turning a panic into an error so the next step
// still runs.
func (r *TeardownReport) run(step Step, fn func() error) error {
	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		err = fn()
	}()

	result := StepResult{Step: step}
	if err != nil {
		result.Err = &TeardownError{Step: step, Err: err}
	}
	r.Steps = append(r.Steps, result)
	return result.Err
}

// Ran reports the steps that executed.
func (r *TeardownReport) Ran() []Step {
	if r == nil {
		return nil
	}
	steps := make([]Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		steps = append(steps, s.Step)
	}
	return steps
}

// Failed reports whether any step failed.
func (r *TeardownReport) Failed() bool {
	return r.Err() != nil
}

// Failures returns the failed steps.
func (r *TeardownReport) Failures() []*TeardownError {
	if r == nil {
		return nil
	}
	var out []*TeardownError
	for _, s := range r.Steps {
		var te *TeardownError
		if errors.As(s.Err, &te) {
			out = append(out, te)
		}
	}
	return out
}

// Err joins every step failure, or returns nil.
func (r *TeardownReport) Err() error {
	var errs []error
	for _, f := range r.Failures() {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (r *TeardownReport) String() string {
	if r == nil || len(r.Steps) == 0 {
		return "no teardown steps"
	}
	parts := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		if s.Err != nil {
			parts = append(parts, fmt.Sprintf("%s=failed", s.Step))
		} else {
			parts = append(parts, fmt.Sprintf("%s=ok", s.Step))
		}
	}
	return strings.Join(parts, " ")
}

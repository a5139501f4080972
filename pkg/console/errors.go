package console

import (
	"errors"

	"digital.vasic.testconsole/pkg/testcase"
)

var (
	// ErrControlDisabled is returned when an action is dispatched
	// while its control is disabled by a workflow in flight.
	ErrControlDisabled = errors.New("control is disabled")
	// ErrUnknownAction is returned for an action with no handler.
	ErrUnknownAction = errors.New("unknown action")
	// ErrMissingID is returned when execute is dispatched without a
	// test case id.
	ErrMissingID = errors.New("test case id is required")
	// ErrNotToggleable is returned when toggling an index that is
	// out of range or holds a placeholder.
	ErrNotToggleable = errors.New("item has no details")
)

// Step names a stage of the execute pipeline.
type Step string

const (
	StepExecute Step = "execute"
	StepReport  Step = "report"
)

// StepError is a failure of one execute pipeline stage.
type StepError struct {
	Step Step
	ID   testcase.ID
	Err  error
}

func (e *StepError) Error() string {
	return e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }

// IsRejection reports whether err came from a request Dispatch
// refused without touching the state. Any other Dispatch error is a
// backend failure already shown in the returned state.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrControlDisabled) ||
		errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrNotToggleable)
}

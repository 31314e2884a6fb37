package recorder

import "fmt"

// RecorderError wraps a failure from a specific result sink.
type RecorderError struct {
	Recorder string
	Msg      string
	Err      error
}

func (e *RecorderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RecorderError) Unwrap() error {
	return e.Err
}

// ErrUnavailable indicates the sink could not be opened or reached.
func ErrUnavailable(recorder string, err error) error {
	return &RecorderError{
		Recorder: recorder,
		Msg:      fmt.Sprintf("recorder '%s' not available", recorder),
		Err:      err,
	}
}

// ErrWriteFailed indicates a record could not be written.
func ErrWriteFailed(recorder string, err error) error {
	return &RecorderError{
		Recorder: recorder,
		Msg:      fmt.Sprintf("failed to write result to '%s'", recorder),
		Err:      err,
	}
}

// ErrMisconfigured indicates a required setting is missing.
func ErrMisconfigured(recorder, setting string) error {
	return &RecorderError{
		Recorder: recorder,
		Msg:      fmt.Sprintf("recorder '%s' requires %s", recorder, setting),
	}
}

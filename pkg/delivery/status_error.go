package delivery

import "github.com/crashlink-project/crashlink-go/pkg/wire"

// StatusError wraps a non-success handler status for callers that want the
// failure as an error value. The delivery layer itself reports handler
// failure through RaiseResult.Status; this type exists for surfaces (CLIs,
// higher layers) that propagate it as an error.
type StatusError struct {
	Status wire.Status
}

func (e *StatusError) Error() string {
	return "handler returned " + e.Status.String()
}

// StatusToError converts a handler status to an error: nil for success, a
// *StatusError otherwise.
func StatusToError(status wire.Status) error {
	if status.IsSuccess() {
		return nil
	}
	return &StatusError{Status: status}
}

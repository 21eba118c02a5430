package wire

// Status is a handler return code carried in a raise reply. The numbering
// follows the kernel return-code space.
type Status uint32

const (
	// StatusSuccess indicates the exception was handled.
	StatusSuccess Status = 0

	// StatusInvalidArgument indicates a malformed or out-of-range field.
	StatusInvalidArgument Status = 4

	// StatusFailure indicates the handler could not handle the exception.
	StatusFailure Status = 5

	// StatusNoAccess indicates the handler refused the request.
	StatusNoAccess Status = 8

	// StatusAborted indicates handling was interrupted before completion.
	StatusAborted Status = 14
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusFailure:
		return "FAILURE"
	case StatusNoAccess:
		return "NO_ACCESS"
	case StatusAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}

// Package errors provides the interview service error taxonomy and its
// translation to gRPC status values.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an error outside the taxonomy.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidInput marks a malformed or missing field; the caller may retry
	// after correcting the request.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeNotFound marks a referenced session or question that does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeAccessDenied marks a session owned by another user.
	CodeAccessDenied Code = "ACCESS_DENIED"
	// CodeInvalidState marks a write against a completed session.
	CodeInvalidState Code = "INVALID_STATE"
	// CodeExternalServiceUnavailable marks an unreachable or timed-out
	// collaborator. The coordinator recovers from it locally.
	CodeExternalServiceUnavailable Code = "EXTERNAL_SERVICE_UNAVAILABLE"
	// CodeStorageFailure marks a persistence error. It is opaque to callers.
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidInput:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeAccessDenied:
		return codes.PermissionDenied
	case CodeInvalidState:
		return codes.FailedPrecondition
	case CodeExternalServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

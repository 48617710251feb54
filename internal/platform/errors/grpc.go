package errors

import (
	"bytes"
	"errors"
	"text/template"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultLocale is the locale of the built-in user messages.
const DefaultLocale = "en-US"

// userMessages holds the en-US user-facing template per code. Templates read
// from Error.Metadata.
var userMessages = map[Code]string{
	CodeInvalidInput:               "{{if .field}}{{.field}} is invalid{{else}}request is invalid{{end}}",
	CodeNotFound:                   "{{if .resource}}{{.resource}} not found{{else}}not found{{end}}",
	CodeAccessDenied:               "access denied",
	CodeInvalidState:               "interview session is already completed",
	CodeExternalServiceUnavailable: "a dependent service is unavailable",
	CodeStorageFailure:             "an unexpected error occurred",
}

// HandleError converts domain errors to gRPC status for client responses.
// Non-domain errors become an opaque Internal status.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ToGRPCStatus(DefaultLocale, FormatUserMessage(appErr.Code, appErr.Metadata))
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// FormatUserMessage renders the user-facing message for code. Unknown codes
// render as the code itself.
func FormatUserMessage(code Code, metadata map[string]string) string {
	tmpl, ok := userMessages[code]
	if !ok {
		return string(code)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

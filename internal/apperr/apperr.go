package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in the API envelope. Every failure in the request
// path is one of these; handlers map them to HTTP statuses.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeUnauthorized      = "unauthorized"
	CodeQuotaExceeded     = "quota_exceeded"
	CodeGenerationFailed  = "generation_failed"
	CodePersistenceFailed = "persistence_failed"
	CodeRecordingFailed   = "recording_failed"
	CodeSignatureInvalid  = "signature_invalid"
	CodeInternal          = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, fmt.Errorf(format, args...))
}

func QuotaExceeded(format string, args ...any) *Error {
	return New(http.StatusTooManyRequests, CodeQuotaExceeded, fmt.Errorf(format, args...))
}

func GenerationFailed(err error) *Error {
	return New(http.StatusInternalServerError, CodeGenerationFailed, err)
}

func PersistenceFailed(err error) *Error {
	return New(http.StatusInternalServerError, CodePersistenceFailed, err)
}

func RecordingFailed(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeRecordingFailed, fmt.Errorf(format, args...))
}

func SignatureInvalid(err error) *Error {
	return New(http.StatusBadRequest, CodeSignatureInvalid, err)
}

// StatusAndCode resolves any error to the HTTP status and code the
// boundary should report. Unrecognized errors are internal.
func StatusAndCode(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := ae.Code
		if code == "" {
			code = CodeInternal
		}
		return status, code
	}
	return http.StatusInternalServerError, CodeInternal
}

func IsCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

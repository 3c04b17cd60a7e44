package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{Validation("bad input"), http.StatusBadRequest, CodeValidation},
		{NotFound("missing"), http.StatusNotFound, CodeNotFound},
		{Unauthorized("nope"), http.StatusUnauthorized, CodeUnauthorized},
		{QuotaExceeded("over"), http.StatusTooManyRequests, CodeQuotaExceeded},
		{GenerationFailed(errors.New("boom")), http.StatusInternalServerError, CodeGenerationFailed},
		{PersistenceFailed(errors.New("db down")), http.StatusInternalServerError, CodePersistenceFailed},
		{RecordingFailed("index 9"), http.StatusNotFound, CodeRecordingFailed},
		{SignatureInvalid(errors.New("bad sig")), http.StatusBadRequest, CodeSignatureInvalid},
		{errors.New("plain"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		status, code := StatusAndCode(tc.err)
		if status != tc.wantStatus || code != tc.wantCode {
			t.Fatalf("StatusAndCode(%v) = (%d, %q), want (%d, %q)", tc.err, status, code, tc.wantStatus, tc.wantCode)
		}
	}
}

func TestStatusAndCodeWrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", QuotaExceeded("over"))
	status, code := StatusAndCode(wrapped)
	if status != http.StatusTooManyRequests || code != CodeQuotaExceeded {
		t.Fatalf("wrapped error lost its classification: (%d, %q)", status, code)
	}
}

func TestIsCode(t *testing.T) {
	err := RecordingFailed("index 3")
	if !IsCode(err, CodeRecordingFailed) {
		t.Fatalf("IsCode must match the error's own code")
	}
	if IsCode(err, CodeValidation) {
		t.Fatalf("IsCode must not match a different code")
	}
	if IsCode(errors.New("plain"), CodeValidation) {
		t.Fatalf("IsCode must be false for untyped errors")
	}
}

package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewAlreadyClaimed("member-1")
	mapped := ToDomainError(fmt.Errorf("wrapped: %w", original))
	if mapped.Code != CodeAlreadyClaimed {
		t.Fatalf("code = %s, want %s", mapped.Code, CodeAlreadyClaimed)
	}
	if mapped.Details["claimed_by"] != "member-1" {
		t.Fatalf("details = %v", mapped.Details)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("connection reset")
	mapped := ToDomainError(cause)
	if mapped.Code != CodeInternal || mapped.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("mapped = %+v", mapped)
	}
	if !errors.Is(mapped, cause) {
		t.Fatal("cause not preserved through Unwrap")
	}
}

func TestHasCode(t *testing.T) {
	err := NewQuotaExceeded(3, 3)
	if !HasCode(err, CodeQuotaExceeded) {
		t.Fatal("HasCode missed matching code")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatal("HasCode matched wrong code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Fatal("HasCode matched non-domain error")
	}
	if HasCode(nil, CodeInternal) {
		t.Fatal("HasCode matched nil")
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewNotFound("ticket", nil), http.StatusNotFound},
		{NewUnauthorized("no token"), http.StatusUnauthorized},
		{NewForbidden("nope"), http.StatusForbidden},
		{NewAlreadyClosed(), http.StatusConflict},
		{NewOwnerImmutable(), http.StatusConflict},
		{NewFeatureDisabled("claims"), http.StatusConflict},
	}
	for _, tc := range tests {
		if got := ToDomainError(tc.err).HTTPStatus; got != tc.status {
			t.Fatalf("%v status = %d, want %d", tc.err, got, tc.status)
		}
	}
}

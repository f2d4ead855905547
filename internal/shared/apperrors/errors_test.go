package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Authorization("not yours"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{StateConflict("already paid"), http.StatusConflict},
		{GatewayInitiation(nil, "push rejected"), http.StatusBadGateway},
		{GatewayDeclined("cancelled"), http.StatusBadGateway},
		{GatewayVerificationTimeout("no answer"), http.StatusGatewayTimeout},
		{Internal(errors.New("boom"), "unexpected"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("while deciding: %w", StateConflict("already settled"))
	if !IsStateConflict(err) {
		t.Errorf("wrapped state conflict not detected: %v", err)
	}
	if KindOf(err) != KindStateConflict {
		t.Errorf("kind = %s, want %s", KindOf(err), KindStateConflict)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := GatewayInitiation(cause, "failed to reach gateway")
	if err.Error() != "failed to reach gateway: connection refused" {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

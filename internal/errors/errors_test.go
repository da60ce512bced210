package errors_test

import (
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/rsilvagit/go-empleo/internal/errors"
)

func TestIs_SeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("gateway: fetch jobs: %w", apperrors.Network("executing request", nil))

	if !apperrors.Is(err, apperrors.ErrTypeNetwork) {
		t.Error("Is(wrapped network error, NETWORK) should be true")
	}
	if apperrors.Is(err, apperrors.ErrTypeProtocol) {
		t.Error("Is(wrapped network error, PROTOCOL) should be false")
	}
	if apperrors.Is(fmt.Errorf("plain"), apperrors.ErrTypeNetwork) {
		t.Error("Is(plain error) should be false")
	}
}

func TestRequest_CarriesStatusCode(t *testing.T) {
	err := apperrors.Request(503, "unexpected status")

	if got := apperrors.StatusCode(err); got != 503 {
		t.Errorf("StatusCode = %d, want 503", got)
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("Error() = %q, want it to mention the status", err.Error())
	}
	if len(err.StackTrace()) == 0 {
		t.Error("expected a captured stack trace")
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{apperrors.Network("x", nil), "No se pudo conectar con el servidor. Inténtalo de nuevo."},
		{apperrors.Request(500, "x"), "La solicitud falló (código 500)."},
		{apperrors.NotFound("x", nil), "El trabajo solicitado no existe."},
		{apperrors.InvalidInput("método desconocido", nil), "método desconocido"},
		{fmt.Errorf("boom"), "Ocurrió un error inesperado."},
	}
	for _, c := range cases {
		if got := apperrors.UserMessage(c.err); got != c.want {
			t.Errorf("UserMessage(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

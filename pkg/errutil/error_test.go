package errutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelpersKeepCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("could not save", cause, WithReason("tenant_persistence_failed"))

	var base BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, StatusInternal, base.Code)
	require.Equal(t, "tenant_persistence_failed", base.Reason)
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusInternalServerError, base.Code.HTTPStatus())
}

func TestFrom(t *testing.T) {
	conflict := Conflict("admin email already registered", nil)
	require.Equal(t, StatusConflict, From(fmt.Errorf("wrap: %w", conflict)).Code)
	require.Equal(t, http.StatusConflict, From(conflict).Code.HTTPStatus())

	require.Equal(t, StatusTimeout, From(context.DeadlineExceeded).Code)

	unknown := From(errors.New("boom"))
	require.Equal(t, StatusInternal, unknown.Code)
	require.Equal(t, "internal error", unknown.Message)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[CoreStatus]int{
		StatusValidationFailed:   http.StatusUnprocessableEntity,
		StatusBadRequest:         http.StatusBadRequest,
		StatusNotFound:           http.StatusNotFound,
		StatusForbidden:          http.StatusForbidden,
		StatusServiceUnavailable: http.StatusServiceUnavailable,
		StatusUnknown:            http.StatusInternalServerError,
	}
	for status, want := range cases {
		require.Equal(t, want, status.HTTPStatus(), status)
	}
}

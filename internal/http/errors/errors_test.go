package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, stderrors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
	require.NotContains(t, rec.Body.String(), "connection refused")
}

func TestWithDetailCopies(t *testing.T) {
	e := ErrMissingFields.WithDetail("email")
	require.Equal(t, "email", e.Detail)
	require.Empty(t, ErrMissingFields.Detail)

	rec := httptest.NewRecorder()
	WriteError(rec, e)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"code":"MISSING_FIELDS","message":"Faltan campos requeridos en la solicitud.","detail":"email"}`, rec.Body.String())
}

func TestCauseUnwraps(t *testing.T) {
	cause := stderrors.New("boom")
	e := ErrDeliveryFailed.WithCause(cause)
	require.ErrorIs(t, e, cause)
	require.Equal(t, http.StatusBadGateway, FromError(e).HTTPStatus)
}

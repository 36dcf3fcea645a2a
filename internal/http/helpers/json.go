// Package helpers reúne utilidades HTTP compartidas por los controllers.
package helpers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/dropDatabas3/idgate/internal/http/errors"
)

// MaxBodySize es el límite por defecto de los bodies JSON.
const MaxBodySize = 64 * 1024

// ReadJSON decodifica el body en v. Devuelve false si ya escribió el error HTTP.
// Los campos desconocidos se ignoran; un body vacío cuenta como {}.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "application/json") {
		errors.WriteError(w, errors.ErrBadRequest.WithDetail("Content-Type debe ser application/json"))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			errors.WriteError(w, errors.ErrBodyTooLarge)
			return false
		}
		errors.WriteError(w, errors.ErrInvalidJSON)
		return false
	}
	return true
}

// WriteJSON escribe v con el status indicado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK escribe {"ok": true}.
func OK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ClientIP extrae la IP del cliente, considerando X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// BearerToken extrae el token de "Authorization: Bearer <t>". Vacío si no hay.
func BearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[7:])
}

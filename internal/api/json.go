package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/techdocs/internal/apperr"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 10 << 20

// errListingFailed is the client-facing message when the walker fails.
const errListingFailed = "listing failed"

// envelope is the response shape shared by every /api route.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeOK(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: msg})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// writeError maps err onto its HTTP status. Internal errors are logged and
// reported as "internal error".
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	writeErrorAs(w, r, op, err, "internal error")
}

// writeErrorAs is writeError with a caller-chosen message for internal errors.
func writeErrorAs(w http.ResponseWriter, r *http.Request, op string, err error, internalMsg string) {
	if errors.Is(err, errBodyTooLarge) {
		writeFail(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if apperr.IsInternal(err) {
		slog.Error(op+" failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeFail(w, http.StatusInternalServerError, internalMsg)
		return
	}
	writeFail(w, apperr.Status(err), err.Error())
}

// decodeJSON reads a size-limited JSON body into dst and runs its
// validation rules.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errInvalidJSON
	}
	return dst.Validate()
}

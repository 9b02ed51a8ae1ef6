// Package httputil holds small JSON helpers shared by the HTTP handlers.
package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// DefaultMaxBody bounds request bodies read by ReadJSON.
const DefaultMaxBody int64 = 1 << 20

// ErrEmptyBody is returned when a JSON request carries no body.
var ErrEmptyBody = errors.New("empty request body")

// ReadJSON decodes the request body into out, bounded by maxBytes.
func ReadJSON(r *http.Request, out any, maxBytes int64) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes+1))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// WriteJSON encodes v as the response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// WriteError sends the standard error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

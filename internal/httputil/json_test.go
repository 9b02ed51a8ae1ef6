package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"guess":"CRANE"}`))
	var out struct {
		Guess string `json:"guess"`
	}
	require.NoError(t, ReadJSON(r, &out, DefaultMaxBody))
	assert.Equal(t, "CRANE", out.Guess)
}

func TestReadJSONEmptyBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(""))
	var out map[string]any
	assert.ErrorIs(t, ReadJSON(r, &out, DefaultMaxBody), ErrEmptyBody)
}

func TestReadJSONMalformed(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"guess":`))
	var out map[string]any
	assert.Error(t, ReadJSON(r, &out, DefaultMaxBody))
}

func TestWriteJSONSetsContentType(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, 201, map[string]int{"n": 1})
	assert.Equal(t, 201, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
}

func TestWriteErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, 404, "not_found")
	assert.Equal(t, 404, w.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, w.Body.String())
}

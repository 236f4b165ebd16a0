package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusAccepted, map[string]string{"ok": "yes"}))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "yes", body["ok"])
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "bad") }, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "who") }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "no") }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "gone") }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter) { WriteConflict(w, "dup") }, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestWriteInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteInternalError(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal server error", body.Error)
}

func TestParseJSONOrError(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"name":"x"}`))
		rec := httptest.NewRecorder()

		var dest payload
		require.True(t, ParseJSONOrError(rec, req, &dest))
		assert.Equal(t, "x", dest.Name)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"name":`))
		rec := httptest.NewRecorder()

		var dest payload
		assert.False(t, ParseJSONOrError(rec, req, &dest))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestParsePathInt64(t *testing.T) {
	get := func(t *testing.T, path string) (int64, bool, *httptest.ResponseRecorder) {
		t.Helper()
		var val int64
		var ok bool
		rec := httptest.NewRecorder()

		router := mux.NewRouter()
		router.HandleFunc("/clubs/{club_id}", func(w http.ResponseWriter, r *http.Request) {
			val, ok = ParsePathInt64OrError(w, r, "club_id")
		})
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		return val, ok, rec
	}

	t.Run("valid", func(t *testing.T) {
		val, ok, _ := get(t, "/clubs/42")
		require.True(t, ok)
		assert.Equal(t, int64(42), val)
	})

	t.Run("not a number", func(t *testing.T) {
		_, ok, rec := get(t, "/clubs/abc")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing parameter", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		_, err := ParsePathInt64(req, "club_id")
		assert.Error(t, err)
	})
}

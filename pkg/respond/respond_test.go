package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     interface{}
		wantCode int
		wantBody map[string]interface{}
	}{
		{
			name:     "success response",
			code:     http.StatusOK,
			data:     map[string]string{"message": "success"},
			wantCode: http.StatusOK,
			wantBody: map[string]interface{}{"message": "success"},
		},
		{
			name:     "created response",
			code:     http.StatusCreated,
			data:     map[string]int{"id": 123},
			wantCode: http.StatusCreated,
			wantBody: map[string]interface{}{"id": float64(123)}, // JSON unmarshals numbers as float64
		},
		{
			name:     "empty object",
			code:     http.StatusOK,
			data:     map[string]string{},
			wantCode: http.StatusOK,
			wantBody: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			JSON(w, r, tt.code, tt.data)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got map[string]interface{}
			err := json.NewDecoder(w.Body).Decode(&got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestData(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	Data(w, r, http.StatusCreated, map[string]string{"title": "Write docs"}, "Task created successfully")

	assert.Equal(t, http.StatusCreated, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "Task created successfully", got["message"])
	assert.Equal(t, map[string]interface{}{"title": "Write docs"}, got["data"])
	assert.NotContains(t, got, "count")
}

func TestList(t *testing.T) {
	t.Run("with items", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		List(w, r, []string{"a", "b", "c"})

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, float64(3), got["count"])
		assert.Len(t, got["data"], 3)
	})

	t.Run("empty list keeps count zero", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		List(w, r, []string{})

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, float64(0), got["count"])
		assert.Equal(t, true, got["success"])
	})
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		message  string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "bad request",
			code:     http.StatusBadRequest,
			message:  "invalid input",
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid input",
		},
		{
			name:     "not found",
			code:     http.StatusNotFound,
			message:  "Task not found",
			wantCode: http.StatusNotFound,
			wantMsg:  "Task not found",
		},
		{
			name:     "internal error",
			code:     http.StatusInternalServerError,
			message:  "Internal server error",
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			Error(w, r, tt.code, tt.message)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got map[string]interface{}
			err := json.NewDecoder(w.Body).Decode(&got)
			require.NoError(t, err)
			assert.Equal(t, false, got["success"])
			assert.Equal(t, tt.wantMsg, got["message"])
			assert.NotContains(t, got, "data")
		})
	}
}

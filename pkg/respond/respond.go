package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// Data writes a successful envelope with an optional message.
func Data(w http.ResponseWriter, r *http.Request, code int, data interface{}, message string) {
	JSON(w, r, code, Envelope{Success: true, Data: data, Message: message})
}

// List writes a successful envelope carrying the item count.
func List[T any](w http.ResponseWriter, r *http.Request, items []T) {
	n := len(items)
	JSON(w, r, http.StatusOK, Envelope{Success: true, Data: items, Count: &n})
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, Envelope{Success: false, Message: message})
}

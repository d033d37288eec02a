package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response body shape: {"success": bool, "message"?: string, ...payload}.
type Envelope map[string]interface{}

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// Success writes payload merged into a success envelope.
func Success(w http.ResponseWriter, r *http.Request, code int, payload Envelope) {
	body := Envelope{"success": true}
	for k, v := range payload {
		if k == "success" {
			continue
		}
		body[k] = v
	}
	JSON(w, r, code, body)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, Envelope{"success": false, "message": message})
}

// ErrorCode is Error plus a machine-readable reason in "code".
func ErrorCode(w http.ResponseWriter, r *http.Request, code int, message, reason string) {
	if reason == "" {
		Error(w, r, code, message)
		return
	}
	JSON(w, r, code, Envelope{"success": false, "message": message, "code": reason})
}

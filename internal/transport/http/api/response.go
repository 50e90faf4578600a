// Package api defines the JSON envelope every kpitrack endpoint responds
// with. Payloads ride under data on success; failures carry a stable
// machine code plus a human message so clients can branch without parsing
// prose. The request id is echoed for log correlation.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error is the failure half of the envelope. Code is stable per failure
// class (invalid_payload, duplicate_assignment, ...); Message is free text.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Success writes a 200 envelope around data. Report payloads pass through
// untouched; their shape is owned by the domain packages.
func Success(w http.ResponseWriter, data any, requestID string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

// Created writes a 201 envelope, typically around the new entity's id.
func Created(w http.ResponseWriter, data any, requestID string) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

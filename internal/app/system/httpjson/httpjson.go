// Package httpjson renders the JSON response envelope used by every
// API endpoint: {"ok": bool, "error"?: string, ...payload}. It also
// maps the apperr taxonomy to HTTP statuses so handlers never hand-pick
// status codes.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/campushq/campushub/internal/app/apperr"
	"go.uber.org/zap"
)

// OK writes a 200 envelope with the given payload fields merged in.
func OK(w http.ResponseWriter, payload map[string]any) {
	write(w, http.StatusOK, true, "", payload)
}

// Created writes a 201 envelope with the given payload fields.
func Created(w http.ResponseWriter, payload map[string]any) {
	write(w, http.StatusCreated, true, "", payload)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error writes an error envelope for err, logging internal causes. The
// client sees only the taxonomy message; raw lower-layer errors stay in
// the logs.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal && logger != nil {
		logger.Error("internal error", zap.Error(err))
	}
	write(w, StatusFor(kind), false, apperr.MessageOf(err), nil)
}

func write(w http.ResponseWriter, code int, ok bool, errMsg string, payload map[string]any) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["ok"] = ok
	if errMsg != "" {
		body["error"] = errMsg
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

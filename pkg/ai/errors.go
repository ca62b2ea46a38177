package ai

import (
	"encoding/json"
	"errors"
	"net"
	"strings"
)

// APIError carries the status and raw body of a failed provider call.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return e.Provider + " API error: " + ReasonFromBody(e.Body)
}

// ReasonFromBody pulls a human-readable message out of a JSON error payload
// such as {"error":{"message":"..."}} or {"error":"..."}. The raw body is
// returned when nothing better is found.
func ReasonFromBody(body string) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if len(payload.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(payload.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(body)
}

// ReasonFromError is ReasonFromBody for errors coming back from a provider.
func ReasonFromError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ReasonFromBody(apiErr.Body)
	}
	msg := err.Error()
	if i := strings.Index(msg, "{"); i >= 0 {
		if reason := ReasonFromBody(msg[i:]); reason != msg[i:] {
			return reason
		}
	}
	return msg
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return containsAny(err.Error(),
		"connection refused", "no such host", "network is unreachable",
		"connection reset", "timeout", "dial tcp", "EOF")
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(),
		"429", "quota", "rate limit", "too many requests", "resource exhausted")
}

func containsAny(s string, needles ...string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody is the JSON error payload the mock provider returns.
type ErrorBody struct {
	Error string `json:"error"`
}

// ReplyJSON writes a 200 response with a JSON body.
func ReplyJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ReplyStatus writes an arbitrary status with a JSON body.
func ReplyStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReplyError writes an error status with a JSON error payload.
func ReplyError(w http.ResponseWriter, status int, message string) {
	ReplyStatus(w, status, ErrorBody{Error: message})
}

// ReplyRateLimited writes a 429 response with a Retry-After header.
func ReplyRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	ReplyError(w, http.StatusTooManyRequests, "too many requests")
}

// ReplyUnavailable writes a 503 response.
func ReplyUnavailable(w http.ResponseWriter) {
	ReplyError(w, http.StatusServiceUnavailable, "service unavailable")
}

// ReplyUnauthorized writes a 401 response.
func ReplyUnauthorized(w http.ResponseWriter) {
	ReplyError(w, http.StatusUnauthorized, "invalid api key")
}

// ReplyBadRequest writes a 400 response.
func ReplyBadRequest(w http.ResponseWriter, message string) {
	ReplyError(w, http.StatusBadRequest, message)
}

// ReplyPrice writes a single spot price quote.
func ReplyPrice(w http.ResponseWriter, symbol string, price float64) {
	ReplyJSON(w, map[string]any{
		"symbol": symbol,
		"price":  price,
	})
}

// ReplyPrices writes a multi-symbol price map.
func ReplyPrices(w http.ResponseWriter, prices map[string]float64) {
	ReplyJSON(w, map[string]any{"prices": prices})
}

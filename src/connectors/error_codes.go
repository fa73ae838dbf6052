package connectors

import "fmt"

// RateAPIErrorCodes maps HTTP statuses returned by the public rate APIs to
// human-readable messages used when wrapping provider failures.
var RateAPIErrorCodes = map[int]string{
	400: "BAD_REQUEST",          // Malformed pair or query parameter
	401: "UNAUTHORIZED",         // Missing or invalid API key
	403: "FORBIDDEN",            // Plan does not cover this endpoint
	404: "UNKNOWN_CURRENCY",     // Base or quote currency not listed
	422: "UNSUPPORTED_PAIR",     // Pair exists but is not quoted
	429: "RATE_LIMITED",         // Too many requests, slow down
	500: "UPSTREAM_ERROR",       // Provider internal error
	502: "UPSTREAM_BAD_GATEWAY", // Provider edge failure
	503: "UPSTREAM_UNAVAILABLE", // Provider maintenance or overload
	504: "UPSTREAM_TIMEOUT",     // Provider timed out internally
}

// GetErrorMsg returns a human-readable message for an HTTP status from a rate
// API. If the status is unknown, returns a generic message including the code.
func GetErrorMsg(code int) string {
	if msg, ok := RateAPIErrorCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_RATE_API_ERROR_%d", code)
}

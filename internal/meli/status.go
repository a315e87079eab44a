package meli

import "fmt"

var statusMessages = map[int]string{
	400: "Error 400 - Bad request",
	401: "Error 401 - User not authenticated",
	403: "Error 403 - User not authorized",
	429: "Error 429 - Too many requests, wait",
	500: "Error 500 - Internal server error",
	503: "Error 503 - Service unavailable",
	504: "Error 504 - Gateway timeout",
}

// StatusMessage returns a human-readable message for an HTTP status code.
// Codes outside the known set get a generic message embedding the code.
func StatusMessage(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Error %d - Unknown error", code)
}

// IsKnownStatus reports whether StatusMessage has a dedicated message for code.
func IsKnownStatus(code int) bool {
	_, ok := statusMessages[code]
	return ok
}

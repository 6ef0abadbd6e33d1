package httpx

import (
	"net/http"
	"strconv"
)

// parseIntQuery parses an integer query parameter, returning the default
// on absence or garbage. Negative values also fall back to the default.
func parseIntQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

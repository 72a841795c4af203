// Package httpx provides JSON response utilities following RFC7807
// problem details.
package httpx

import (
	"errors"
	"net/http"
)

// Mapping pairs a sentinel error with the problem response it produces.
// Each domain package owns its sentinels; handlers pass the mappings that
// apply to the operation at hand.
type Mapping struct {
	Err    error
	Status int
	Title  string
	Detail string
}

// RespondError writes the first mapping matching err. Unmatched errors
// become a generic 500 so internals never leak into responses; the caller
// is expected to log them.
func RespondError(w http.ResponseWriter, err error, mappings ...Mapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			Problem(w, m.Status, m.Title, m.Detail)
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal error", "")
}

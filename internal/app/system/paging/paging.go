// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPageSize is the number of rows a list endpoint returns when
// the caller does not ask for a specific limit.
const DefaultPageSize = 50

// MaxPageSize caps the "limit" query parameter so one request cannot
// drag an entire collection over the wire.
const MaxPageSize = 200

// Limit extracts the "limit" query parameter as an int64 suitable for
// Mongo Find().SetLimit(). Missing or invalid values fall back to
// DefaultPageSize; anything above MaxPageSize is clamped.
func Limit(r *http.Request) int64 {
	s := query.Get(r, "limit")
	if s == "" {
		return DefaultPageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return int64(n)
}

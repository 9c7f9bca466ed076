package httploader

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors for page requests.
var (
	ErrInvalidConfig = errors.New("invalid loader config")
	ErrRequestFailed = errors.New("request failed")
	ErrDecodeFailed  = errors.New("decode failed")
	ErrInvalidPage   = errors.New("invalid page")
)

// ResponseError reports an unsuccessful response: a non-2xx HTTP status or
// an envelope code outside the success range. It matches ErrRequestFailed.
type ResponseError struct {
	StatusCode int
	Code       int
	Errors     map[string]any
}

func (e *ResponseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: status %d, code %d", ErrRequestFailed, e.StatusCode, e.Code)

	for _, field := range slices.Sorted(maps.Keys(e.Errors)) {
		fmt.Fprintf(&b, "; %s: %v", field, e.Errors[field])
	}
	return b.String()
}

func (e *ResponseError) Unwrap() error {
	return ErrRequestFailed
}

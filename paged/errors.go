package paged

import "errors"

// Sentinel errors for buffer construction and loading. Loader errors are
// never wrapped; they reach the caller exactly as the loader returned them.
var (
	ErrNilLoader   = errors.New("loader is nil")
	ErrInvalidPage = errors.New("invalid page request")
)

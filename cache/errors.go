package cache

import "errors"

// ErrClosed is returned by write operations submitted after the store's owner
// goroutine has stopped.
var ErrClosed = errors.New("cache store closed")

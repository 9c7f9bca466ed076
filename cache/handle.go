package cache

import "github.com/google/uuid"

// Handle identifies one view inside a Store. Once bound to a sequence it
// identifies exactly that view.
type Handle string

// NewHandle returns a fresh UUIDv7 handle.
func NewHandle() Handle {
	return Handle(uuid.Must(uuid.NewV7()).String())
}

func (h Handle) String() string {
	return string(h)
}

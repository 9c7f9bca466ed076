package model

import "errors"

// Sentinel errors for schema decoding.
var (
	ErrMissingKey  = errors.New("missing key field")
	ErrUnknownKind = errors.New("unknown kind")
	ErrInvalidRule = errors.New("invalid rule")
)

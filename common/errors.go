package common

import "errors"

var (
	ErrorInvalidValue    = errors.New("invalid value")
	ErrorMalformedFormat = errors.New("malformed pack format")
	ErrorBufferSize      = errors.New("buffer size mismatch")
	ErrorMalformedHeader = errors.New("malformed header")
	ErrorOutOfRange      = errors.New("value out of range")
	ErrorValidation      = errors.New("validation failed")
	ErrorEmptyInput      = errors.New("empty input")
)

package gridcore

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidSchema   = errors.New("invalid schema")
	ErrTimeout         = errors.New("operation timed out")
	ErrNotInitialized  = errors.New("table not initialized")
)

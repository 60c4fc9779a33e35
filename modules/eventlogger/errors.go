package eventlogger

import "errors"

var (
	ErrUnknownTarget = errors.New("unknown output target type")
	ErrUnknownFormat = errors.New("unknown output format")
	ErrMissingPath   = errors.New("file target requires a path")
)

package httpserver

import "errors"

// Error definitions for the httpserver module
var (
	ErrInvalidPort       = errors.New("invalid port number")
	ErrTLSFilesMissing   = errors.New("TLS is enabled but cert_file or key_file is missing")
	ErrServerNotStarted  = errors.New("server not started")
	ErrRouterNotReady    = errors.New("router is not initialized")
	ErrServerAlreadyLive = errors.New("routes cannot be added after the server started")
)

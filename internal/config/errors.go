package config

import "errors"

// Validation errors wrapped by [Load] when a configuration group is
// incomplete or invalid.
var (
	ErrInvalidServerConfig    = errors.New("invalid server configuration")
	ErrInvalidResourceConfig  = errors.New("invalid resource configuration")
	ErrInvalidTransportConfig = errors.New("invalid transport configuration")
	ErrInvalidLogConfig       = errors.New("invalid log configuration")
)

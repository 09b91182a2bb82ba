package appconfig

import "errors"

// Sentinel errors for catalog loading.
var (
	ErrInvalidSource      = errors.New("appconfig: invalid config source")
	ErrReadFailed         = errors.New("appconfig: failed to read config")
	ErrInvalidConfig      = errors.New("appconfig: invalid config document")
	ErrUnknownApplication = errors.New("appconfig: unknown application")
)

package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Platform and capability errors
	ErrPlatformUnavailable  = fmt.Errorf("platform unavailable")
	ErrUnknownPlatform      = fmt.Errorf("unknown platform")
	ErrUnsupportedOperation = fmt.Errorf("operation not supported")

	// API and upstream errors
	ErrAPIRequest    = fmt.Errorf("API request failed")
	ErrTrackNotFound = fmt.Errorf("track not found")

	// Download pipeline errors
	ErrFileNotCreated = fmt.Errorf("file not created")
	ErrMissingURL     = fmt.Errorf("missing track url")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidTrackID  = fmt.Errorf("invalid track id")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid workflow transition")

	ErrProviderTransport = errors.New("provider transport failure")
	ErrProviderParse     = errors.New("provider response could not be parsed")
	ErrProviderTimeout   = errors.New("provider timed out")
	ErrImageNotFound     = errors.New("no image data in provider response")
)

// ErrorKind names the provider error class wrapped by err, or "unknown".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProviderTimeout):
		return "timeout"
	case errors.Is(err, ErrImageNotFound):
		return "image_not_found"
	case errors.Is(err, ErrProviderParse):
		return "parse"
	case errors.Is(err, ErrProviderTransport):
		return "transport"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}

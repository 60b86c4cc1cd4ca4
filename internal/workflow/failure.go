package workflow

import (
	"errors"

	"scriptstudio/internal/domain"
)

// Stage tells which provider call a failure came from.
type Stage string

const (
	StageScript Stage = "script"
	StageImage  Stage = "image"
)

// Failure codes exposed to users. Transport and parse failures share a code
// per stage; Kind keeps them apart for diagnostics.
const (
	CodeScriptFailed    = "script_failed"
	CodeImageFailed     = "image_failed"
	CodeImageNotFound   = "image_not_found"
	CodeProviderTimeout = "provider_timeout"
)

// Failure is the displayable record of a failed provider call.
type Failure struct {
	Stage  Stage  `json:"stage"`
	Code   string `json:"code"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func NewFailure(stage Stage, err error) Failure {
	f := Failure{Stage: stage, Kind: domain.ErrorKind(err)}
	if err != nil {
		f.Detail = err.Error()
	}
	switch {
	case errors.Is(err, domain.ErrProviderTimeout):
		f.Code = CodeProviderTimeout
	case errors.Is(err, domain.ErrImageNotFound):
		f.Code = CodeImageNotFound
	case stage == StageScript:
		f.Code = CodeScriptFailed
	default:
		f.Code = CodeImageFailed
	}
	return f
}

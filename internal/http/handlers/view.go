package handlers

import (
	"time"

	"golang.org/x/text/language"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/i18n"
	"scriptstudio/internal/workflow"
)

type failureView struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type referenceView struct {
	MIMEType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
}

// sessionView is the state rendered to clients. Image payloads are served
// separately so that event frames stay small. AspectRatios lists the values
// the aspect-ratio route accepts.
type sessionView struct {
	ID           string               `json:"id"`
	Phase        workflow.Phase       `json:"phase"`
	Busy         bool                 `json:"busy"`
	Topic        string               `json:"topic,omitempty"`
	Script       *domain.ScriptResult `json:"script,omitempty"`
	Progress     int                  `json:"progress"`
	Total        int                  `json:"total"`
	ImageCount   int                  `json:"image_count"`
	AspectRatio  domain.AspectRatio   `json:"aspect_ratio"`
	AspectRatios []domain.AspectRatio `json:"aspect_ratios"`
	Reference    *referenceView       `json:"reference,omitempty"`
	Error        *failureView         `json:"error,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func newSessionView(id string, snap workflow.Snapshot, lang language.Tag) sessionView {
	v := sessionView{
		ID:           id,
		Phase:        snap.Phase,
		Busy:         snap.Phase == workflow.PhaseGeneratingScript || snap.Phase == workflow.PhaseGeneratingImages,
		Topic:        snap.Topic,
		Script:       snap.Script,
		Progress:     snap.Progress,
		Total:        snap.Total,
		ImageCount:   len(snap.Images),
		AspectRatio:  snap.AspectRatio,
		AspectRatios: domain.AspectRatios,
		UpdatedAt:    snap.UpdatedAt,
	}
	if snap.Reference != nil {
		v.Reference = &referenceView{MIMEType: snap.Reference.MIMEType, Bytes: len(snap.Reference.Bytes())}
	}
	if f := snap.Failure; f != nil {
		v.Error = &failureView{
			Stage:   string(f.Stage),
			Code:    f.Code,
			Kind:    f.Kind,
			Message: i18n.Message(f.Code, lang),
		}
	}
	return v
}

type imageView struct {
	Ordinal  int    `json:"ordinal"`
	Prompt   string `json:"prompt,omitempty"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	DataURI  string `json:"data_uri"`
}

func newImageViews(snap workflow.Snapshot) []imageView {
	out := make([]imageView, 0, len(snap.Images))
	for _, img := range snap.Images {
		v := imageView{
			Ordinal:  img.Ordinal,
			Filename: img.Filename(),
			MIMEType: img.MIMEType,
			DataURI:  img.DataURI(),
		}
		if snap.Script != nil && img.Ordinal <= len(snap.Script.ImagePrompts) {
			v.Prompt = snap.Script.ImagePrompts[img.Ordinal-1]
		}
		out = append(out, v)
	}
	return out
}

package domain

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// ScriptResult is the structured output of one script request.
type ScriptResult struct {
	TTSContent        string   `json:"ttsContent"`
	SceneDescriptions string   `json:"sceneDescriptions"`
	ImagePrompts      []string `json:"imagePrompts"`
	FacebookPost      string   `json:"facebookPost"`
}

// Clone returns a deep copy so callers can hand the script out without
// sharing the prompt slice.
func (s *ScriptResult) Clone() *ScriptResult {
	if s == nil {
		return nil
	}
	out := *s
	out.ImagePrompts = append([]string(nil), s.ImagePrompts...)
	return &out
}

// AspectRatio is the frame shape requested from the image model.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"

	DefaultAspectRatio = AspectSquare
)

// AspectRatios lists the supported values in display order.
var AspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape}

func (a AspectRatio) Valid() bool {
	switch a {
	case AspectSquare, AspectPortrait, AspectLandscape:
		return true
	}
	return false
}

func (a AspectRatio) String() string { return string(a) }

// ParseAspectRatio accepts one of the supported ratios, ignoring surrounding spaces.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	ar := AspectRatio(strings.TrimSpace(raw))
	if !ar.Valid() {
		return "", fmt.Errorf("%w: unsupported aspect ratio %q", ErrValidation, raw)
	}
	return ar, nil
}

// ReferenceImage is a user supplied image used to keep the character
// consistent across a batch. Data holds base64 without a data URI prefix.
type ReferenceImage struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// NewReferenceImage encodes raw upload bytes.
func NewReferenceImage(data []byte, mimeType string) (ReferenceImage, error) {
	if len(data) == 0 {
		return ReferenceImage{}, fmt.Errorf("%w: reference image is empty", ErrValidation)
	}
	ref := ReferenceImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: normalizeMIME(mimeType),
	}
	if err := ref.Validate(); err != nil {
		return ReferenceImage{}, err
	}
	return ref, nil
}

// ParseDataURI splits a "data:<mime>;base64,<payload>" string into a
// ReferenceImage.
func ParseDataURI(uri string) (ReferenceImage, error) {
	uri = strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ReferenceImage{}, fmt.Errorf("%w: not a data uri", ErrValidation)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ReferenceImage{}, fmt.Errorf("%w: malformed data uri", ErrValidation)
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return ReferenceImage{}, fmt.Errorf("%w: data uri must be base64 encoded", ErrValidation)
	}
	ref := ReferenceImage{Data: payload, MIMEType: normalizeMIME(mimeType)}
	if err := ref.Validate(); err != nil {
		return ReferenceImage{}, err
	}
	return ref, nil
}

// Validate checks the payload is base64 and the MIME type names an image.
func (r ReferenceImage) Validate() error {
	if strings.TrimSpace(r.Data) == "" {
		return fmt.Errorf("%w: reference image data is required", ErrValidation)
	}
	mediaType, _, err := mime.ParseMediaType(r.MIMEType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: reference image mime type %q is not an image", ErrValidation, r.MIMEType)
	}
	if _, err := base64.StdEncoding.DecodeString(r.Data); err != nil {
		return fmt.Errorf("%w: reference image is not valid base64", ErrValidation)
	}
	return nil
}

// Bytes decodes the payload. Validate must have succeeded.
func (r ReferenceImage) Bytes() []byte {
	b, _ := base64.StdEncoding.DecodeString(r.Data)
	return b
}

// Image is one decoded provider image.
type Image struct {
	MIMEType string
	Data     []byte
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI renders the image as a directly displayable URI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// GeneratedImage is an image placed at its 1-based position in the batch.
type GeneratedImage struct {
	Ordinal int
	Image
}

// Filename is the export name, e.g. scene_03.png.
func (g GeneratedImage) Filename() string {
	return fmt.Sprintf("scene_%02d%s", g.Ordinal, ExtensionForMIME(g.MIMEType))
}

// ImageRequest carries the inputs for one image call.
type ImageRequest struct {
	Prompt      string
	AspectRatio AspectRatio
	Reference   *ReferenceImage
}

func (r ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: image prompt is required", ErrValidation)
	}
	if !r.AspectRatio.Valid() {
		return fmt.Errorf("%w: unsupported aspect ratio %q", ErrValidation, r.AspectRatio)
	}
	if r.Reference != nil {
		return r.Reference.Validate()
	}
	return nil
}

// ExtensionForMIME picks a file extension for an image MIME type, preferring
// the common short forms.
func ExtensionForMIME(mimeType string) string {
	switch normalizeMIME(mimeType) {
	case "image/png", "":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}

func normalizeMIME(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(mimeType))
}

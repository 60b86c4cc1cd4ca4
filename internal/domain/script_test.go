package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAspectRatio(t *testing.T) {
	tests := []struct {
		in      string
		want    AspectRatio
		wantErr bool
	}{
		{in: "1:1", want: AspectSquare},
		{in: " 9:16 ", want: AspectPortrait},
		{in: "16:9", want: AspectLandscape},
		{in: "4:3", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAspectRatio(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseAspectRatio(%q) error = %v, want ErrValidation", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAspectRatio(%q) returned error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseAspectRatio(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseDataURI(t *testing.T) {
	ref, err := ParseDataURI("data:image/png;base64,iVBORw0KGgo=")
	if err != nil {
		t.Fatalf("ParseDataURI returned error: %v", err)
	}
	if ref.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q, want %q", ref.MIMEType, "image/png")
	}
	if ref.Data != "iVBORw0KGgo=" {
		t.Fatalf("Data = %q, want prefix stripped", ref.Data)
	}

	bad := []string{
		"iVBORw0KGgo=",
		"data:image/png,iVBORw0KGgo=",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,!!!",
	}
	for _, uri := range bad {
		if _, err := ParseDataURI(uri); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseDataURI(%q) error = %v, want ErrValidation", uri, err)
		}
	}
}

func TestNewReferenceImage(t *testing.T) {
	ref, err := NewReferenceImage([]byte{0x89, 'P', 'N', 'G'}, "Image/PNG")
	if err != nil {
		t.Fatalf("NewReferenceImage returned error: %v", err)
	}
	if ref.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q, want %q", ref.MIMEType, "image/png")
	}
	if got := ref.Bytes(); string(got) != "\x89PNG" {
		t.Fatalf("Bytes() = %q, want original payload", got)
	}
	if _, err := NewReferenceImage(nil, "image/png"); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty upload error = %v, want ErrValidation", err)
	}
}

func TestImageDataURI(t *testing.T) {
	img := Image{MIMEType: "image/jpeg", Data: []byte("abc")}
	got := img.DataURI()
	if got != "data:image/jpeg;base64,YWJj" {
		t.Fatalf("DataURI() = %q", got)
	}
	if !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Fatalf("DataURI() missing prefix: %q", got)
	}
}

func TestGeneratedImageFilename(t *testing.T) {
	tests := []struct {
		img  GeneratedImage
		want string
	}{
		{GeneratedImage{Ordinal: 1, Image: Image{MIMEType: "image/png"}}, "scene_01.png"},
		{GeneratedImage{Ordinal: 8, Image: Image{MIMEType: "image/jpeg"}}, "scene_08.jpg"},
		{GeneratedImage{Ordinal: 12, Image: Image{}}, "scene_12.png"},
	}
	for _, tc := range tests {
		if got := tc.img.Filename(); got != tc.want {
			t.Fatalf("Filename() = %q, want %q", got, tc.want)
		}
	}
}

func TestImageRequestValidate(t *testing.T) {
	ok := ImageRequest{Prompt: "a cat", AspectRatio: AspectSquare}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	cases := map[string]ImageRequest{
		"empty prompt":  {Prompt: "  ", AspectRatio: AspectSquare},
		"bad aspect":    {Prompt: "a cat", AspectRatio: "2:1"},
		"bad reference": {Prompt: "a cat", AspectRatio: AspectSquare, Reference: &ReferenceImage{Data: "x", MIMEType: "text/plain"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			if err := req.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	if got := ErrorKind(errors.Join(ErrProviderTransport, ErrProviderTimeout)); got != "timeout" {
		t.Fatalf("ErrorKind = %q, want timeout", got)
	}
	if got := ErrorKind(ErrImageNotFound); got != "image_not_found" {
		t.Fatalf("ErrorKind = %q, want image_not_found", got)
	}
	if got := ErrorKind(errors.New("boom")); got != "unknown" {
		t.Fatalf("ErrorKind = %q, want unknown", got)
	}
}

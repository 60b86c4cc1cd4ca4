package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/genai"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/providers/prompt"
)

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeGenerator struct {
	calls   []generateCall
	respond func(ctx context.Context, call generateCall) (*genai.GenerateContentResponse, error)
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	call := generateCall{model: model, contents: contents, config: config}
	f.calls = append(f.calls, call)
	return f.respond(ctx, call)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func imageResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromParts(parts, genai.RoleModel),
		}},
	}
}

const eightPromptScript = `{"ttsContent":"- lời thoại: \"một\"","sceneDescriptions":"tám cảnh","imagePrompts":["p1","p2","p3","p4","p5","p6","p7","p8"],"facebookPost":"bài đăng"}`

func TestRequestScript(t *testing.T) {
	gen := &fakeGenerator{respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
		return textResponse(eightPromptScript), nil
	}}
	client := newClient(gen, Options{})

	script, err := client.RequestScript(context.Background(), "cat cafe")
	if err != nil {
		t.Fatalf("RequestScript returned error: %v", err)
	}
	if len(script.ImagePrompts) != 8 {
		t.Fatalf("len(ImagePrompts) = %d, want 8", len(script.ImagePrompts))
	}
	if script.FacebookPost != "bài đăng" {
		t.Fatalf("FacebookPost = %q", script.FacebookPost)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(gen.calls))
	}
	call := gen.calls[0]
	if call.model != DefaultScriptModel {
		t.Fatalf("model = %q, want %q", call.model, DefaultScriptModel)
	}
	if call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("ResponseMIMEType = %q", call.config.ResponseMIMEType)
	}
	if call.config.SystemInstruction == nil || len(call.config.SystemInstruction.Parts) == 0 {
		t.Fatal("expected a system instruction")
	}
	schema := call.config.ResponseSchema
	if len(schema.Required) != 4 {
		t.Fatalf("Required = %#v", schema.Required)
	}
	prompts := schema.Properties[prompt.FieldImagePrompts]
	if prompts == nil || prompts.MinItems == nil || *prompts.MinItems != 8 || *prompts.MaxItems != 8 {
		t.Fatalf("imagePrompts schema = %#v", prompts)
	}
	user := call.contents[0].Parts[0].Text
	if user != "Hãy tạo kịch bản video cho chủ đề: cat cafe" {
		t.Fatalf("user prompt = %q", user)
	}
}

func TestRequestScriptErrors(t *testing.T) {
	tests := []struct {
		name    string
		respond func(context.Context, generateCall) (*genai.GenerateContentResponse, error)
		want    error
	}{
		{
			name: "transport",
			respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			want: domain.ErrProviderTransport,
		},
		{
			name: "deadline",
			respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
				return nil, fmt.Errorf("do request: %w", context.DeadlineExceeded)
			},
			want: domain.ErrProviderTimeout,
		},
		{
			name: "not json",
			respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
				return textResponse("I cannot write that"), nil
			},
			want: domain.ErrProviderParse,
		},
		{
			name: "missing field",
			respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
				return textResponse(`{"ttsContent":"a","sceneDescriptions":"b","facebookPost":"c"}`), nil
			},
			want: domain.ErrProviderParse,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(&fakeGenerator{respond: tc.respond}, Options{})
			_, err := client.RequestScript(context.Background(), "topic")
			if !errors.Is(err, tc.want) {
				t.Fatalf("RequestScript error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRequestScriptRejectsBlankTopic(t *testing.T) {
	gen := &fakeGenerator{}
	client := newClient(gen, Options{})
	if _, err := client.RequestScript(context.Background(), "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("RequestScript error = %v, want ErrValidation", err)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("calls = %d, want 0", len(gen.calls))
	}
}

func TestRequestImageWithoutReference(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	gen := &fakeGenerator{respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
		return imageResponse(
			genai.NewPartFromText("here is your image"),
			genai.NewPartFromBytes(png, "image/png"),
		), nil
	}}
	client := newClient(gen, Options{})

	img, err := client.RequestImage(context.Background(), domain.ImageRequest{Prompt: "a cat barista", AspectRatio: domain.AspectLandscape})
	if err != nil {
		t.Fatalf("RequestImage returned error: %v", err)
	}
	if img.MIMEType != "image/png" || !bytes.Equal(img.Data, png) {
		t.Fatalf("image = %+v", img)
	}
	if got := img.DataURI(); got != "data:image/png;base64,iVBORw==" {
		t.Fatalf("DataURI() = %q", got)
	}

	call := gen.calls[0]
	if call.model != DefaultImageModel {
		t.Fatalf("model = %q, want %q", call.model, DefaultImageModel)
	}
	if call.config.ImageConfig == nil || call.config.ImageConfig.AspectRatio != "16:9" {
		t.Fatalf("ImageConfig = %#v", call.config.ImageConfig)
	}
	parts := call.contents[0].Parts
	if len(parts) != 1 || parts[0].Text != "a cat barista" {
		t.Fatalf("parts = %#v", parts)
	}
}

func TestRequestImageWithReference(t *testing.T) {
	ref, err := domain.NewReferenceImage([]byte("reference-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("NewReferenceImage returned error: %v", err)
	}
	gen := &fakeGenerator{respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
		return imageResponse(genai.NewPartFromBytes([]byte("out"), "image/jpeg")), nil
	}}
	client := newClient(gen, Options{})

	if _, err := client.RequestImage(context.Background(), domain.ImageRequest{Prompt: "scene one", AspectRatio: domain.AspectSquare, Reference: &ref}); err != nil {
		t.Fatalf("RequestImage returned error: %v", err)
	}
	parts := gen.calls[0].contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/jpeg" || string(parts[0].InlineData.Data) != "reference-bytes" {
		t.Fatalf("reference part = %#v", parts[0].InlineData)
	}
	want := "Based on the character/style in the provided image, generate a new image for this scene: scene one. Maintain character consistency."
	if parts[1].Text != want {
		t.Fatalf("instruction = %q, want %q", parts[1].Text, want)
	}
}

func TestRequestImageErrors(t *testing.T) {
	tests := []struct {
		name    string
		respond func(context.Context, generateCall) (*genai.GenerateContentResponse, error)
		want    error
	}{
		{
			name: "text only",
			respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
				return textResponse("I can't draw that"), nil
			},
			want: domain.ErrImageNotFound,
		},
		{
			name: "no candidates",
			respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{}, nil
			},
			want: domain.ErrImageNotFound,
		},
		{
			name: "transport",
			respond: func(context.Context, generateCall) (*genai.GenerateContentResponse, error) {
				return nil, errors.New("503 unavailable")
			},
			want: domain.ErrProviderTransport,
		},
		{
			name: "context deadline",
			respond: func(ctx context.Context, _ generateCall) (*genai.GenerateContentResponse, error) {
				<-ctx.Done()
				return nil, errors.New("request aborted")
			},
			want: domain.ErrProviderTimeout,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(&fakeGenerator{respond: tc.respond}, Options{})
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err := client.RequestImage(ctx, domain.ImageRequest{Prompt: "p", AspectRatio: domain.AspectSquare})
			if !errors.Is(err, tc.want) {
				t.Fatalf("RequestImage error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRequestImageValidatesBeforeCalling(t *testing.T) {
	gen := &fakeGenerator{}
	client := newClient(gen, Options{})
	_, err := client.RequestImage(context.Background(), domain.ImageRequest{Prompt: "p", AspectRatio: "3:2"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("RequestImage error = %v, want ErrValidation", err)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("calls = %d, want 0", len(gen.calls))
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Options{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

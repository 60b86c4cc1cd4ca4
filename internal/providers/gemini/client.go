package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/infra"
	"scriptstudio/internal/providers/prompt"
)

const (
	DefaultScriptModel = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-2.5-flash-image"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey      string
	BaseURL     string
	ScriptModel string
	ImageModel  string
	Profile     prompt.Profile
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// contentGenerator is the slice of the SDK's Models service the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client adapts the Gemini API to script and scene image requests. Each call
// issues exactly one GenerateContent request and keeps no state between calls.
type Client struct {
	models      contentGenerator
	scriptModel string
	imageModel  string
	profile     prompt.Profile
	logger      *infra.Logger
}

// NewClient constructs a Gemini client backed by the genai SDK.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	sdk, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newClient(sdk.Models, opts), nil
}

func newClient(models contentGenerator, opts Options) *Client {
	scriptModel := strings.TrimSpace(opts.ScriptModel)
	if scriptModel == "" {
		scriptModel = DefaultScriptModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	profile := opts.Profile
	if profile.SystemInstruction == "" {
		profile = prompt.DefaultProfile()
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}

	return &Client{
		models:      models,
		scriptModel: scriptModel,
		imageModel:  imageModel,
		profile:     profile,
		logger:      logger,
	}
}

// ScriptModel returns the configured text model identifier.
func (c *Client) ScriptModel() string { return c.scriptModel }

// ImageModel returns the configured image model identifier.
func (c *Client) ImageModel() string { return c.imageModel }

// classifyError maps an SDK failure onto the provider error kinds.
func classifyError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrProviderTransport, err)
}

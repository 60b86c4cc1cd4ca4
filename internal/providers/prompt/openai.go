package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"scriptstudio/internal/domain"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Profile      Profile
	Logger       *zerolog.Logger
}

// OpenAIWriter writes scripts with OpenAI chat completions constrained to a
// strict JSON schema.
type OpenAIWriter struct {
	client  openai.Client
	model   string
	profile Profile
	schema  *jsonschema.Schema
	logger  zerolog.Logger
}

// scriptSchemaDoc mirrors domain.ScriptResult with model-facing descriptions.
type scriptSchemaDoc struct {
	TTSContent        string   `json:"ttsContent" jsonschema_description:"Spoken lines, one per scene, each starting with - lời thoại:"`
	SceneDescriptions string   `json:"sceneDescriptions" jsonschema_description:"Description of every scene"`
	ImagePrompts      []string `json:"imagePrompts" jsonschema_description:"One English image prompt per scene"`
	FacebookPost      string   `json:"facebookPost" jsonschema_description:"Social media post promoting the video"`
}

func NewOpenAIWriter(opts OpenAIOptions) (*OpenAIWriter, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	profile := opts.Profile
	if profile.SystemInstruction == "" {
		profile = DefaultProfile()
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if org := strings.TrimSpace(opts.Organization); org != "" {
		reqOpts = append(reqOpts, option.WithOrganization(org))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	reflector := jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}
	return &OpenAIWriter{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		profile: profile,
		schema:  reflector.Reflect(scriptSchemaDoc{}),
		logger:  logger,
	}, nil
}

// Model returns the configured chat model identifier.
func (w *OpenAIWriter) Model() string { return w.model }

// RequestScript asks the model for a script about topic.
func (w *OpenAIWriter) RequestScript(ctx context.Context, topic string) (*domain.ScriptResult, error) {
	completion, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(w.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(w.profile.SystemInstruction),
			openai.UserMessage(w.profile.UserPromptFor(topic)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "short_video_script",
					Description: openai.String("Short video script with scenes, image prompts and a social post"),
					Schema:      w.schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: openai: %v", domain.ErrProviderTransport, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", domain.ErrProviderParse)
	}
	text := completion.Choices[0].Message.Content
	script, err := DecodeScript(text)
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("model", w.model).
			Int("raw_len", len(text)).
			Msg("prompt: openai script payload rejected")
		return nil, err
	}
	if n := len(script.ImagePrompts); n != w.profile.SceneCount {
		w.logger.Warn().
			Int("prompts", n).
			Int("expected", w.profile.SceneCount).
			Msg("prompt: openai script prompt count differs from scene count")
	}
	return script, nil
}

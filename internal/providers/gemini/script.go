package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/providers/prompt"
)

// RequestScript asks the text model for a structured script about topic.
func (c *Client) RequestScript(ctx context.Context, topic string) (*domain.ScriptResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", domain.ErrValidation)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.profile.SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    scriptSchema(c.profile.SceneCount),
	}
	resp, err := c.models.GenerateContent(ctx, c.scriptModel, genai.Text(c.profile.UserPromptFor(topic)), config)
	if err != nil {
		classified := classifyError(ctx, err)
		c.logger.Warn().
			Err(err).
			Str("model", c.scriptModel).
			Str("kind", domain.ErrorKind(classified)).
			Msg("gemini: script request failed")
		return nil, classified
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", domain.ErrProviderParse)
	}

	text := resp.Text()
	script, err := prompt.DecodeScript(text)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("model", c.scriptModel).
			Int("raw_len", len(text)).
			Msg("gemini: script payload rejected")
		return nil, err
	}
	if n := len(script.ImagePrompts); n != c.profile.SceneCount {
		c.logger.Warn().
			Int("prompts", n).
			Int("expected", c.profile.SceneCount).
			Msg("gemini: script prompt count differs from scene count")
	}
	c.logger.Debug().
		Str("model", c.scriptModel).
		Int("prompts", len(script.ImagePrompts)).
		Msg("gemini: script generated")
	return script, nil
}

func scriptSchema(sceneCount int) *genai.Schema {
	text := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			prompt.FieldTTSContent:        text,
			prompt.FieldSceneDescriptions: text,
			prompt.FieldImagePrompts: {
				Type:     genai.TypeArray,
				Items:    &genai.Schema{Type: genai.TypeString},
				MinItems: genai.Ptr(int64(sceneCount)),
				MaxItems: genai.Ptr(int64(sceneCount)),
			},
			prompt.FieldFacebookPost: text,
		},
		Required:         prompt.ScriptFields,
		PropertyOrdering: prompt.ScriptFields,
	}
}

package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"scriptstudio/internal/domain"
)

const (
	FieldTTSContent        = "ttsContent"
	FieldSceneDescriptions = "sceneDescriptions"
	FieldImagePrompts      = "imagePrompts"
	FieldFacebookPost      = "facebookPost"
)

// ScriptFields lists the keys every script payload must carry, in the order
// they are requested from the model.
var ScriptFields = []string{FieldTTSContent, FieldSceneDescriptions, FieldImagePrompts, FieldFacebookPost}

// DecodeScript parses model text into a ScriptResult. A payload that is not
// JSON, or that lacks one of ScriptFields, wraps domain.ErrProviderParse.
func DecodeScript(raw string) (*domain.ScriptResult, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrProviderParse)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderParse, err)
	}
	for _, key := range ScriptFields {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("%w: missing field %q", domain.ErrProviderParse, key)
		}
	}
	var out domain.ScriptResult
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderParse, err)
	}
	return &out, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

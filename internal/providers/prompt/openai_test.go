package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"scriptstudio/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func chatCompletionResponse(content string) *http.Response {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(string(body))),
	}
}

func TestOpenAIWriterRequestScript(t *testing.T) {
	var captured map[string]any
	writer, err := NewOpenAIWriter(OpenAIOptions{
		APIKey:  "test-key",
		BaseURL: "https://openai.test/v1/",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Fatalf("Authorization = %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			return chatCompletionResponse(sampleScript), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIWriter returned error: %v", err)
	}

	script, err := writer.RequestScript(context.Background(), "cat cafe")
	if err != nil {
		t.Fatalf("RequestScript returned error: %v", err)
	}
	if script.TTSContent == "" || len(script.ImagePrompts) != 2 {
		t.Fatalf("script = %+v", script)
	}
	if captured["model"] != defaultOpenAIModel {
		t.Fatalf("model = %v, want %q", captured["model"], defaultOpenAIModel)
	}
	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("response_format = %#v", format)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %#v", messages)
	}
	user, _ := messages[1].(map[string]any)
	if content, _ := user["content"].(string); !strings.Contains(content, "cat cafe") {
		t.Fatalf("user content = %#v", user["content"])
	}
}

func TestOpenAIWriterClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		respond func(*http.Request) (*http.Response, error)
		want    error
	}{
		{
			name: "transport",
			respond: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			want: domain.ErrProviderTransport,
		},
		{
			name: "malformed payload",
			respond: func(*http.Request) (*http.Response, error) {
				return chatCompletionResponse(`{"ttsContent":"only"}`), nil
			},
			want: domain.ErrProviderParse,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			writer, err := NewOpenAIWriter(OpenAIOptions{
				APIKey:     "test-key",
				BaseURL:    "https://openai.test/v1/",
				HTTPClient: &http.Client{Transport: roundTripFunc(tc.respond)},
			})
			if err != nil {
				t.Fatalf("NewOpenAIWriter returned error: %v", err)
			}
			if _, err := writer.RequestScript(context.Background(), "topic"); !errors.Is(err, tc.want) {
				t.Fatalf("RequestScript error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewOpenAIWriterRequiresKey(t *testing.T) {
	if _, err := NewOpenAIWriter(OpenAIOptions{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNewOpenAIWriterDefaultModel(t *testing.T) {
	w, err := NewOpenAIWriter(OpenAIOptions{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAIWriter returned error: %v", err)
	}
	if w.Model() != defaultOpenAIModel {
		t.Fatalf("Model() = %q, want %q", w.Model(), defaultOpenAIModel)
	}
}

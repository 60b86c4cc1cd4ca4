package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scriptstudio/internal/domain"
)

const sampleScript = `{"ttsContent":"- lời thoại: \"xin chào\"","sceneDescriptions":"cảnh 1","imagePrompts":["p1","p2"],"facebookPost":"post"}`

func TestDecodeScript(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "plain", raw: sampleScript},
		{name: "code fence", raw: "```json\n" + sampleScript + "\n```"},
		{name: "surrounding prose", raw: "Here you go:\n" + sampleScript + "\nEnjoy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeScript(tc.raw)
			if err != nil {
				t.Fatalf("DecodeScript returned error: %v", err)
			}
			if got.FacebookPost != "post" {
				t.Fatalf("FacebookPost = %q, want %q", got.FacebookPost, "post")
			}
			if len(got.ImagePrompts) != 2 || got.ImagePrompts[1] != "p2" {
				t.Fatalf("ImagePrompts = %#v", got.ImagePrompts)
			}
		})
	}
}

func TestDecodeScriptRejectsIncompletePayloads(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"not json":       "sorry, I cannot help with that",
		"missing field":  `{"ttsContent":"a","sceneDescriptions":"b","imagePrompts":["p"]}`,
		"null prompts":   `{"ttsContent":"a","sceneDescriptions":"b","imagePrompts":null,"facebookPost":"c"}`,
		"wrong type":     `{"ttsContent":"a","sceneDescriptions":"b","imagePrompts":"p","facebookPost":"c"}`,
		"truncated json": `{"ttsContent":"a","sceneDescriptions":`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeScript(raw); !errors.Is(err, domain.ErrProviderParse) {
				t.Fatalf("DecodeScript error = %v, want ErrProviderParse", err)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	def, err := LoadProfile("")
	if err != nil {
		t.Fatalf("LoadProfile(\"\") returned error: %v", err)
	}
	if def.SceneCount != 8 {
		t.Fatalf("SceneCount = %d, want 8", def.SceneCount)
	}
	if got := def.UserPromptFor("  quán cà phê mèo "); got != "Hãy tạo kịch bản video cho chủ đề: quán cà phê mèo" {
		t.Fatalf("UserPromptFor = %q", got)
	}

	path := filepath.Join(t.TempDir(), "profile.yaml")
	body := "name: english\nscene_count: 6\nuser_prompt: \"Write a video script about {topic}\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile returned error: %v", err)
	}
	if p.Name != "english" || p.SceneCount != 6 {
		t.Fatalf("profile = %+v", p)
	}
	if p.SystemInstruction != defaultSystemInstruction {
		t.Fatal("expected system instruction to keep the default")
	}
	if !strings.Contains(p.ReferenceInstruction, promptPlaceholder) {
		t.Fatalf("ReferenceInstruction = %q", p.ReferenceInstruction)
	}
}

func TestLoadProfileRejectsMissingPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("user_prompt: no topic here\n"), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if _, err := LoadProfile(path); err == nil {
		t.Fatal("expected error for user_prompt without placeholder")
	}
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"scriptstudio/internal/domain"
)

// Export file names written under each export directory.
const (
	ScriptFile   = "script.json"
	TTSFile      = "tts.txt"
	ScenesFile   = "scenes.txt"
	PromptsFile  = "prompts.txt"
	FacebookFile = "facebook.txt"
)

// Export writes the script texts and every image under dir and returns the
// stored keys in write order. A nil script writes images only.
func (s *FileStore) Export(ctx context.Context, dir string, script *domain.ScriptResult, images []domain.GeneratedImage) ([]string, error) {
	var keys []string
	write := func(name string, data []byte) error {
		key, err := s.Write(ctx, path.Join(dir, name), data)
		if err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	}

	if script != nil {
		body, err := json.MarshalIndent(script, "", "  ")
		if err != nil {
			return keys, fmt.Errorf("storage: encode script: %w", err)
		}
		var prompts strings.Builder
		for i, p := range script.ImagePrompts {
			fmt.Fprintf(&prompts, "%d. %s\n", i+1, p)
		}
		files := []struct {
			name string
			data []byte
		}{
			{ScriptFile, body},
			{TTSFile, []byte(script.TTSContent)},
			{ScenesFile, []byte(script.SceneDescriptions)},
			{PromptsFile, []byte(prompts.String())},
			{FacebookFile, []byte(script.FacebookPost)},
		}
		for _, f := range files {
			if err := write(f.name, f.data); err != nil {
				return keys, err
			}
		}
	}

	for _, img := range images {
		if err := write(img.Filename(), img.Data); err != nil {
			return keys, err
		}
	}
	return keys, nil
}

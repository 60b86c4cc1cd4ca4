package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scriptstudio/internal/domain"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "run/scene_01.png", want: "run/scene_01.png"},
		{in: "/abs/path.txt", want: "abs/path.txt"},
		{in: `win\style\key.txt`, want: "win/style/key.txt"},
		{in: "./a/../b.txt", want: "b.txt"},
		{in: "../escape.txt", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("sanitizeKey(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileStoreWrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx := context.Background()
	key, err := store.Write(ctx, "a/b.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	got, err := os.ReadFile(store.Path(key))
	if err != nil {
		t.Fatalf("Path(%q) not readable: %v", key, err)
	}
	if string(got) != "hello" {
		t.Fatalf("stored bytes = %q, want %q", got, "hello")
	}
}

func TestFileStoreExport(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	script := &domain.ScriptResult{
		TTSContent:        "tts",
		SceneDescriptions: "scenes",
		ImagePrompts:      []string{"p1", "p2"},
		FacebookPost:      "fb",
	}
	images := []domain.GeneratedImage{
		{Ordinal: 1, Image: domain.Image{MIMEType: "image/png", Data: []byte("1")}},
		{Ordinal: 2, Image: domain.Image{MIMEType: "image/jpeg", Data: []byte("2")}},
	}
	keys, err := store.Export(context.Background(), "run", script, images)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	want := []string{
		"run/script.json", "run/tts.txt", "run/scenes.txt", "run/prompts.txt", "run/facebook.txt",
		"run/scene_01.png", "run/scene_02.jpg",
	}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	prompts, err := os.ReadFile(filepath.Join(base, "run", PromptsFile))
	if err != nil {
		t.Fatalf("read prompts: %v", err)
	}
	if string(prompts) != "1. p1\n2. p2\n" {
		t.Fatalf("prompts.txt = %q", prompts)
	}
}

func TestFileStoreExportCancelled(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Export(ctx, "run", &domain.ScriptResult{}, nil); err == nil {
		t.Fatal("expected context error")
	}
}

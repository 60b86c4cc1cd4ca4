// Command scriptgen runs one script-then-images workflow from the terminal and
// exports the results to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scriptstudio/internal/i18n"
	"scriptstudio/internal/infra"
	"scriptstudio/internal/providers"
	"scriptstudio/internal/storage"
	"scriptstudio/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	topic := flag.String("topic", "", "topic of the video script (required)")
	aspect := flag.String("aspect", "", "image aspect ratio: 1:1, 9:16 or 16:9")
	refPath := flag.String("ref", "", "optional reference image file")
	outDir := flag.String("out", "", "export directory (defaults to OUTPUT_DIR)")
	withZip := flag.Bool("zip", false, "also write gallery.zip")
	withImages := flag.Bool("images", true, "generate images after the script")
	flag.Parse()

	if *topic == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	lang := i18n.Match(cfg.DefaultLocale)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := providers.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scriptgen: providers")
	}
	logger.Info().
		Str("profile", set.Profile.Name).
		Int("scenes", set.Profile.SceneCount).
		Msg("scriptgen: style profile")
	ctrl, err := set.NewController(func(s workflow.Snapshot) {
		if s.Phase == workflow.PhaseGeneratingImages && s.Progress > 0 {
			logger.Info().Msgf("scriptgen: image %d/%d", s.Progress, s.Total)
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("scriptgen: controller")
	}

	var reference []byte
	if *refPath != "" {
		reference, err = os.ReadFile(*refPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("scriptgen: read reference image")
		}
		if int64(len(reference)) > cfg.MaxReferenceBytes {
			logger.Fatal().Int("bytes", len(reference)).Msg("scriptgen: " + i18n.Message(i18n.PayloadTooLarge, lang))
		}
	}

	dir := *outDir
	if dir == "" {
		dir = cfg.OutputDir
	}
	store, err := storage.NewFileStore(dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("scriptgen: output directory")
	}

	res, err := run(ctx, ctrl, store, runOptions{
		Topic:       *topic,
		AspectRatio: *aspect,
		Reference:   reference,
		Images:      *withImages,
		Zip:         *withZip,
		Dir:         "run-" + time.Now().Format("20060102-150405"),
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scriptgen: run")
	}
	if f := res.Snapshot.Failure; f != nil {
		logger.Error().
			Str("stage", string(f.Stage)).
			Str("kind", f.Kind).
			Str("detail", f.Detail).
			Msg(i18n.Message(f.Code, lang))
	}
	os.Exit(res.exitCode())
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/rs/zerolog"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/storage"
	"scriptstudio/internal/workflow"
	"scriptstudio/pkg/zip"
)

type runOptions struct {
	Topic       string
	AspectRatio string
	Reference   []byte
	Images      bool
	Zip         bool
	// Dir is the export directory relative to the store root.
	Dir string
}

type runResult struct {
	Snapshot workflow.Snapshot
	Keys     []string
}

// exitCode is non-zero when the workflow ended in a failure, even if a
// partial gallery was exported.
func (r runResult) exitCode() int {
	if r.Snapshot.Failure != nil {
		return 1
	}
	return 0
}

// run drives ctrl through one script and, optionally, one image batch and
// exports whatever was produced. A failed script exports nothing; a failed
// batch still exports the images produced before the failure.
func run(ctx context.Context, ctrl *workflow.Controller, store *storage.FileStore, opts runOptions, logger zerolog.Logger) (runResult, error) {
	if opts.AspectRatio != "" {
		ar, err := domain.ParseAspectRatio(opts.AspectRatio)
		if err != nil {
			return runResult{}, err
		}
		if err := ctrl.SetAspectRatio(ar); err != nil {
			return runResult{}, err
		}
	}
	if len(opts.Reference) > 0 {
		ref, err := domain.NewReferenceImage(opts.Reference, http.DetectContentType(opts.Reference))
		if err != nil {
			return runResult{}, err
		}
		if err := ctrl.SetReferenceImage(ref); err != nil {
			return runResult{}, err
		}
	}

	done, err := ctrl.SubmitTopic(ctx, opts.Topic)
	if err != nil {
		return runResult{}, err
	}
	logger.Info().Str("topic", opts.Topic).Msg("scriptgen: writing script")
	<-done
	res := runResult{Snapshot: ctrl.Snapshot()}
	if res.Snapshot.Failure != nil {
		return res, nil
	}

	if opts.Images {
		done, err = ctrl.StartImageBatch(ctx)
		if err != nil {
			return res, err
		}
		<-done
		res.Snapshot = ctrl.Snapshot()
	}

	snap := res.Snapshot
	// export even when interrupted
	exportCtx := context.WithoutCancel(ctx)
	res.Keys, err = store.Export(exportCtx, opts.Dir, snap.Script, snap.Images)
	if err != nil {
		return res, err
	}
	if opts.Zip && len(snap.Images) > 0 {
		assets := make([]zip.Asset, 0, len(snap.Images))
		for _, img := range snap.Images {
			assets = append(assets, zip.Asset{Filename: img.Filename(), MIME: img.MIMEType, Data: img.Data})
		}
		archive, err := zip.ArchiveAssets(assets)
		if err != nil {
			return res, fmt.Errorf("scriptgen: zip: %w", err)
		}
		key, err := store.Write(exportCtx, path.Join(opts.Dir, "gallery.zip"), archive)
		if err != nil {
			return res, err
		}
		res.Keys = append(res.Keys, key)
	}
	logger.Info().
		Str("dir", store.Path(opts.Dir)).
		Int("files", len(res.Keys)).
		Int("images", len(snap.Images)).
		Msg("scriptgen: exported")
	return res, nil
}

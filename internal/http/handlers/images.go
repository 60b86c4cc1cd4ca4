package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/i18n"
	"scriptstudio/internal/middleware"
	"scriptstudio/internal/workflow"
	"scriptstudio/pkg/zip"
)

type aspectRatioRequest struct {
	AspectRatio string `json:"aspect_ratio"`
}

func (a *App) SetAspectRatio(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req aspectRatioRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		a.fail(w, r, fmt.Errorf("%w: invalid payload", domain.ErrValidation))
		return
	}
	ar, err := domain.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := sess.Controller.SetAspectRatio(ar); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newSessionView(sess.ID, sess.Controller.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

type referenceRequest struct {
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
	DataURI  string `json:"data_uri"`
}

// SetReferenceImage accepts either a multipart upload in the "file" field or
// a JSON body carrying base64 data or a data URI.
func (a *App) SetReferenceImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	ref, err := a.readReference(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := sess.Controller.SetReferenceImage(ref); err != nil {
		a.fail(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("session_id", sess.ID).
		Str("mime_type", ref.MIMEType).
		Msg("reference image selected")
	a.json(w, http.StatusOK, newSessionView(sess.ID, sess.Controller.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

func (a *App) readReference(w http.ResponseWriter, r *http.Request) (domain.ReferenceImage, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxReferenceBytes+(64<<10))
		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return domain.ReferenceImage{}, err
			}
			return domain.ReferenceImage{}, fmt.Errorf("%w: file field is required", domain.ErrValidation)
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, a.MaxReferenceBytes+1))
		if err != nil {
			return domain.ReferenceImage{}, err
		}
		if int64(len(data)) > a.MaxReferenceBytes {
			return domain.ReferenceImage{}, &http.MaxBytesError{Limit: a.MaxReferenceBytes}
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}
		return domain.NewReferenceImage(data, mimeType)
	}

	// base64 inflates the payload by a third
	limit := a.MaxReferenceBytes/3*4 + (64 << 10)
	var req referenceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.ReferenceImage{}, err
		}
		return domain.ReferenceImage{}, fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	var (
		ref domain.ReferenceImage
		err error
	)
	if strings.TrimSpace(req.DataURI) != "" {
		ref, err = domain.ParseDataURI(req.DataURI)
	} else {
		ref = domain.ReferenceImage{Data: strings.TrimSpace(req.Data), MIMEType: strings.ToLower(strings.TrimSpace(req.MIMEType))}
		err = ref.Validate()
	}
	if err != nil {
		return domain.ReferenceImage{}, err
	}
	if int64(len(ref.Bytes())) > a.MaxReferenceBytes {
		return domain.ReferenceImage{}, &http.MaxBytesError{Limit: a.MaxReferenceBytes}
	}
	return ref, nil
}

func (a *App) ClearReferenceImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := sess.Controller.ClearReferenceImage(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newSessionView(sess.ID, sess.Controller.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

// StartImageBatch illustrates the current script and answers 202.
func (a *App) StartImageBatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Controller.StartImageBatch(context.WithoutCancel(r.Context())); err != nil {
		a.fail(w, r, err)
		return
	}
	snap := sess.Controller.Snapshot()
	zerolog.Ctx(r.Context()).Info().
		Str("session_id", sess.ID).
		Int("total", snap.Total).
		Str("aspect_ratio", string(snap.AspectRatio)).
		Msg("image batch started")
	a.json(w, http.StatusAccepted, newSessionView(sess.ID, snap, middleware.LocaleFromContext(r.Context())))
}

func (a *App) ListImages(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	snap := sess.Controller.Snapshot()
	a.json(w, http.StatusOK, map[string]any{
		"phase":    snap.Phase,
		"progress": snap.Progress,
		"total":    snap.Total,
		"items":    newImageViews(snap),
	})
}

// DownloadImage serves the raw bytes of one image.
func (a *App) DownloadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil {
		a.error(w, r, http.StatusBadRequest, i18n.ValidationFailed)
		return
	}
	img, ok := sess.Controller.Image(ordinal)
	if !ok {
		a.error(w, r, http.StatusNotFound, i18n.ImageMissing)
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", img.Filename()))
	_, _ = w.Write(img.Data)
}

// DownloadZip bundles the gallery together with the script texts.
func (a *App) DownloadZip(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	snap := sess.Controller.Snapshot()
	if len(snap.Images) == 0 {
		a.error(w, r, http.StatusNotFound, i18n.ImageMissing)
		return
	}
	archive, err := zip.ArchiveAssets(galleryAssets(snap))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scenes-%s.zip", sess.ID))
	_, _ = w.Write(archive)
}

func galleryAssets(snap workflow.Snapshot) []zip.Asset {
	assets := make([]zip.Asset, 0, len(snap.Images)+2)
	if snap.Script != nil {
		if body, err := json.MarshalIndent(snap.Script, "", "  "); err == nil {
			assets = append(assets, zip.Asset{Filename: "script.json", MIME: "application/json", Data: body})
		}
		assets = append(assets, zip.Asset{Filename: "tts.txt", MIME: "text/plain", Data: []byte(snap.Script.TTSContent)})
	}
	for _, img := range snap.Images {
		assets = append(assets, zip.Asset{Filename: img.Filename(), MIME: img.MIMEType, Data: img.Data})
	}
	return assets
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/i18n"
	"scriptstudio/internal/middleware"
	"scriptstudio/internal/session"
)

type App struct {
	Store             *session.Store
	Logger            zerolog.Logger
	MaxReferenceBytes int64
	AllowedOrigins    []string

	upgrader websocket.Upgrader
}

type AppOptions struct {
	Store             *session.Store
	Logger            *zerolog.Logger
	MaxReferenceBytes int64
	AllowedOrigins    []string
}

func NewApp(opts AppOptions) *App {
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	maxRef := opts.MaxReferenceBytes
	if maxRef <= 0 {
		maxRef = 10 << 20
	}
	a := &App{
		Store:             opts.Store,
		Logger:            logger,
		MaxReferenceBytes: maxRef,
		AllowedOrigins:    opts.AllowedOrigins,
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(a.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return a
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// error writes a localized error envelope.
func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code string) {
	msg := i18n.Message(code, middleware.LocaleFromContext(r.Context()))
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: msg}})
}

// fail maps a domain error onto an HTTP status.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		a.error(w, r, http.StatusRequestEntityTooLarge, i18n.PayloadTooLarge)
	case errors.Is(err, domain.ErrValidation):
		a.error(w, r, http.StatusBadRequest, i18n.ValidationFailed)
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, r, http.StatusConflict, i18n.WorkflowBusy)
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, r, http.StatusNotFound, i18n.SessionNotFound)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("http: unhandled error")
		a.error(w, r, http.StatusInternalServerError, i18n.InternalError)
	}
}

// session resolves the {id} URL parameter, writing a 404 when it is unknown.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := a.Store.Get(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, r, http.StatusNotFound, i18n.SessionNotFound)
		return nil, false
	}
	return sess, true
}

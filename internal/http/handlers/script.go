package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"scriptstudio/internal/domain"
	"scriptstudio/internal/middleware"
)

type scriptRequest struct {
	Topic string `json:"topic"`
}

// SubmitTopic starts script generation and answers 202 with the new state.
// The outcome is delivered through GetSession or the event stream.
func (a *App) SubmitTopic(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req scriptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		a.fail(w, r, fmt.Errorf("%w: invalid payload", domain.ErrValidation))
		return
	}
	// the provider call outlives the request
	ctx := context.WithoutCancel(r.Context())
	if _, err := sess.Controller.SubmitTopic(ctx, req.Topic); err != nil {
		a.fail(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("session_id", sess.ID).Msg("script requested")
	a.json(w, http.StatusAccepted, newSessionView(sess.ID, sess.Controller.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"scriptstudio/internal/middleware"
)

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Store.Create()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("session_id", sess.ID).Msg("session created")
	w.Header().Set("Location", "/v1/sessions/"+sess.ID)
	a.json(w, http.StatusCreated, newSessionView(sess.ID, sess.Controller.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, newSessionView(sess.ID, sess.Controller.Snapshot(), middleware.LocaleFromContext(r.Context())))
}

// DeleteSession discards a session. Sessions with a request in flight are
// kept and answer 409.
func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Delete(chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

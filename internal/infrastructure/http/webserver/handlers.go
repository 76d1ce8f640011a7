package webserver

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/infrastructure/http/session"
	"github.com/spiceshelf/shelf/pkg/errors"
)

func (s *WebServer) handleShelf(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	view, err := s.service.View(r.Context(), sess.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.renderTemplate(w, http.StatusOK, "shelf", map[string]interface{}{
		"View":         view,
		"Flash":        s.sessions.PopFlash(sess.ID),
		"CSRFToken":    s.sessions.CSRFToken(sess.ID),
		"CSRFField":    session.CSRFFormField,
		"ShelfColumns": s.config.UI.ShelfColumns,
		"CardColumns":  s.config.UI.CardColumns,
	})
}

func (s *WebServer) handleAddSpice(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	name := strings.TrimSpace(r.FormValue("name"))

	added, err := s.service.AddSpice(r.Context(), sess.ID, name)
	switch {
	case errors.Is(err, errors.CodeValidationFailed):
		s.sessions.SetFlash(sess.ID, "Pick a spice from the shelf")
	case errors.Is(err, errors.CodeSpiceNotFound):
		s.sessions.SetFlash(sess.ID, fmt.Sprintf("%s is not on the shelf", name))
	case err != nil:
		s.renderError(w, r, err)
		return
	case added:
		s.sessions.SetFlash(sess.ID, "Added: "+name)
	default:
		s.sessions.SetFlash(sess.ID, name+" is already in basket")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *WebServer) handleClearBasket(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	if err := s.service.ClearBasket(r.Context(), sess.ID); err != nil {
		s.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *WebServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	if err := s.service.TriggerSearch(r.Context(), sess.ID); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.logger.Debug("Search triggered", zap.String("session_id", sess.ID))
	http.Redirect(w, r, "/#results", http.StatusSeeOther)
}

package handlers

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"blog/internal/auth"
	"blog/internal/events"
	"blog/internal/models"
	"blog/internal/store"
	"blog/web"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	store    store.Store
	sessions *auth.Manager
	digester auth.Digester
	events   events.Publisher
	log      *logrus.Entry
	tpls     *template.Template
}

func New(st store.Store, sessions *auth.Manager, digester auth.Digester, pub events.Publisher, log logrus.FieldLogger) *Handler {
	tpls := template.Must(template.New("").Funcs(template.FuncMap{
		"ago": func(t time.Time) string { return humanize.Time(t) },
	}).ParseFS(web.Templates, "templates/*.html"))
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handler{
		store:    st,
		sessions: sessions,
		digester: digester,
		events:   pub,
		log:      log.WithField("module", "http"),
		tpls:     tpls,
	}
}

// render executes a named template into a buffer first so a template error
// never leaves a half written page behind.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if u, ok := auth.UserFromContext(r.Context()); ok {
		data["User"] = u.Username
	}
	var buf bytes.Buffer
	if err := h.tpls.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) errorView(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, "error", map[string]any{
		"Title":   http.StatusText(status),
		"Message": msg,
	})
}

// serverError logs err and renders a generic 500 view.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	h.errorView(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.errorView(w, r, http.StatusNotFound, "That page does not exist.")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.errorView(w, r, http.StatusMethodNotAllowed, "That action is not available here.")
}

// loadPost resolves the {id} route variable. It writes the 404 or 500
// response itself and returns false when the handler should stop.
func (h *Handler) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return nil, false
	}
	p, err := h.store.GetPostByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return p, true
}

// currentUser is only nil on routes that are not behind auth.RequireLogin.
func currentUser(r *http.Request) *models.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}

// publish sends an activity event. Failures are logged, never returned.
func (h *Handler) publish(ctx context.Context, e events.Event) {
	if err := h.events.Publish(ctx, e); err != nil {
		h.log.WithError(err).WithField("event", e.Type).Warn("publish failed")
	}
}

func postURL(id int64) string {
	return "/blog/" + strconv.FormatInt(id, 10)
}

func (h *Handler) Greet(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "greet", map[string]any{"Title": "Welcome"})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

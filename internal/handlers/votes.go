package handlers

import (
	"net/http"
	"strings"

	"blog/internal/auth"
	"blog/internal/events"
	"blog/internal/models"
	"blog/internal/monitoring"

	"github.com/gorilla/mux"
)

const selfVoteError = "You cannot vote on your own post."

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	action, err := models.ParseVoteAction(mux.Vars(r)["action"])
	if err != nil {
		h.NotFound(w, r)
		return
	}
	u := currentUser(r)
	if !auth.CanVote(u, p) {
		monitoring.Votes.WithLabelValues("rejected").Inc()
		h.renderPost(w, r, http.StatusForbidden, p, selfVoteError, false)
		return
	}

	state, err := h.store.CastVote(r.Context(), p.ID, u.ID, action)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	score, err := h.store.CountLikeScore(r.Context(), p.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	monitoring.Votes.WithLabelValues(state.String()).Inc()
	h.publish(r.Context(), events.Event{
		Type:     events.VoteCast,
		Username: u.Username,
		PostID:   p.ID,
		Vote:     state.String(),
		Score:    &score,
	})
	http.Redirect(w, r, postURL(p.ID), http.StatusSeeOther)
}

func (h *Handler) NewComment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	body := strings.TrimSpace(r.FormValue("comment"))
	if body == "" {
		http.Redirect(w, r, postURL(p.ID)+"?error=empty_comment", http.StatusSeeOther)
		return
	}
	u := currentUser(r)
	if _, err := h.store.CreateComment(r.Context(), p.ID, u.ID, body); err != nil {
		h.serverError(w, r, err)
		return
	}

	monitoring.CommentsCreated.Inc()
	h.publish(r.Context(), events.Event{Type: events.CommentCreated, Username: u.Username, PostID: p.ID})
	http.Redirect(w, r, postURL(p.ID), http.StatusSeeOther)
}

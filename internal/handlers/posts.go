package handlers

import (
	"errors"
	"net/http"
	"strings"

	"blog/internal/auth"
	"blog/internal/events"
	"blog/internal/models"
	"blog/internal/monitoring"
	"blog/internal/store"
)

const missingFieldsError = "We need both a title and a blog in order to publish this entry."

func (h *Handler) Front(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.RecentPosts(r.Context(), store.RecentLimit)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "front", map[string]any{
		"Title": "Blog",
		"Posts": posts,
	})
}

func (h *Handler) postForm(w http.ResponseWriter, r *http.Request, status int, action, submit, title, body, errMsg string) {
	h.render(w, r, status, "post_form", map[string]any{
		"Title":     submit,
		"Action":    action,
		"Submit":    submit,
		"PostTitle": title,
		"PostBody":  body,
		"Error":     errMsg,
	})
}

func postFields(r *http.Request) (title, body string, ok bool) {
	title = strings.TrimSpace(r.FormValue("subject"))
	body = strings.TrimSpace(r.FormValue("content"))
	return title, body, title != "" && body != ""
}

func (h *Handler) NewPost(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.postForm(w, r, http.StatusOK, "/blog/newpost", "Publish", "", "", "")
		return
	}

	title, body, ok := postFields(r)
	if !ok {
		h.postForm(w, r, http.StatusBadRequest, "/blog/newpost", "Publish", title, body, missingFieldsError)
		return
	}
	u := currentUser(r)
	p, err := h.store.CreatePost(r.Context(), u.ID, title, body)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	monitoring.PostsCreated.Inc()
	h.publish(r.Context(), events.Event{Type: events.PostCreated, Username: u.Username, PostID: p.ID})
	http.Redirect(w, r, postURL(p.ID), http.StatusSeeOther)
}

func (h *Handler) ShowPost(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	var errMsg string
	if r.URL.Query().Get("error") == "empty_comment" {
		errMsg = "Comments cannot be empty."
	}
	h.renderPost(w, r, http.StatusOK, p, errMsg, false)
}

// renderPost shows a post with its comments, score and the viewer's vote.
func (h *Handler) renderPost(w http.ResponseWriter, r *http.Request, status int, p *models.Post, errMsg string, modal bool) {
	ctx := r.Context()
	u := currentUser(r)

	comments, err := h.store.CommentsByPost(ctx, p.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	like, err := h.store.FindLike(ctx, p.ID, u.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, status, "permalink", map[string]any{
		"Title":        p.Title,
		"Post":         p,
		"Score":        p.Score,
		"Comments":     comments,
		"Vote":         models.StateOf(like).String(),
		"UserIsAuthor": auth.CanEdit(u, p),
		"Error":        errMsg,
		"Modal":        modal,
	})
}

func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	u := currentUser(r)
	if !auth.CanEdit(u, p) {
		h.errorView(w, r, http.StatusForbidden, "You can only edit your own posts.")
		return
	}
	action := postURL(p.ID) + "/edit"

	if r.Method == http.MethodGet {
		h.postForm(w, r, http.StatusOK, action, "Update", p.Title, p.Body, "")
		return
	}

	title, body, ok := postFields(r)
	if !ok {
		h.postForm(w, r, http.StatusBadRequest, action, "Update", title, body, missingFieldsError)
		return
	}
	_, err := h.store.UpdatePost(r.Context(), p.ID, title, body)
	if errors.Is(err, store.ErrNotFound) {
		// deleted since loadPost
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.publish(r.Context(), events.Event{Type: events.PostUpdated, Username: u.Username, PostID: p.ID})
	http.Redirect(w, r, postURL(p.ID), http.StatusSeeOther)
}

// DeletePost asks for confirmation on GET and removes the post, its comments
// and its votes on POST.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPost(w, r)
	if !ok {
		return
	}
	u := currentUser(r)
	if !auth.CanEdit(u, p) {
		h.errorView(w, r, http.StatusForbidden, "You can only delete your own posts.")
		return
	}

	if r.Method == http.MethodGet {
		h.renderPost(w, r, http.StatusOK, p, "", true)
		return
	}

	if err := h.store.DeletePost(r.Context(), p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}

	h.publish(r.Context(), events.Event{Type: events.PostDeleted, Username: u.Username, PostID: p.ID})
	http.Redirect(w, r, "/blog", http.StatusSeeOther)
}

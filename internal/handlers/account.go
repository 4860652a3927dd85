package handlers

import (
	"errors"
	"net/http"
	"strings"

	"blog/internal/auth"
	"blog/internal/events"
	"blog/internal/monitoring"
	"blog/internal/store"
)

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if currentUser(r) != nil {
			http.Redirect(w, r, "/blog", http.StatusSeeOther)
			return
		}
		h.render(w, r, http.StatusOK, "signup", map[string]any{"Title": "Sign up"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	verify := r.FormValue("verify")
	email := strings.TrimSpace(r.FormValue("email"))

	form := map[string]any{
		"Title":    "Sign up",
		"Username": username,
		"Email":    email,
	}
	ok := true
	if !auth.ValidateUsername(username) {
		form["UsernameError"] = "Username must have 3-20 alphanumeric characters"
		ok = false
	} else if _, err := h.store.FindUserByUsername(r.Context(), username); err == nil {
		form["UsernameError"] = "Username has already been taken."
		ok = false
	} else if !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}
	if !auth.ValidatePassword(password) {
		form["PasswordError"] = "Password must have 3-20 characters"
		ok = false
	}
	if !auth.PasswordsMatch(password, verify) {
		form["VerifyError"] = "Passwords don't match"
		ok = false
	}
	if !auth.ValidateEmail(email) {
		form["EmailError"] = "That's not a valid email address"
		ok = false
	}
	if !ok {
		h.render(w, r, http.StatusBadRequest, "signup", form)
		return
	}

	digest, err := h.digester.Digest(username, password)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	u, err := h.store.CreateUser(r.Context(), username, digest)
	if errors.Is(err, store.ErrConflict) {
		// lost a race with a concurrent signup for the same name
		form["UsernameError"] = "Username has already been taken."
		h.render(w, r, http.StatusBadRequest, "signup", form)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	monitoring.Signups.Inc()
	h.publish(r.Context(), events.Event{Type: events.UserSignedUp, Username: u.Username})
	h.sessions.Issue(w, u.PasswordDigest)
	http.Redirect(w, r, "/blog", http.StatusSeeOther)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if currentUser(r) != nil {
			http.Redirect(w, r, "/blog", http.StatusSeeOther)
			return
		}
		h.render(w, r, http.StatusOK, "login", map[string]any{"Title": "Log in"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	u, err := h.store.FindUserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}
	if u == nil || !auth.Verify(username, password, u.PasswordDigest) {
		monitoring.Logins.WithLabelValues("failure").Inc()
		h.render(w, r, http.StatusUnauthorized, "login", map[string]any{
			"Title":    "Log in",
			"Username": username,
			"Error":    "Invalid Login",
		})
		return
	}

	monitoring.Logins.WithLabelValues("success").Inc()
	// For sha256 digests the stored value is exactly IssueToken(username,
	// password); bcrypt digests cannot be recomputed, so reuse the stored one.
	h.sessions.Issue(w, u.PasswordDigest)
	http.Redirect(w, r, "/blog", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/blog/login", http.StatusSeeOther)
}

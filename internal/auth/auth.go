package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"blog/internal/models"
	"blog/internal/store"
)

const SessionCookie = "name"

// UserLookup is the slice of the store the session codec needs.
type UserLookup interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// CurrentUser decodes a "username|fragment" token. It returns the username
// only when the stored digest for that user carries the same fragment.
func CurrentUser(cookieValue string, lookup func(username string) (digest string, found bool)) (string, bool) {
	name, frag, ok := strings.Cut(cookieValue, "|")
	if !ok || name == "" || frag == "" {
		return "", false
	}
	digest, found := lookup(name)
	if !found {
		return "", false
	}
	_, stored, ok := strings.Cut(digest, "|")
	if !ok || stored != frag {
		return "", false
	}
	return name, true
}

type Manager struct {
	users UserLookup
}

func NewManager(users UserLookup) *Manager {
	return &Manager{users: users}
}

// Issue sets the session cookie. It has no expiry and no HttpOnly or Secure
// flag; it lives until the browser drops it or Clear overwrites it.
func (m *Manager) Issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:  SessionCookie,
		Value: token,
		Path:  "/",
	})
}

func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:  SessionCookie,
		Value: "",
		Path:  "/",
	})
}

// CurrentUser returns the user behind the request's session cookie. Lookup
// failures other than a missing user are returned so callers can tell an
// anonymous visitor from a broken store.
func (m *Manager) CurrentUser(r *http.Request) (*models.User, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	var (
		user      *models.User
		lookupErr error
	)
	_, ok := CurrentUser(c.Value, func(username string) (string, bool) {
		u, err := m.users.FindUserByUsername(r.Context(), username)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				lookupErr = err
			}
			return "", false
		}
		user = u
		return u.PasswordDigest, true
	})
	if lookupErr != nil {
		return nil, lookupErr
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}

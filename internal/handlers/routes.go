package handlers

import (
	"net/http"

	"blog/internal/auth"
	"blog/internal/monitoring"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the router. Everything under /blog except signup, login and
// logout needs a valid session.
func (h *Handler) Routes(metrics bool) http.Handler {
	router := mux.NewRouter()

	// mux skips router.Use middleware for unmatched requests, so the 404 and
	// 405 handlers get the same chain applied by hand.
	chain := []mux.MiddlewareFunc{
		h.RequestLogger,
		monitoring.Middleware,
		h.WithRecover,
		h.sessions.Authenticate(func(r *http.Request, err error) {
			h.log.WithError(err).Error("session lookup failed")
		}),
	}
	wrap := func(next http.Handler) http.Handler {
		for i := len(chain) - 1; i >= 0; i-- {
			next = chain[i](next)
		}
		return next
	}
	router.Use(chain...)
	router.NotFoundHandler = wrap(http.HandlerFunc(h.NotFound))
	router.MethodNotAllowedHandler = wrap(http.HandlerFunc(h.MethodNotAllowed))

	private := func(f http.HandlerFunc) http.Handler {
		return auth.RequireLogin(f)
	}

	router.HandleFunc("/", h.Greet).Methods("GET")
	router.HandleFunc("/healthz", h.Healthz).Methods("GET")

	router.HandleFunc("/blog/signup", h.Signup).Methods("GET", "POST")
	router.HandleFunc("/blog/login", h.Login).Methods("GET", "POST")
	router.HandleFunc("/blog/logout", h.Logout).Methods("POST")

	router.Handle("/blog", private(h.Front)).Methods("GET")
	router.Handle("/blog/newpost", private(h.NewPost)).Methods("GET", "POST")
	router.Handle("/blog/{id:[0-9]+}", private(h.ShowPost)).Methods("GET")
	router.Handle("/blog/{id:[0-9]+}/edit", private(h.EditPost)).Methods("GET", "POST")
	router.Handle("/blog/{id:[0-9]+}/delete", private(h.DeletePost)).Methods("GET", "POST")
	router.Handle("/blog/{id:[0-9]+}/vote/{action:like|dislike}", private(h.Vote)).Methods("POST")
	router.Handle("/blog/{id:[0-9]+}/comment", private(h.NewComment)).Methods("POST")

	if metrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	return h.WithRecover(router)
}

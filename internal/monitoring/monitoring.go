package monitoring

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	Signups = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blog_signups_total",
		Help: "Accounts created.",
	})

	PostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blog_posts_created_total",
		Help: "Posts published.",
	})

	CommentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blog_comments_created_total",
		Help: "Comments added.",
	})

	Votes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_votes_total",
		Help: "Vote requests by resulting state, or rejected.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(Logins)
	prometheus.MustRegister(Signups)
	prometheus.MustRegister(PostsCreated)
	prometheus.MustRegister(CommentsCreated)
	prometheus.MustRegister(Votes)
}

// StatusRecorder remembers the status code written through it.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (rw *StatusRecorder) WriteHeader(code int) {
	rw.Status = code
	rw.ResponseWriter.WriteHeader(code)
}

// RouteName returns the matched mux template so /blog/1 and /blog/2 share a
// label. Unmatched requests are grouped under "unmatched".
func RouteName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Middleware records request duration by method, route, and status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rw, r)

		RequestDuration.WithLabelValues(r.Method, RouteName(r), fmt.Sprintf("%d", rw.Status)).
			Observe(time.Since(start).Seconds())
	})
}

package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/blog/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.CollectAndCount(RequestDuration)
	for _, path := range []string{"/blog/1", "/blog/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
	if got := testutil.CollectAndCount(RequestDuration) - before; got != 1 {
		t.Fatalf("expected one new series for both paths, got %d", got)
	}
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Votes.WithLabelValues("rejected"))
	Votes.WithLabelValues("rejected").Inc()
	if got := testutil.ToFloat64(Votes.WithLabelValues("rejected")); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}

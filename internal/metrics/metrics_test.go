package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/api/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/users/{id}", "GET", "404"))
	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/users/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/users/{id}", "GET", "404"))
	if after-before != 3 {
		t.Fatalf("expected 3 counted requests, got %v", after-before)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	PreviewRowsTotal.WithLabelValues("valid").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "planner_preview_rows_total") {
		t.Fatal("preview counter missing from exposition")
	}
}

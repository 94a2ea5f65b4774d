package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-planner/internal/auth"
)

type fakeSessions map[string]bool

func (f fakeSessions) SessionActive(_ context.Context, id string) (bool, error) {
	if id == "broken" {
		return false, errors.New("db down")
	}
	return f[id], nil
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(UserID(r.Context()) + "/" + SessionID(r.Context())))
}

func TestAuth(t *testing.T) {
	is := auth.NewIssuer("test-secret", time.Hour)
	h := Auth(is, fakeSessions{"s1": true, "revoked": false})(http.HandlerFunc(echoUser))

	good, _, _ := is.MakeToken("u1", "s1")
	revoked, _, _ := is.MakeToken("u1", "revoked")
	broken, _, _ := is.MakeToken("u1", "broken")
	other, _, _ := auth.NewIssuer("other-secret", time.Hour).MakeToken("u1", "s1")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other, http.StatusUnauthorized},
		{"revoked session", "Bearer " + revoked, http.StatusUnauthorized},
		{"session lookup fails", "Bearer " + broken, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusOK && rec.Body.String() != "u1/s1" {
				t.Errorf("context not populated: %q", rec.Body.String())
			}
			if tt.want != http.StatusOK && !strings.Contains(rec.Body.String(), `"code"`) {
				t.Errorf("error body not json: %q", rec.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0.001, 2)
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	do := func(addr string) int {
		req := httptest.NewRequest("POST", "/api/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if c := do("10.0.0.1:1111"); c != http.StatusOK {
		t.Fatalf("first: %d", c)
	}
	// same IP, different port shares the bucket
	if c := do("10.0.0.1:2222"); c != http.StatusOK {
		t.Fatalf("second: %d", c)
	}
	if c := do("10.0.0.1:3333"); c != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", c)
	}
	if c := do("10.0.0.2:1111"); c != http.StatusOK {
		t.Fatalf("other ip limited: %d", c)
	}
}

func TestRateLimiterEvict(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rl := NewRateLimiter(ctx, 1, 1)
	rl.Allow("a")
	rl.evict(time.Now())
	if len(rl.clients) != 1 {
		t.Fatal("fresh entry evicted")
	}
	rl.evict(time.Now().Add(4 * time.Minute))
	if len(rl.clients) != 0 {
		t.Fatal("idle entry kept")
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	h := Logging(zerolog.New(&buf))(Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"status":500`) {
		t.Errorf("access line missing: %s", buf.String())
	}
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS("*")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest("OPTIONS", "/api/appointments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("preflight not short-circuited: %d called=%v", rec.Code, called)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("origin not reflected: %q", got)
	}

	h = CORS("https://planner.example")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users", nil))
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://planner.example" {
		t.Errorf("fixed origin not used: %q", got)
	}
}

func TestGRPCLogging(t *testing.T) {
	var buf bytes.Buffer
	ic := GRPCLogging(zerolog.New(&buf))
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Unavailable, "db down")
	})
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("error not passed through: %v", err)
	}
	if !strings.Contains(buf.String(), `"code":"Unavailable"`) || !strings.Contains(buf.String(), "Health/Check") {
		t.Errorf("unexpected log line: %s", buf.String())
	}
}

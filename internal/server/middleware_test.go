package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLogMiddlewareRequestID(t *testing.T) {
	h := logMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id not set")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-id-123")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "client-id-123" {
		t.Fatalf("client request id not propagated, got %q", got)
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(1)
	ok, _ := rl.allow("ip")
	if !ok {
		t.Fatal("first request should pass")
	}
	ok, wait := rl.allow("ip")
	if ok {
		t.Fatal("bucket should be drained")
	}
	if wait < 1 {
		t.Fatalf("wait = %d", wait)
	}
	// Other keys keep their own bucket.
	if ok, _ := rl.allow("other"); !ok {
		t.Fatal("separate key should pass")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := newRateLimiter(1000)
	for i := 0; i < 1000; i++ {
		rl.allow("ip")
	}
	time.Sleep(10 * time.Millisecond)
	if ok, _ := rl.allow("ip"); !ok {
		t.Fatal("bucket should refill over time")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.5:1234"
	if got := clientIP(r); got != "10.0.0.5" {
		t.Fatalf("remote addr ip = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.7" {
		t.Fatalf("xff ip = %q", got)
	}
}

package driver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kraktus/fen-manim/internal/scene"
)

func dotsStoryboard(t *testing.T) *scene.Storyboard {
	t.Helper()
	sb, err := scene.Build("dots", scene.Input{})
	if err != nil {
		t.Fatalf("scene.Build: %v", err)
	}
	return sb
}

func TestSubmitRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scenes" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var sb scene.Storyboard
		if err := json.NewDecoder(r.Body).Decode(&sb); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(SubmitResponse{ID: "r1", Accepted: true, Frames: len(sb.Steps)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(3), WithHeaderProvider(BearerToken("secret")), WithTimeout(2*time.Second))
	sb := dotsStoryboard(t)
	resp, err := c.Submit(context.Background(), sb)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !resp.Accepted || resp.Frames != len(sb.Steps) || resp.ID != "r1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("hits = %d, want 3", n)
	}
}

func TestSubmitDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad storyboard", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(3))
	if _, err := c.Submit(context.Background(), dotsStoryboard(t)); err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("hits = %d, want 1", n)
	}
}

func TestSubmitNil(t *testing.T) {
	if _, err := NewClient("http://127.0.0.1:1").Submit(context.Background(), nil); err != ErrNilStoryboard {
		t.Fatalf("expected ErrNilStoryboard, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: "1.2"})
	}))
	defer srv.Close()
	h, err := NewClient(srv.URL + "/").Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "ok" {
		t.Fatalf("status = %q", h.Status)
	}
}

func TestHTTPEgressRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SubmitResponse{Accepted: false, Message: "busy"})
	}))
	defer srv.Close()
	eg := NewEgress("http", false, NewClient(srv.URL), nil, nil)
	if _, err := eg.Deliver(context.Background(), dotsStoryboard(t)); err == nil {
		t.Fatalf("expected rejection error")
	}
}

func TestBackoffDuration(t *testing.T) {
	if backoffDuration(1) != 100*time.Millisecond || backoffDuration(3) != 400*time.Millisecond {
		t.Fatalf("unexpected backoff")
	}
	if backoffDuration(10) != backoffDuration(6) {
		t.Fatalf("backoff should cap")
	}
	if !shouldRetryStatus(502) || shouldRetryStatus(404) {
		t.Fatalf("retry classification wrong")
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"http", "WS", " auto "} {
		if !ValidMode(m) {
			t.Fatalf("%q should be valid", m)
		}
	}
	if ValidMode("grpc") {
		t.Fatalf("grpc should be invalid")
	}
}

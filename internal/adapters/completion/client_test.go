package completion_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"global_explorer/internal/adapters/completion"
	"global_explorer/internal/app"
	"global_explorer/internal/domain"
)

var conv = []domain.Message{
	{Role: "developer", Content: "answer with JSON"},
	{Role: "user", Content: "beaches in spring"},
}

func TestClient_Complete_SendsConversation(t *testing.T) {
	var got []domain.Message
	var key string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		key = r.Header.Get("X-Test-ID")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"msg": `{"regions":["Europe"]}`})
	}))
	defer ts.Close()

	cl, err := completion.New(ts.URL, "abc", "X-Test-ID", 100, time.Second, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out, err := cl.Complete(context.Background(), conv)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != `{"regions":["Europe"]}` {
		t.Fatalf("unexpected msg: %q", out)
	}
	if key != "abc" {
		t.Fatalf("key header not sent, got %q", key)
	}
	if len(got) != 2 || got[1].Content != "beaches in spring" {
		t.Fatalf("unexpected conversation: %+v", got)
	}
}

func TestClient_Complete_NoRetryByDefault(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(500)
	}))
	defer ts.Close()

	cl, _ := completion.New(ts.URL, "k", "", 100, time.Second, 0)
	if _, err := cl.Complete(context.Background(), conv); err == nil {
		t.Fatalf("expected error for 500")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
}

func TestClient_Complete_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"msg": "{}"})
		}
	}))
	defer ts.Close()

	cl, _ := completion.New(ts.URL, "k", "", 100, time.Second, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cl.Complete(ctx, conv); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls, got %d", hits)
	}
}

func TestClient_Complete_RetryAfterBeyondTimeoutGivesUp(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cl, _ := completion.New(ts.URL, "k", "", 100, time.Second, 3)
	start := time.Now()
	if _, err := cl.Complete(context.Background(), conv); err == nil {
		t.Fatalf("expected error for 429")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected one call, got %d", n)
	}
	if el := time.Since(start); el > 500*time.Millisecond {
		t.Fatalf("waited %v on a Retry-After the client could not honour", el)
	}
}

func TestClient_Complete_StatusErrors(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized: completion.ErrUnauthorized,
		http.StatusForbidden:    completion.ErrForbidden,
	}
	for status, want := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		cl, _ := completion.New(ts.URL, "k", "", 100, time.Second, 0)
		_, err := cl.Complete(context.Background(), conv)
		ts.Close()
		if !errors.Is(err, want) {
			t.Fatalf("status %d: got %v, want %v", status, err, want)
		}
	}
}

func TestClient_EmptyMsgIsMalformedNotTransport(t *testing.T) {
	for _, body := range []string{`{"msg":""}`, `{"other":"x"}`} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		cl, _ := completion.New(ts.URL, "k", "", 100, time.Second, 0)
		out, err := cl.Complete(context.Background(), conv)
		if err != nil || out != "" {
			ts.Close()
			t.Fatalf("body %s: Complete = %q, %v; want empty reply and no error", body, out, err)
		}

		al := domain.AllowList{Regions: []string{"Europe"}, Tags: []string{"food"}, Seasons: domain.Seasons}
		_, err = app.NewExtractor(cl, nil, 0).Extract(context.Background(), "food in Europe", al)
		ts.Close()
		if !errors.Is(err, domain.ErrMalformedResponse) {
			t.Fatalf("body %s: expected ErrMalformedResponse, got %v", body, err)
		}
		if errors.Is(err, domain.ErrTransport) {
			t.Fatalf("body %s: empty reply classified as transport failure: %v", body, err)
		}
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := completion.New("", "k", "", 1, time.Second, 0); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}

package correction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCorrectReturnsModelOutput(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "corrected sentence"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "gpt-3.5-turbo", "sk-test", time.Second)
	res := c.Correct(context.Background(), "helo wrld")

	if res.Fallback {
		t.Fatalf("unexpected fallback: %v", res.Cause)
	}
	if res.Text != "corrected sentence" {
		t.Fatalf("text = %q", res.Text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotReq.Model != "gpt-3.5-turbo" || len(gotReq.Messages) != 1 {
		t.Fatalf("request = %+v", gotReq)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "helo wrld") {
		t.Fatalf("prompt missing input text: %q", gotReq.Messages[0].Content)
	}
}

func TestCorrectFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "sk-test", time.Second)
	res := c.Correct(context.Background(), "original")

	if !res.Fallback || res.Cause == nil {
		t.Fatalf("expected fallback with cause, got %+v", res)
	}
	if res.Text != "original" {
		t.Fatalf("fallback must return the original text, got %q", res.Text)
	}
}

func TestCorrectFallsBackOnMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "sk-test", time.Second)
	res := c.Correct(context.Background(), "original")
	if !res.Fallback || res.Text != "original" {
		t.Fatalf("expected fallback, got %+v", res)
	}
}

func TestCorrectFallsBackOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "sk-test", time.Second)
	res := c.Correct(context.Background(), "original")
	if !res.Fallback || res.Text != "original" {
		t.Fatalf("expected fallback, got %+v", res)
	}
}

func TestCorrectFallsBackOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "sk-test", 50*time.Millisecond)
	res := c.Correct(context.Background(), "original")
	if !res.Fallback || res.Text != "original" {
		t.Fatalf("expected fallback, got %+v", res)
	}
}

func TestCorrectFallsBackWithoutCredentials(t *testing.T) {
	c := NewClient("", "", "", time.Second)
	res := c.Correct(context.Background(), "original")
	if !res.Fallback || res.Text != "original" {
		t.Fatalf("expected fallback, got %+v", res)
	}
}

package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSubmitPostsAnalyzePayload(t *testing.T) {
	var got analyzeRequest
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d, err := NewDispatcher(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	image := []byte{0x89, 'P', 'N', 'G'}
	if err := d.Submit(context.Background(), "img-1", "page.png", image); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if gotPath != "/analyze" {
		t.Fatalf("path = %s, want /analyze", gotPath)
	}
	if got.NoteImageID != "img-1" || got.FileName != "page.png" {
		t.Fatalf("payload = %+v", got)
	}
	if got.ImageBase64 != base64.StdEncoding.EncodeToString(image) {
		t.Fatalf("imageBase64 = %q", got.ImageBase64)
	}
}

func TestSubmitNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d, err := NewDispatcher(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	if err := d.Submit(context.Background(), "img-1", "a.png", []byte("x")); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	d, err := NewDispatcher("http://ocr.local", time.Second)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	if err := d.Submit(context.Background(), "", "a.png", []byte("x")); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := d.Submit(context.Background(), "img-1", "a.png", nil); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestNewDispatcherRequiresBaseURL(t *testing.T) {
	if _, err := NewDispatcher("   ", time.Second); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

package notes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"note-backend/internal/bootstrap"
	"note-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:3000"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "test-guest")
}

type noteViewResp struct {
	NoteID  string `json:"noteId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Images  []struct {
		ImageID        string  `json:"imageId"`
		ImageURL       string  `json:"imageUrl"`
		AnalysisResult *string `json:"analysisResult"`
		Status         string  `json:"status"`
	} `json:"images"`
}

func createNote(t *testing.T, router *gin.Engine) noteViewResp {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("title", "lecture notes"); err != nil {
		t.Fatalf("write title: %v", err)
	}
	if err := writer.WriteField("content", "chapter 3"); err != nil {
		t.Fatalf("write content: %v", err)
	}
	fileWriter, err := writer.CreateFormFile("images", "page1.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte("fake-png-bytes")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created noteViewResp
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return created
}

func TestNotesUploadAndDetail(t *testing.T) {
	app := buildTestApp(t)
	created := createNote(t, app.Router)

	if created.NoteID == "" {
		t.Fatal("expected noteId")
	}
	if len(created.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(created.Images))
	}
	img := created.Images[0]
	if img.Status != "NOT_RECOGNIZED" {
		t.Fatalf("status = %s, want NOT_RECOGNIZED", img.Status)
	}
	if img.AnalysisResult != nil {
		t.Fatal("analysisResult must be null before recognition")
	}
	wantURL := fmt.Sprintf("/api/v1/notes/%s/images/%s", created.NoteID, img.ImageID)
	if img.ImageURL != wantURL {
		t.Fatalf("imageUrl = %s, want %s", img.ImageURL, wantURL)
	}

	// Detail mirrors the create payload.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes/"+created.NoteID, nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var detail noteViewResp
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Title != "lecture notes" || detail.Content != "chapter 3" {
		t.Fatalf("detail = %+v", detail)
	}

	// Stored bytes stream back.
	reqImg := httptest.NewRequest(http.MethodGet, img.ImageURL, nil)
	addGuestHeader(reqImg)
	respImg := httptest.NewRecorder()
	app.Router.ServeHTTP(respImg, reqImg)
	if respImg.Code != http.StatusOK {
		t.Fatalf("expected status 200 for image, got %d", respImg.Code)
	}
	if respImg.Body.String() != "fake-png-bytes" {
		t.Fatalf("image bytes = %q", respImg.Body.String())
	}
}

func TestNotesResultFlowEndToEnd(t *testing.T) {
	app := buildTestApp(t)
	created := createNote(t, app.Router)
	imageID := created.Images[0].ImageID

	// A result message arrives on the queue; no correction is configured,
	// so the raw text is committed as-is.
	body := fmt.Sprintf(`{"noteImageId":%q,"recognizedText":"buy milk"}`, imageID)
	out := app.Processor.Handle(context.Background(), []byte(body))
	if out.NoteImageID != imageID {
		t.Fatalf("outcome id = %s, want %s", out.NoteImageID, imageID)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes/"+created.NoteID, nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	var detail noteViewResp
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	img := detail.Images[0]
	if img.Status != "DONE" {
		t.Fatalf("status = %s, want DONE", img.Status)
	}
	if img.AnalysisResult == nil || *img.AnalysisResult != "buy milk" {
		t.Fatalf("analysisResult = %v", img.AnalysisResult)
	}
}

func TestNotesRequireIdentity(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestNotesOwnershipEnforced(t *testing.T) {
	app := buildTestApp(t)
	created := createNote(t, app.Router)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/notes/"+created.NoteID, nil)
	req.Header.Set("X-Guest-Id", "someone-else")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	reqOwn := httptest.NewRequest(http.MethodDelete, "/api/v1/notes/"+created.NoteID, nil)
	addGuestHeader(reqOwn)
	respOwn := httptest.NewRecorder()
	app.Router.ServeHTTP(respOwn, reqOwn)
	if respOwn.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", respOwn.Code)
	}

	reqGone := httptest.NewRequest(http.MethodGet, "/api/v1/notes/"+created.NoteID, nil)
	addGuestHeader(reqGone)
	respGone := httptest.NewRecorder()
	app.Router.ServeHTTP(respGone, reqGone)
	if respGone.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", respGone.Code)
	}
}

func TestNotesCreateRequiresTitle(t *testing.T) {
	app := buildTestApp(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("content", "no title"); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

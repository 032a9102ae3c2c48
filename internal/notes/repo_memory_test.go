package notes

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedImage(t *testing.T, repo *MemoryRepo, status string) NoteImage {
	t.Helper()
	img := NoteImage{
		ID:         "img-1",
		NoteID:     "note-1",
		StorageKey: "k/img-1",
		FileName:   "a.png",
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.CreateImage(context.Background(), img); err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	return img
}

func TestUpdateImageResultPairsTextWithStatus(t *testing.T) {
	repo := NewMemoryRepo()
	seedImage(t, repo, StatusNotRecognized)
	ctx := context.Background()
	text := "hello"

	// DONE requires text; every other status forbids it.
	if err := repo.UpdateImageResult(ctx, "img-1", nil, StatusDone); !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("DONE without text: expected ErrInvalidResult, got %v", err)
	}
	if err := repo.UpdateImageResult(ctx, "img-1", &text, StatusError); !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("ERROR with text: expected ErrInvalidResult, got %v", err)
	}
	if err := repo.UpdateImageResult(ctx, "img-1", &text, "BOGUS"); !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("unknown status: expected ErrInvalidResult, got %v", err)
	}

	if err := repo.UpdateImageResult(ctx, "img-1", &text, StatusDone); err != nil {
		t.Fatalf("valid DONE update: %v", err)
	}
	img, err := repo.GetImage(ctx, "img-1")
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if img.Status != StatusDone || img.RecognizedText == nil || *img.RecognizedText != "hello" {
		t.Fatalf("got status=%s text=%v", img.Status, img.RecognizedText)
	}
}

func TestUpdateImageResultUnknownImage(t *testing.T) {
	repo := NewMemoryRepo()
	text := "x"
	if err := repo.UpdateImageResult(context.Background(), "missing", &text, StatusDone); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateImageResultLastWriteWins(t *testing.T) {
	repo := NewMemoryRepo()
	seedImage(t, repo, StatusNotRecognized)
	ctx := context.Background()

	first := "first"
	second := "second"
	if err := repo.UpdateImageResult(ctx, "img-1", &first, StatusDone); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := repo.UpdateImageResult(ctx, "img-1", &second, StatusDone); err != nil {
		t.Fatalf("second update: %v", err)
	}

	img, err := repo.GetImage(ctx, "img-1")
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if *img.RecognizedText != "second" {
		t.Fatalf("text = %q, want second", *img.RecognizedText)
	}
}

func TestDeleteNoteCascadesImages(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.CreateNote(ctx, Note{ID: "note-1", MemberID: "m1", Title: "t", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	seedImage(t, repo, StatusDone)

	if err := repo.DeleteNote(ctx, "note-1"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := repo.GetImage(ctx, "img-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cascaded image delete, got %v", err)
	}
	if err := repo.DeleteNote(ctx, "note-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListNotesByMemberNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().UTC()
	for i, id := range []string{"n1", "n2", "n3"} {
		note := Note{ID: id, MemberID: "m1", Title: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.CreateNote(ctx, note); err != nil {
			t.Fatalf("CreateNote: %v", err)
		}
	}
	if err := repo.CreateNote(ctx, Note{ID: "other", MemberID: "m2", Title: "x", CreatedAt: base}); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	list, err := repo.ListNotesByMember(ctx, "m1")
	if err != nil {
		t.Fatalf("ListNotesByMember: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(list))
	}
	if list[0].ID != "n3" || list[2].ID != "n1" {
		t.Fatalf("order = %s,%s,%s", list[0].ID, list[1].ID, list[2].ID)
	}
}

package queue

import "testing"

func TestDecodeResultStringID(t *testing.T) {
	msg, err := DecodeResult([]byte(`{"noteImageId":"abc-123","recognizedText":"hello"}`))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if msg.NoteImageID != "abc-123" || msg.RecognizedText != "hello" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestDecodeResultNumericID(t *testing.T) {
	msg, err := DecodeResult([]byte(`{"noteImageId":17,"recognizedText":"hi"}`))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if msg.NoteImageID != "17" {
		t.Fatalf("NoteImageID = %q, want 17", msg.NoteImageID)
	}
}

func TestDecodeResultNullID(t *testing.T) {
	msg, err := DecodeResult([]byte(`{"noteImageId":null,"recognizedText":"x"}`))
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if msg.NoteImageID != "" {
		t.Fatalf("NoteImageID = %q, want empty", msg.NoteImageID)
	}
}

func TestDecodeResultBadID(t *testing.T) {
	if _, err := DecodeResult([]byte(`{"noteImageId":{"nested":true}}`)); err == nil {
		t.Fatal("expected error for object id")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	body, err := EncodeResult(ResultMessage{NoteImageID: "img-1", RecognizedText: "text"})
	if err != nil {
		t.Fatalf("EncodeResult: %v", err)
	}
	msg, err := DecodeResult(body)
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if msg.NoteImageID != "img-1" || msg.RecognizedText != "text" {
		t.Fatalf("msg = %+v", msg)
	}
}

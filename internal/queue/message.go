package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Topology of the result queue, shared with the OCR service.
const (
	ExchangeName     = "note.exchange"
	ResultQueue      = "note.analyze.result"
	ResultRoutingKey = "note.analyze.result"
)

// ResultMessage is the payload published by the OCR service when recognition
// of one note image finishes.
type ResultMessage struct {
	NoteImageID    string `json:"noteImageId"`
	RecognizedText string `json:"recognizedText"`
}

// EncodeResult returns the JSON representation of a result message.
func EncodeResult(msg ResultMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeResult parses a JSON payload into a ResultMessage. The OCR service
// has published noteImageId both as a string and as a number; both are
// accepted.
func DecodeResult(payload []byte) (ResultMessage, error) {
	var raw struct {
		NoteImageID    json.RawMessage `json:"noteImageId"`
		RecognizedText string          `json:"recognizedText"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ResultMessage{}, err
	}

	id, err := coerceID(raw.NoteImageID)
	if err != nil {
		return ResultMessage{}, err
	}
	return ResultMessage{NoteImageID: id, RecognizedText: raw.RecognizedText}, nil
}

func coerceID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", fmt.Errorf("noteImageId is neither string nor number")
	}
	return n.String(), nil
}

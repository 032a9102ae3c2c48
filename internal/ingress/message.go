package ingress

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"note-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body []byte) MessageMeta {
	if len(body) == 0 {
		return MessageMeta{}
	}
	sum := sha256.Sum256(body)
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingImageID indicates a message missing the note image id.
type ErrMissingImageID struct {
	Meta MessageMeta
}

func (e ErrMissingImageID) Error() string { return "missing note image id" }

// ParseMessage validates and decodes the queue payload. It is pure: parse
// failures come back as typed errors and never reach the repository.
func ParseMessage(body []byte) (queue.ResultMessage, MessageMeta, error) {
	meta := ComputeMeta(body)
	if len(strings.TrimSpace(string(body))) == 0 {
		return queue.ResultMessage{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeResult(body)
	if err != nil {
		return queue.ResultMessage{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.NoteImageID) == "" {
		return msg, meta, ErrMissingImageID{Meta: meta}
	}
	return msg, meta, nil
}

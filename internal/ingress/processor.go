package ingress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"note-backend/internal/correction"
	"note-backend/internal/notes"
	"note-backend/internal/shared/metrics"
	"note-backend/internal/shared/telemetry"
)

// OutcomeKind classifies what a result message did to the system.
type OutcomeKind int

const (
	// OutcomeApplied means the record was committed DONE with text.
	OutcomeApplied OutcomeKind = iota
	// OutcomeDropped means the message had no effect and was discarded
	// (malformed payload or unknown record).
	OutcomeDropped
	// OutcomeFailed means processing failed after the id was parsed; the
	// record is best-effort marked ERROR.
	OutcomeFailed
)

// Outcome is the decision produced for one message. The queue loop applies
// only acknowledgment from it; every message is acked exactly once because
// the transport has no dead-letter contract.
type Outcome struct {
	Kind        OutcomeKind
	NoteImageID string
	Reason      string
	Fallback    bool
	Err         error
}

// Processor drives the per-image state machine forward from result messages.
type Processor struct {
	Repo      notes.Repo
	Corrector correction.Gateway
}

// Handle processes one raw message body to completion: decision first, then
// side effects (metrics, logs, best-effort ERROR marking). It never returns
// an error; failures are reflected only into the record's status.
func (p *Processor) Handle(ctx context.Context, body []byte) Outcome {
	start := time.Now()
	metrics.IncResultsReceived()

	out := p.process(ctx, body)

	switch out.Kind {
	case OutcomeApplied:
		metrics.IncResultsApplied()
		telemetry.Info("result.applied", map[string]any{
			"note_image_id": out.NoteImageID,
			"fallback":      out.Fallback,
		})
	case OutcomeDropped:
		metrics.IncMessagesDropped()
		telemetry.Warn("result.dropped", map[string]any{
			"note_image_id": out.NoteImageID,
			"reason":        out.Reason,
		})
	case OutcomeFailed:
		metrics.IncResultsFailed()
		telemetry.Error("result.failed", map[string]any{
			"note_image_id": out.NoteImageID,
			"error":         out.Err.Error(),
		})
		p.markError(ctx, out.NoteImageID)
	}

	metrics.ObserveResultHandlingMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return out
}

// process makes the decision for one message without terminal side effects.
func (p *Processor) process(ctx context.Context, body []byte) Outcome {
	msg, meta, err := ParseMessage(body)
	if err != nil {
		return Outcome{
			Kind:        OutcomeDropped,
			NoteImageID: msg.NoteImageID,
			Reason:      fmt.Sprintf("%v (len=%d sha=%s)", err, meta.BodyLen, meta.BodySHA),
		}
	}

	if _, err := p.Repo.GetImage(ctx, msg.NoteImageID); err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			// No record is ever created from a result message.
			return Outcome{Kind: OutcomeDropped, NoteImageID: msg.NoteImageID, Reason: "unknown note image"}
		}
		return Outcome{Kind: OutcomeFailed, NoteImageID: msg.NoteImageID, Err: fmt.Errorf("lookup note image: %w", err)}
	}

	res := p.Corrector.Correct(ctx, msg.RecognizedText)

	text := res.Text
	if err := p.Repo.UpdateImageResult(ctx, msg.NoteImageID, &text, notes.StatusDone); err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			// Deleted between lookup and commit; nothing left to update.
			return Outcome{Kind: OutcomeDropped, NoteImageID: msg.NoteImageID, Reason: "note image deleted during handling"}
		}
		return Outcome{Kind: OutcomeFailed, NoteImageID: msg.NoteImageID, Err: fmt.Errorf("commit result: %w", err)}
	}

	return Outcome{Kind: OutcomeApplied, NoteImageID: msg.NoteImageID, Fallback: res.Fallback}
}

// markError best-effort flips the record to ERROR so it does not stay
// silently stuck. This update may itself fail and is then only logged.
func (p *Processor) markError(ctx context.Context, noteImageID string) {
	if noteImageID == "" {
		return
	}
	if err := p.Repo.UpdateImageResult(ctx, noteImageID, nil, notes.StatusError); err != nil {
		telemetry.Error("result.mark_error_failed", map[string]any{
			"note_image_id": noteImageID,
			"error":         err.Error(),
		})
	}
}

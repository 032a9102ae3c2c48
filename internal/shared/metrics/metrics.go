package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	imagesSubmittedTotal    atomic.Uint64
	resultsReceivedTotal    atomic.Uint64
	resultsAppliedTotal     atomic.Uint64
	resultsFailedTotal      atomic.Uint64
	messagesDroppedTotal    atomic.Uint64
	correctionFallbackTotal atomic.Uint64
	dispatchFailedTotal     atomic.Uint64

	resultHandlingDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncImagesSubmitted increments the submitted-images counter.
func IncImagesSubmitted() {
	imagesSubmittedTotal.Add(1)
}

// IncResultsReceived increments the received-results counter.
func IncResultsReceived() {
	resultsReceivedTotal.Add(1)
}

// IncResultsApplied increments the applied-results counter.
func IncResultsApplied() {
	resultsAppliedTotal.Add(1)
}

// IncResultsFailed increments the failed-results counter.
func IncResultsFailed() {
	resultsFailedTotal.Add(1)
}

// IncMessagesDropped increments the dropped-messages counter.
func IncMessagesDropped() {
	messagesDroppedTotal.Add(1)
}

// IncCorrectionFallback increments the correction-fallback counter.
func IncCorrectionFallback() {
	correctionFallbackTotal.Add(1)
}

// IncDispatchFailed increments the failed-dispatch counter.
func IncDispatchFailed() {
	dispatchFailedTotal.Add(1)
}

// ObserveResultHandlingMs records a result-handling duration in milliseconds.
func ObserveResultHandlingMs(value float64) {
	if value < 0 {
		value = 0
	}
	resultHandlingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "note_images_submitted_total", "Total note images submitted for recognition", imagesSubmittedTotal.Load())
	writeCounter(&buf, "recognition_results_received_total", "Total recognition result messages received", resultsReceivedTotal.Load())
	writeCounter(&buf, "recognition_results_applied_total", "Total recognition results committed as DONE", resultsAppliedTotal.Load())
	writeCounter(&buf, "recognition_results_failed_total", "Total recognition results that ended in ERROR", resultsFailedTotal.Load())
	writeCounter(&buf, "recognition_messages_dropped_total", "Total result messages dropped without effect", messagesDroppedTotal.Load())
	writeCounter(&buf, "correction_fallback_total", "Total correction calls that fell back to the original text", correctionFallbackTotal.Load())
	writeCounter(&buf, "recognition_dispatch_failed_total", "Total OCR submissions that failed", dispatchFailedTotal.Load())
	writeHistogram(&buf, "result_handling_duration_ms", "Result message handling duration in milliseconds", resultHandlingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

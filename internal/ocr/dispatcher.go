package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Dispatcher submits note images to the external OCR service. Submission is
// acknowledgment-only: the recognition result arrives later on the result
// queue, never in the HTTP response.
type Dispatcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewDispatcher constructs a Dispatcher for the given OCR base URL.
func NewDispatcher(baseURL string, timeout time.Duration) (*Dispatcher, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("OCR_BASE_URL is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type analyzeRequest struct {
	NoteImageID string `json:"noteImageId"`
	ImageBase64 string `json:"imageBase64"`
	FileName    string `json:"fileName"`
}

// Submit posts one image to the OCR service and returns once the service
// acknowledges the submission. A non-2xx status is an error; the caller
// decides what to do with it (the upload path only logs).
func (d *Dispatcher) Submit(ctx context.Context, noteImageID, fileName string, image []byte) error {
	if strings.TrimSpace(noteImageID) == "" {
		return fmt.Errorf("note image id is required")
	}
	if len(image) == 0 {
		return fmt.Errorf("image is empty")
	}

	payload, err := json.Marshal(analyzeRequest{
		NoteImageID: noteImageID,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		FileName:    fileName,
	})
	if err != nil {
		return fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post analyze: %w", err)
	}
	defer resp.Body.Close()
	// Only the status code matters; drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analyze returned status %d", resp.StatusCode)
	}
	return nil
}

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sink delivers event batches to an ingestion endpoint. Delivery is
// best-effort: implementations may fail, but callers never retry and
// never let a failure block state transitions.
type Sink interface {
	// Send delivers a batch asynchronously-safe; the caller runs it on
	// its own goroutine and discards the error after logging.
	Send(ctx context.Context, events []Event) error

	// SendFinal delivers a batch on the page-closing path. It must not
	// depend on the caller staying alive afterwards, so implementations
	// keep it short and synchronous.
	SendFinal(events []Event) error
}

// HTTPSink posts batches to a telemetry ingestion URL.
type HTTPSink struct {
	URL    string
	Client *http.Client

	// FinalTimeout bounds SendFinal so page teardown is never held up.
	FinalTimeout time.Duration
}

// NewHTTPSink creates a sink for the given ingestion URL.
func NewHTTPSink(url string) *HTTPSink {
	return &HTTPSink{
		URL:          url,
		Client:       &http.Client{Timeout: 10 * time.Second},
		FinalTimeout: 2 * time.Second,
	}
}

func (s *HTTPSink) Send(ctx context.Context, events []Event) error {
	return s.post(ctx, events)
}

func (s *HTTPSink) SendFinal(events []Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.FinalTimeout)
	defer cancel()
	return s.post(ctx, events)
}

func (s *HTTPSink) post(ctx context.Context, events []Event) error {
	body, err := json.Marshal(Batch{Events: events})
	if err != nil {
		return fmt.Errorf("failed to encode telemetry batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telemetry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telemetry endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// NopSink discards all events. Used when telemetry is not configured.
type NopSink struct{}

func (NopSink) Send(context.Context, []Event) error { return nil }
func (NopSink) SendFinal([]Event) error             { return nil }

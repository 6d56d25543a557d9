package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrQueueFull = errors.New("webhook queue full")
	ErrStopped   = errors.New("webhook notifier stopped")
)

// Notifier delivers selected liveness events to an HTTP endpoint.
// Log only enqueues; Run performs the deliveries with retries.
type Notifier struct {
	config Config
	client *http.Client
	events map[audit.EventType]bool
	queue  chan delivery
	logger *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewNotifier(config Config, logger *slog.Logger) *Notifier {
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.BaseBackoff <= 0 {
		config.BaseBackoff = defaults.BaseBackoff
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if len(config.Events) == 0 {
		config.Events = defaults.Events
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	events := make(map[audit.EventType]bool, len(config.Events))
	for _, e := range config.Events {
		events[e] = true
	}

	return &Notifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		events: events,
		queue:  make(chan delivery, config.QueueSize),
		logger: logger.With("component", "webhook"),
		stopCh: make(chan struct{}),
	}
}

// Log implements audit.Logger. Events outside the configured set are ignored.
func (n *Notifier) Log(_ context.Context, event audit.Event) error {
	if !n.events[event.EventType] {
		return nil
	}

	payload, err := codec.Marshal(EventPayload{
		Type:      string(event.EventType),
		Data:      event,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	select {
	case <-n.stopCh:
		return ErrStopped
	default:
	}

	select {
	case n.queue <- delivery{ID: uuid.New(), EventType: string(event.EventType), Payload: payload}:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, event.EventType)
	}
}

// Run delivers queued events until ctx is cancelled or Stop is called
func (n *Notifier) Run(ctx context.Context) {
	n.logger.Info("webhook notifier started", "url", n.config.URL)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("webhook notifier stopped")
			return
		case <-n.stopCh:
			n.logger.Info("webhook notifier stopped")
			return
		case d := <-n.queue:
			n.deliver(ctx, d)
		}
	}
}

func (n *Notifier) Stop() {
	n.stopOnce.Do(func() { close(n.stopCh) })
}

// deliver retries with exponential backoff until MaxAttempts
func (n *Notifier) deliver(ctx context.Context, d delivery) {
	for {
		d.Attempts++
		err := n.send(ctx, d)
		if err == nil {
			n.logger.Info("webhook delivered",
				"delivery_id", d.ID,
				"event_type", d.EventType,
				"attempts", d.Attempts,
			)
			return
		}

		if d.Attempts >= n.config.MaxAttempts || !retryable(err) {
			n.logger.Warn("webhook delivery failed",
				"delivery_id", d.ID,
				"event_type", d.EventType,
				"attempts", d.Attempts,
				"error", err,
			)
			return
		}

		delay := n.config.BaseBackoff * time.Duration(1<<(d.Attempts-1))
		n.logger.Info("webhook delivery scheduled for retry",
			"delivery_id", d.ID,
			"attempts", d.Attempts,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-n.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// StatusError is a non-2xx answer from the endpoint
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook endpoint returned HTTP %d", e.StatusCode)
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// send posts one signed delivery
func (n *Notifier) send(ctx context.Context, d delivery) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(d.Payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	ts := time.Now().Unix()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Blinkcheck-Webhook/1.0")
	req.Header.Set(HeaderEvent, d.EventType)
	req.Header.Set(HeaderDelivery, d.ID.String())
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	if n.config.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(n.config.Secret, ts, d.Payload))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

var _ audit.Logger = (*Notifier)(nil)

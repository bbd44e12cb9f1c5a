// Package notify delivers task state changes to the upstream server's
// webhook. Delivery is best-effort with retry and backoff; local registry
// state is committed before delivery is attempted and is never rolled back
// by a delivery failure.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/vidlearn/genai-relay/internal/db/models"
	"github.com/vidlearn/genai-relay/internal/db/repos"
	"github.com/vidlearn/genai-relay/internal/events"
	"github.com/vidlearn/genai-relay/internal/logger"
)

// SignatureHeader carries the shared secret on outbound deliveries
const SignatureHeader = "x-webhook-signature"

// Default delivery policy
const (
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
	DefaultTimeout      = 10 * time.Second
)

// Payload is the wire format relayed upstream, mirroring what the pipeline
// sends inbound
type Payload struct {
	Task   string            `json:"task"`
	Status models.TaskStatus `json:"status"`
	JobID  string            `json:"jobId"`
	Data   json.RawMessage   `json:"data,omitempty"`
}

// Options configures the notifier's retry policy
type Options struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

// DefaultOptions returns the default notifier options
func DefaultOptions() Options {
	return Options{
		RetryMax:     DefaultRetryMax,
		RetryWaitMin: DefaultRetryWaitMin,
		RetryWaitMax: DefaultRetryWaitMax,
		Timeout:      DefaultTimeout,
	}
}

// Notifier posts task transitions to job webhook URLs
type Notifier struct {
	client   *retryablehttp.Client
	taskRepo *repos.TaskRepository
}

// New creates a notifier with the given options. taskRepo may be nil; when
// set, successful deliveries are recorded on the task.
func New(opts Options, taskRepo *repos.TaskRepository) *Notifier {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil

	return &Notifier{client: client, taskRepo: taskRepo}
}

// Register subscribes the notifier to committed task transitions
func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTaskTransitioned, n.HandleEvent)
}

// HandleEvent relays a committed task transition upstream and records the
// delivery on the task
func (n *Notifier) HandleEvent(ctx context.Context, event events.Event) error {
	payload := Payload{
		Task:   event.TaskID,
		Status: event.Status,
		JobID:  event.JobID,
		Data:   event.Data,
	}
	if err := n.Send(ctx, event.WebhookURL, event.WebhookSecret, payload); err != nil {
		return err
	}

	if n.taskRepo != nil && event.TaskRef != 0 {
		if err := n.taskRepo.MarkWebhookSent(ctx, event.TaskRef, true); err != nil {
			logger.Warnf("Failed to mark webhook sent for task %s: %v", event.TaskID, err)
		}
	}
	return nil
}

// Send posts the payload to webhookURL, signing it with the job's webhook
// secret. The error is reported to the caller only; the task's local state
// has already been committed.
func (n *Notifier) Send(ctx context.Context, webhookURL, webhookSecret string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, webhookSecret)

	resp, err := n.client.Do(req)
	if err != nil {
		logger.ErrorWithFields("Webhook delivery failed", map[string]interface{}{
			"job_id": payload.JobID,
			"task":   payload.Task,
			"url":    webhookURL,
			"error":  err.Error(),
		})
		return fmt.Errorf("webhook delivery to %s failed: %w", webhookURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WarnWithFields("Webhook delivery rejected", map[string]interface{}{
			"job_id": payload.JobID,
			"task":   payload.Task,
			"status": resp.StatusCode,
		})
		return fmt.Errorf("webhook delivery to %s returned status %d", webhookURL, resp.StatusCode)
	}

	logger.Debugf("Webhook delivered to %s for job %s task %s (%s)",
		webhookURL, payload.JobID, payload.Task, payload.Status)
	return nil
}

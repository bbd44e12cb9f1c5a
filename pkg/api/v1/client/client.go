// Package client provides the API client for interacting with the relay API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/vidlearn/genai-relay/internal/db/models"
	"github.com/vidlearn/genai-relay/internal/registry"
	"github.com/vidlearn/genai-relay/pkg/api/v1/handlers"
	"github.com/vidlearn/genai-relay/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Authentication header names, mirrored from the server's middleware
const (
	secretHeader    = "X-Webhook-Secret"
	signatureHeader = "x-webhook-signature"
)

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Job endpoints
	CreateJob(ctx context.Context, params handlers.JobCreateParams) (handlers.JobResponse, error)
	GetJob(ctx context.Context, jobID string) (models.Job, error)
	ListJobs(ctx context.Context, status string) ([]models.Job, error)
	UpdateJob(ctx context.Context, jobID string, params handlers.JobUpdateParams) (handlers.JobResponse, error)
	AbortJob(ctx context.Context, jobID string) (handlers.JobResponse, error)

	// Task endpoints
	ListTasks(ctx context.Context, jobID string) ([]models.Task, error)
	ApproveTaskStart(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error)
	ApproveTaskContinue(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error)
	RerunTask(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error)

	// Pipeline callback, used by pipeline-side integrations and tests
	PostWebhook(ctx context.Context, event registry.WebhookEvent) error
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Secret is the shared secret sent on every request
	Secret string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	secret  string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		secret:  opts.Secret,
		timeout: timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint, authHeader string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")
	if c.secret != "" {
		agent.Set(authHeader, c.secret)
	}

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and processes the response
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		return &fiber.Error{
			Code:    statusCode,
			Message: string(body),
		}
	}

	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint, authHeader string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, authHeader, body)
	if err != nil {
		return err
	}
	return c.doRequest(agent, response)
}

// HealthCheck checks the health of the API server
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	var response map[string]string
	err := c.executeRequest(ctx, http.MethodGet, routes.HealthCheckURL(), secretHeader, nil, &response)
	return response, err
}

// CreateJob registers a new job and returns its generated identifier
func (c *APIClient) CreateJob(ctx context.Context, params handlers.JobCreateParams) (handlers.JobResponse, error) {
	var response handlers.JobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.CreateJobURL(), secretHeader, params, &response)
	return response, err
}

// GetJob retrieves a job by its identifier
func (c *APIClient) GetJob(ctx context.Context, jobID string) (models.Job, error) {
	var response models.Job
	err := c.executeRequest(ctx, http.MethodGet, routes.GetJobURL(jobID), secretHeader, nil, &response)
	return response, err
}

// ListJobs retrieves all jobs, optionally filtered by status
func (c *APIClient) ListJobs(ctx context.Context, status string) ([]models.Job, error) {
	endpoint := routes.GetJobsURL()
	if status != "" {
		endpoint = fmt.Sprintf("%s?status=%s", endpoint, url.QueryEscape(status))
	}

	var response struct {
		Jobs []models.Job `json:"jobs"`
	}
	err := c.executeRequest(ctx, http.MethodGet, endpoint, secretHeader, nil, &response)
	return response.Jobs, err
}

// UpdateJob merges parameters into the job's configuration
func (c *APIClient) UpdateJob(ctx context.Context, jobID string, params handlers.JobUpdateParams) (handlers.JobResponse, error) {
	var response handlers.JobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.UpdateJobURL(jobID), secretHeader, params, &response)
	return response, err
}

// AbortJob aborts a job and all of its non-terminal tasks
func (c *APIClient) AbortJob(ctx context.Context, jobID string) (handlers.JobResponse, error) {
	var response handlers.JobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.AbortJobURL(jobID), secretHeader, nil, &response)
	return response, err
}

// ListTasks retrieves all tasks known for a job
func (c *APIClient) ListTasks(ctx context.Context, jobID string) ([]models.Task, error) {
	var response struct {
		Tasks []models.Task `json:"tasks"`
	}
	err := c.executeRequest(ctx, http.MethodGet, routes.GetTasksURL(jobID), secretHeader, nil, &response)
	return response.Tasks, err
}

// ApproveTaskStart approves a task waiting for its start approval
func (c *APIClient) ApproveTaskStart(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error) {
	var response handlers.JobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.ApproveTaskStartURL(jobID), secretHeader,
		handlers.TaskParams{TaskID: taskID}, &response)
	return response, err
}

// ApproveTaskContinue approves a task paused at a continue checkpoint
func (c *APIClient) ApproveTaskContinue(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error) {
	var response handlers.JobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.ApproveTaskContinueURL(jobID), secretHeader,
		handlers.TaskParams{TaskID: taskID}, &response)
	return response, err
}

// RerunTask resets a terminal task to pending for re-dispatch
func (c *APIClient) RerunTask(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error) {
	var response handlers.JobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.RerunTaskURL(jobID), secretHeader,
		handlers.TaskParams{TaskID: taskID}, &response)
	return response, err
}

// PostWebhook submits a pipeline callback event
func (c *APIClient) PostWebhook(ctx context.Context, event registry.WebhookEvent) error {
	return c.executeRequest(ctx, http.MethodPost, routes.GenAIWebhookURL(), signatureHeader, event, nil)
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vidlearn/genai-relay/internal/api/middleware"
	"github.com/vidlearn/genai-relay/internal/db/models"
	"github.com/vidlearn/genai-relay/internal/db/repos"
	"github.com/vidlearn/genai-relay/internal/registry"
	"github.com/vidlearn/genai-relay/pkg/api/v1/handlers"
	"github.com/vidlearn/genai-relay/pkg/api/v1/routes"
)

const (
	testJobSecret     = "test-job-secret"
	testWebhookSecret = "test-pipeline-secret"
)

type HandlerTestSuite struct {
	suite.Suite
	DB       *gorm.DB
	Registry *registry.Registry
	App      *fiber.App
}

func (s *HandlerTestSuite) SetupTest() {
	var err error
	s.DB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1&_busy_timeout=5000"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		s.T().Fatal("failed to connect database")
	}
	if err := s.DB.AutoMigrate(&models.Job{}, &models.Task{}); err != nil {
		s.T().Fatal("failed to migrate database schema")
	}

	s.Registry = registry.New(repos.NewJobRepository(s.DB), repos.NewTaskRepository(s.DB), nil)

	s.App = fiber.New()
	routes.RegisterRoutes(s.App, handlers.NewAPIHandler(s.Registry),
		middleware.SharedSecret(middleware.SecretHeader, testJobSecret),
		middleware.SharedSecret(middleware.SignatureHeader, testWebhookSecret),
	)
}

func (s *HandlerTestSuite) TearDownTest() {
	sqlDB, err := s.DB.DB()
	if err == nil && sqlDB != nil {
		s.NoError(sqlDB.Close())
	}
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// jobRequest issues an authenticated request against the job-management surface
func (s *HandlerTestSuite) jobRequest(method, target string, body interface{}) *http.Response {
	return s.request(method, target, body, middleware.SecretHeader, testJobSecret)
}

// webhookRequest issues a signed pipeline callback
func (s *HandlerTestSuite) webhookRequest(body interface{}) *http.Response {
	return s.request("POST", routes.GenAIWebhookURL(), body, middleware.SignatureHeader, testWebhookSecret)
}

func (s *HandlerTestSuite) request(method, target string, body interface{}, header, secret string) *http.Response {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if header != "" {
		req.Header.Set(header, secret)
	}

	resp, err := s.App.Test(req, -1)
	s.NoError(err)
	return resp
}

func (s *HandlerTestSuite) decode(resp *http.Response, out interface{}) {
	body, err := io.ReadAll(resp.Body)
	s.NoError(err)
	s.NoError(json.Unmarshal(body, out))
}

func (s *HandlerTestSuite) createJob() string {
	resp := s.jobRequest("POST", routes.CreateJobURL(), handlers.JobCreateParams{
		WebhookURL:    "http://upstream.example/hook",
		WebhookSecret: "upstream-secret",
	})
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var result handlers.JobResponse
	s.decode(resp, &result)
	s.NotEmpty(result.JobID)
	s.Equal(models.JobStatusCreated, result.Status)
	return result.JobID
}

func (s *HandlerTestSuite) postWebhook(jobID, taskID string, status models.TaskStatus) *http.Response {
	return s.webhookRequest(registry.WebhookEvent{
		JobID:  jobID,
		TaskID: taskID,
		Status: status,
	})
}

func (s *HandlerTestSuite) TestHealthCheckUnauthenticated() {
	resp := s.request("GET", routes.HealthCheckURL(), nil, "", "")
	s.Equal(fiber.StatusOK, resp.StatusCode)
}

func (s *HandlerTestSuite) TestJobRoutesRequireSecret() {
	resp := s.request("GET", routes.GetJobsURL(), nil, "", "")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)

	resp = s.request("GET", routes.GetJobsURL(), nil, middleware.SecretHeader, "wrong-secret")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerTestSuite) TestWebhookRequiresSignature() {
	resp := s.request("POST", routes.GenAIWebhookURL(), registry.WebhookEvent{
		JobID: "j", TaskID: "t", Status: models.TaskStatusPending,
	}, middleware.SignatureHeader, "wrong-signature")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerTestSuite) TestCreateJob() {
	s.createJob()
}

func (s *HandlerTestSuite) TestCreateJobMissingWebhookURL() {
	resp := s.jobRequest("POST", routes.CreateJobURL(), handlers.JobCreateParams{WebhookSecret: "x"})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerTestSuite) TestGetJobNotFound() {
	resp := s.jobRequest("GET", routes.GetJobURL("does-not-exist"), nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *HandlerTestSuite) TestGetJob() {
	jobID := s.createJob()

	resp := s.jobRequest("GET", routes.GetJobURL(jobID), nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var job models.Job
	s.decode(resp, &job)
	s.Equal(jobID, job.JobID)

	// The webhook secret must never appear in responses
	s.Empty(job.WebhookSecret)
}

func (s *HandlerTestSuite) TestListJobsWithStatusFilter() {
	jobID := s.createJob()

	resp := s.jobRequest("GET", routes.GetJobsURL()+"?status=created", nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var result struct {
		Jobs []models.Job `json:"jobs"`
	}
	s.decode(resp, &result)
	s.Len(result.Jobs, 1)
	s.Equal(jobID, result.Jobs[0].JobID)

	resp = s.jobRequest("GET", routes.GetJobsURL()+"?status=completed", nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.decode(resp, &result)
	s.Empty(result.Jobs)
}

func (s *HandlerTestSuite) TestListJobsInvalidStatus() {
	resp := s.jobRequest("GET", routes.GetJobsURL()+"?status=bogus", nil)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerTestSuite) TestUpdateJob() {
	jobID := s.createJob()

	resp := s.jobRequest("POST", routes.UpdateJobURL(jobID), handlers.JobUpdateParams{
		Parameters: json.RawMessage(`{"lang": "en"}`),
	})
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var job models.Job
	s.decode(s.jobRequest("GET", routes.GetJobURL(jobID), nil), &job)
	s.JSONEq(`{"lang": "en"}`, string(job.Parameters))
}

func (s *HandlerTestSuite) TestWebhookUnknownJob() {
	resp := s.postWebhook("does-not-exist", "t1", models.TaskStatusPending)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *HandlerTestSuite) TestWebhookMissingFields() {
	resp := s.webhookRequest(registry.WebhookEvent{JobID: "j1"})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerTestSuite) TestWebhookCreatesTask() {
	jobID := s.createJob()

	resp := s.postWebhook(jobID, "generateAudio", models.TaskStatusPending)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var result struct {
		Message string      `json:"message"`
		Task    models.Task `json:"task"`
	}
	s.decode(resp, &result)
	s.Equal("Webhook received successfully", result.Message)
	s.Equal("generateAudio", result.Task.TaskID)
	s.Equal(models.TaskStatusPending, result.Task.Status)
}

func (s *HandlerTestSuite) TestWebhookInvalidTransitionConflicts() {
	jobID := s.createJob()

	resp := s.postWebhook(jobID, "t1", models.TaskStatusPending)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	resp = s.postWebhook(jobID, "t1", models.TaskStatusCompleted)
	s.Equal(fiber.StatusConflict, resp.StatusCode)
}

func (s *HandlerTestSuite) TestApprovalFlow() {
	jobID := s.createJob()

	resp := s.postWebhook(jobID, "t1", models.TaskStatusAwaitingStartApproval)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var job models.Job
	s.decode(s.jobRequest("GET", routes.GetJobURL(jobID), nil), &job)
	s.Equal(models.JobStatusAwaitingApproval, job.Status)

	resp = s.jobRequest("POST", routes.ApproveTaskStartURL(jobID), handlers.TaskParams{TaskID: "t1"})
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var result handlers.JobResponse
	s.decode(resp, &result)
	s.Equal(models.JobStatusRunning, result.Status)
	s.NotNil(result.Task)
	s.Equal(models.TaskStatusRunning, result.Task.Status)

	// Approving again conflicts, the checkpoint is gone
	resp = s.jobRequest("POST", routes.ApproveTaskStartURL(jobID), handlers.TaskParams{TaskID: "t1"})
	s.Equal(fiber.StatusConflict, resp.StatusCode)
}

func (s *HandlerTestSuite) TestApproveMissingTaskID() {
	jobID := s.createJob()

	resp := s.jobRequest("POST", routes.ApproveTaskStartURL(jobID), handlers.TaskParams{})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerTestSuite) TestAbortAndRerun() {
	jobID := s.createJob()

	resp := s.postWebhook(jobID, "t1", models.TaskStatusRunning)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	// A running task cannot be rerun
	resp = s.jobRequest("POST", routes.RerunTaskURL(jobID), handlers.TaskParams{TaskID: "t1"})
	s.Equal(fiber.StatusConflict, resp.StatusCode)

	resp = s.jobRequest("POST", routes.AbortJobURL(jobID), nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var result handlers.JobResponse
	s.decode(resp, &result)
	s.Equal(models.JobStatusAborted, result.Status)

	// Abort is idempotent
	resp = s.jobRequest("POST", routes.AbortJobURL(jobID), nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	resp = s.jobRequest("POST", routes.RerunTaskURL(jobID), handlers.TaskParams{TaskID: "t1"})
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.decode(resp, &result)
	s.Equal(models.TaskStatusPending, result.Task.Status)
}

func (s *HandlerTestSuite) TestListTasks() {
	jobID := s.createJob()

	s.postWebhook(jobID, "generateAudio", models.TaskStatusPending)
	s.postWebhook(jobID, "generateVideo", models.TaskStatusPending)

	resp := s.jobRequest("GET", routes.GetTasksURL(jobID), nil)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var result struct {
		Tasks []models.Task `json:"tasks"`
	}
	s.decode(resp, &result)
	s.Len(result.Tasks, 2)
}

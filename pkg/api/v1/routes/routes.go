// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/vidlearn/genai-relay/pkg/api/v1/handlers"
)

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Job routes
	CreateJob = "CreateJob"
	GetJobs   = "GetJobs"
	GetJob    = "GetJob"
	UpdateJob = "UpdateJob"
	AbortJob  = "AbortJob"

	// Task routes
	GetTasks            = "GetTasks"
	ApproveTaskStart    = "ApproveTaskStart"
	ApproveTaskContinue = "ApproveTaskContinue"
	RerunTask           = "RerunTask"

	// Pipeline callback
	GenAIWebhook = "GenAIWebhook"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes. jobAuth guards the
// job-management surface, webhookAuth guards the pipeline callback.
//
// NOTE: route ordering is important because routes will try and match in the
// order they are registered; param-less paths go before :jobId paths.
func RegisterRoutes(
	app *fiber.App,
	api *handlers.APIHandler,
	jobAuth fiber.Handler,
	webhookAuth fiber.Handler,
) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	}).Name(HealthCheck)

	// Job management endpoints
	jobs := app.Group("/jobs", jobAuth)
	jobs.Get("/", api.ListJobs).Name(GetJobs)
	jobs.Post("/", api.CreateJob).Name(CreateJob)
	jobs.Get("/:jobId", api.GetJob).Name(GetJob)
	jobs.Post("/:jobId/update", api.UpdateJob).Name(UpdateJob)
	jobs.Post("/:jobId/abort", api.AbortJob).Name(AbortJob)
	jobs.Get("/:jobId/tasks", api.ListTasks).Name(GetTasks)
	jobs.Post("/:jobId/tasks/approve/start", api.ApproveTaskStart).Name(ApproveTaskStart)
	jobs.Post("/:jobId/tasks/approve/continue", api.ApproveTaskContinue).Name(ApproveTaskContinue)
	jobs.Post("/:jobId/tasks/rerun", api.RerunTask).Name(RerunTask)

	// Pipeline callback endpoint
	genAI := app.Group("/genAI", webhookAuth)
	genAI.Post("/webhook", api.HandleWebhook).Name(GenAIWebhook)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		routeCache = make(map[string]string)

		// Create a mock app with passthrough auth for route registration
		app := fiber.New()
		passthrough := func(c *fiber.Ctx) error { return c.Next() }
		RegisterRoutes(app, &handlers.APIHandler{}, passthrough, passthrough)

		// Extract routes from the app
		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				routeCache[route.Name] = route.Path
			}
		}
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	initRouteCache()

	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()
	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Replace parameters in the route
	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, value)
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") {
		route = strings.TrimSuffix(route, "/")
	}

	return route
}

// Health check route helper

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil)
}

// Job route helpers

// CreateJobURL returns the URL for creating a job
func CreateJobURL() string {
	return BuildURL(CreateJob, nil)
}

// GetJobsURL returns the URL for listing jobs
func GetJobsURL() string {
	return BuildURL(GetJobs, nil)
}

// GetJobURL returns the URL for getting a job by ID
func GetJobURL(jobID string) string {
	return BuildURL(GetJob, map[string]string{"jobId": jobID})
}

// UpdateJobURL returns the URL for updating a job
func UpdateJobURL(jobID string) string {
	return BuildURL(UpdateJob, map[string]string{"jobId": jobID})
}

// AbortJobURL returns the URL for aborting a job
func AbortJobURL(jobID string) string {
	return BuildURL(AbortJob, map[string]string{"jobId": jobID})
}

// Task route helpers

// GetTasksURL returns the URL for listing a job's tasks
func GetTasksURL(jobID string) string {
	return BuildURL(GetTasks, map[string]string{"jobId": jobID})
}

// ApproveTaskStartURL returns the URL for approving a task start
func ApproveTaskStartURL(jobID string) string {
	return BuildURL(ApproveTaskStart, map[string]string{"jobId": jobID})
}

// ApproveTaskContinueURL returns the URL for approving a task continuation
func ApproveTaskContinueURL(jobID string) string {
	return BuildURL(ApproveTaskContinue, map[string]string{"jobId": jobID})
}

// RerunTaskURL returns the URL for rerunning a task
func RerunTaskURL(jobID string) string {
	return BuildURL(RerunTask, map[string]string{"jobId": jobID})
}

// Webhook route helper

// GenAIWebhookURL returns the URL for the pipeline callback endpoint
func GenAIWebhookURL() string {
	return BuildURL(GenAIWebhook, nil)
}

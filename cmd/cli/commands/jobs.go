package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vidlearn/genai-relay/pkg/api/v1/handlers"
)

func init() {
	jobsCmd.AddCommand(createJobCmd)
	jobsCmd.AddCommand(getJobCmd)
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(updateJobCmd)
	jobsCmd.AddCommand(abortJobCmd)

	createJobCmd.Flags().StringP("webhook-url", "u", "", "Webhook URL for upstream notifications")
	createJobCmd.Flags().StringP("webhook-secret", "w", "", "Secret echoed on upstream notifications")
	createJobCmd.Flags().StringP("data", "d", "", "Initial job data as a JSON object")
	_ = createJobCmd.MarkFlagRequired("webhook-url")

	getJobCmd.Flags().StringP("id", "i", "", "Job ID to fetch")
	_ = getJobCmd.MarkFlagRequired("id")

	listJobsCmd.Flags().StringP("status", "t", "", "Filter jobs by status")

	updateJobCmd.Flags().StringP("id", "i", "", "Job ID to update")
	updateJobCmd.Flags().StringP("parameters", "p", "", "Parameters to merge as a JSON object")
	_ = updateJobCmd.MarkFlagRequired("id")
	_ = updateJobCmd.MarkFlagRequired("parameters")

	abortJobCmd.Flags().StringP("id", "i", "", "Job ID to abort")
	_ = abortJobCmd.MarkFlagRequired("id")
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage jobs",
}

var createJobCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		webhookURL, _ := cmd.Flags().GetString("webhook-url")
		webhookSecret, _ := cmd.Flags().GetString("webhook-secret")
		data, _ := cmd.Flags().GetString("data")

		params := handlers.JobCreateParams{
			WebhookURL:    webhookURL,
			WebhookSecret: webhookSecret,
		}
		if data != "" {
			params.Data = json.RawMessage(data)
		}

		response, err := apiClient.CreateJob(context.Background(), params)
		if err != nil {
			return fmt.Errorf("error creating job: %w", err)
		}
		return printJSON(response)
	},
}

var getJobCmd = &cobra.Command{
	Use:   "get",
	Short: "Get a job by ID",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")

		job, err := apiClient.GetJob(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error fetching job: %w", err)
		}
		return printJSON(job)
	},
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, _ := cmd.Flags().GetString("status")

		jobs, err := apiClient.ListJobs(context.Background(), status)
		if err != nil {
			return fmt.Errorf("error fetching jobs: %w", err)
		}
		return printJSON(jobs)
	},
}

var updateJobCmd = &cobra.Command{
	Use:   "update",
	Short: "Merge parameters into a job's configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")
		parameters, _ := cmd.Flags().GetString("parameters")

		response, err := apiClient.UpdateJob(context.Background(), jobID, handlers.JobUpdateParams{
			Parameters: json.RawMessage(parameters),
		})
		if err != nil {
			return fmt.Errorf("error updating job: %w", err)
		}
		return printJSON(response)
	},
}

var abortJobCmd = &cobra.Command{
	Use:   "abort",
	Short: "Abort a job and all of its non-terminal tasks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")

		response, err := apiClient.AbortJob(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error aborting job: %w", err)
		}
		return printJSON(response)
	},
}

// printJSON pretty prints the response
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

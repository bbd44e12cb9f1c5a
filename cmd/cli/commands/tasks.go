package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	tasksCmd.AddCommand(listTasksCmd)
	tasksCmd.AddCommand(approveStartCmd)
	tasksCmd.AddCommand(approveContinueCmd)
	tasksCmd.AddCommand(rerunTaskCmd)

	for _, cmd := range []*cobra.Command{listTasksCmd, approveStartCmd, approveContinueCmd, rerunTaskCmd} {
		cmd.Flags().StringP("job-id", "j", "", "Job ID the task belongs to")
		_ = cmd.MarkFlagRequired("job-id")
	}
	for _, cmd := range []*cobra.Command{approveStartCmd, approveContinueCmd, rerunTaskCmd} {
		cmd.Flags().StringP("task-id", "t", "", "Task ID to operate on")
		_ = cmd.MarkFlagRequired("task-id")
	}
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks",
}

var listTasksCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks of a job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("job-id")

		tasks, err := apiClient.ListTasks(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error fetching tasks: %w", err)
		}
		return printJSON(tasks)
	},
}

var approveStartCmd = &cobra.Command{
	Use:   "approve-start",
	Short: "Approve a task waiting for its start approval",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("job-id")
		taskID, _ := cmd.Flags().GetString("task-id")

		response, err := apiClient.ApproveTaskStart(context.Background(), jobID, taskID)
		if err != nil {
			return fmt.Errorf("error approving task start: %w", err)
		}
		return printJSON(response)
	},
}

var approveContinueCmd = &cobra.Command{
	Use:   "approve-continue",
	Short: "Approve a task paused at a continue checkpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("job-id")
		taskID, _ := cmd.Flags().GetString("task-id")

		response, err := apiClient.ApproveTaskContinue(context.Background(), jobID, taskID)
		if err != nil {
			return fmt.Errorf("error approving task continue: %w", err)
		}
		return printJSON(response)
	},
}

var rerunTaskCmd = &cobra.Command{
	Use:   "rerun",
	Short: "Reset a terminal task to pending for re-dispatch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("job-id")
		taskID, _ := cmd.Flags().GetString("task-id")

		response, err := apiClient.RerunTask(context.Background(), jobID, taskID)
		if err != nil {
			return fmt.Errorf("error rerunning task: %w", err)
		}
		return printJSON(response)
	},
}

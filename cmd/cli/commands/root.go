// Package commands implements the relay CLI
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vidlearn/genai-relay/pkg/api/v1/client"
	"github.com/vidlearn/genai-relay/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagSecret        = "secret"
)

// environment variable names
const (
	envServerAddress = "RELAY_SERVER_ADDRESS"
	envSecret        = "WEBHOOK_SECRET"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
	// sharedSecret is sent on every request
	sharedSecret string
)

// initClient initializes the API client
func initClient() error {
	var err error
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress
	opts.Secret = sharedSecret

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL,
		"Address of the relay API server (env: RELAY_SERVER_ADDRESS)")
	RootCmd.PersistentFlags().StringVarP(&sharedSecret, flagSecret, "k", "",
		"Shared secret for API requests (env: WEBHOOK_SECRET)")

	RootCmd.AddCommand(jobsCmd)
	RootCmd.AddCommand(tasksCmd)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "genai-relay",
	Short: "genAI relay CLI - manage pipeline jobs and task approvals",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flag > env var > default precedence
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(envServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}
		if !cmd.Flags().Changed(flagSecret) {
			if envSecret := os.Getenv(envSecret); envSecret != "" {
				sharedSecret = envSecret
			}
		}

		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

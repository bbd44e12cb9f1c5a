package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobCreateParams_Validate(t *testing.T) {
	tests := []struct {
		name        string
		params      JobCreateParams
		expectError bool
	}{
		{
			name: "valid_params",
			params: JobCreateParams{
				WebhookURL:    "http://upstream.example/hook",
				WebhookSecret: "s1",
			},
			expectError: false,
		},
		{
			name: "valid_params_with_data",
			params: JobCreateParams{
				WebhookURL: "http://upstream.example/hook",
				Data:       json.RawMessage(`{"lang": "en"}`),
			},
			expectError: false,
		},
		{
			name: "missing_webhook_url",
			params: JobCreateParams{
				WebhookSecret: "s1",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskParams_Validate(t *testing.T) {
	tests := []struct {
		name        string
		params      TaskParams
		expectError bool
	}{
		{
			name:        "valid_params",
			params:      TaskParams{TaskID: "generateAudio"},
			expectError: false,
		},
		{
			name:        "missing_task_id",
			params:      TaskParams{Data: json.RawMessage(`{}`)},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

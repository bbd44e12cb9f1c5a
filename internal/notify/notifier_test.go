package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vidlearn/genai-relay/internal/db/models"
	"github.com/vidlearn/genai-relay/internal/db/repos"
	"github.com/vidlearn/genai-relay/internal/events"
)

func testOptions() Options {
	return Options{
		RetryMax:     2,
		RetryWaitMin: 10 * time.Millisecond,
		RetryWaitMax: 50 * time.Millisecond,
		Timeout:      2 * time.Second,
	}
}

func TestSend(t *testing.T) {
	var body []byte
	var signature, contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		signature = r.Header.Get(SignatureHeader)
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := New(testOptions(), nil)
	err := notifier.Send(context.Background(), server.URL, "secret-1", Payload{
		Task:   "generateAudio",
		Status: models.TaskStatusCompleted,
		JobID:  "job-1",
		Data:   json.RawMessage(`{"url": "https://cdn.example/audio.mp3"}`),
	})
	require.NoError(t, err)

	require.Equal(t, "secret-1", signature)
	require.Equal(t, "application/json", contentType)
	require.JSONEq(t, `{
		"task": "generateAudio",
		"status": "completed",
		"jobId": "job-1",
		"data": {"url": "https://cdn.example/audio.mp3"}
	}`, string(body))
}

func TestSendRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := New(testOptions(), nil)
	err := notifier.Send(context.Background(), server.URL, "secret-1", Payload{
		Task: "generateVideo", Status: models.TaskStatusRunning, JobID: "job-1",
	})
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestSendReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	notifier := New(testOptions(), nil)
	err := notifier.Send(context.Background(), server.URL, "wrong-secret", Payload{
		Task: "generateAudio", Status: models.TaskStatusRunning, JobID: "job-1",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestSendUnreachableHost(t *testing.T) {
	notifier := New(testOptions(), nil)
	err := notifier.Send(context.Background(), "http://127.0.0.1:1", "s1", Payload{
		Task: "generateAudio", Status: models.TaskStatusRunning, JobID: "job-1",
	})
	require.Error(t, err)
}

func TestHandleEvent(t *testing.T) {
	var mu sync.Mutex
	var body []byte
	var signature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		body, _ = io.ReadAll(r.Body)
		signature = r.Header.Get(SignatureHeader)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := New(testOptions(), nil)
	err := notifier.HandleEvent(context.Background(), events.Event{
		Type:          events.EventTaskTransitioned,
		JobID:         "job-2",
		TaskID:        "generateScript",
		Status:        models.TaskStatusAwaitingStartApproval,
		WebhookURL:    server.URL,
		WebhookSecret: "secret-2",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "secret-2", signature)

	var payload Payload
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "generateScript", payload.Task)
	require.Equal(t, models.TaskStatusAwaitingStartApproval, payload.Status)
	require.Equal(t, "job-2", payload.JobID)
}

func TestHandleEventMarksWebhookSent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1&_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	taskRepo := repos.NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{JobRef: 1, TaskID: "generateAudio", Status: models.TaskStatusRunning}
	require.NoError(t, taskRepo.Create(ctx, task))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := New(testOptions(), taskRepo)
	err = notifier.HandleEvent(ctx, events.Event{
		Type:          events.EventTaskTransitioned,
		JobID:         "job-1",
		TaskRef:       task.ID,
		TaskID:        task.TaskID,
		Status:        task.Status,
		WebhookURL:    server.URL,
		WebhookSecret: "s1",
	})
	require.NoError(t, err)

	stored, err := taskRepo.GetByTaskID(ctx, 1, "generateAudio")
	require.NoError(t, err)
	require.True(t, stored.WebhookSent)
}

// Package events provides event handling functionality
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vidlearn/genai-relay/internal/db/models"
	"github.com/vidlearn/genai-relay/internal/logger"
)

// EventType represents the type of lifecycle event
type EventType string

const (
	// EventTaskTransitioned is emitted after a task state change has been committed
	EventTaskTransitioned EventType = "task_transitioned"
	// EventChannelSize is the buffer size for the event channel
	EventChannelSize = 100
)

// Event represents a committed lifecycle change. Handlers run after the
// local state is the source of truth; nothing they do can roll it back.
type Event struct {
	Type          EventType         // The type of event
	JobID         string            // The external job identifier
	TaskRef       uint              // The task's database identifier
	TaskID        string            // The pipeline-assigned task identifier
	Status        models.TaskStatus // The task status after the transition
	Data          json.RawMessage   // The latest task snapshot
	WebhookURL    string            // Upstream delivery destination
	WebhookSecret string            // Upstream delivery signature secret
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

// Bus dispatches committed lifecycle events to subscribed handlers. It is
// constructed in main and injected, tied to the process lifecycle via the
// context passed to Start.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]Handler
	eventChan chan Event
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers:  make(map[EventType][]Handler),
		eventChan: make(chan Event, EventChannelSize),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	logger.Debugf("Registered handler for event type: %s", eventType)
}

// Publish sends an event to be processed
func (b *Bus) Publish(event Event) {
	b.eventChan <- event
	logger.Debugf("Published event: %s (job: %s, task: %s)", event.Type, event.JobID, event.TaskID)
}

// Start starts the event processing loop
func (b *Bus) Start(ctx context.Context) {
	go b.processEvents(ctx)
	logger.Info("Started event processing loop")
}

// processEvents handles events in the background
func (b *Bus) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping event processing loop")
			return
		case event := <-b.eventChan:
			b.mu.RLock()
			eventHandlers := b.handlers[event.Type]
			b.mu.RUnlock()

			for _, handler := range eventHandlers {
				go func(h Handler, e Event) {
					if err := h(ctx, e); err != nil {
						logger.Errorf("Failed to handle event %s for job %s: %v", e.Type, e.JobID, err)
					}
				}(handler, event)
			}
		}
	}
}

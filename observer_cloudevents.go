package modkit

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// Lifecycle event types. Each is emitted on the module's own bus with a single
// CloudEvent argument, and only when somebody already subscribed to that bus.
const (
	EventTypeModuleInitialized = "com.modkit.module.initialized"
	EventTypeModuleStarted     = "com.modkit.module.started"
	EventTypeModuleStopped     = "com.modkit.module.stopped"
	EventTypeModuleFailed      = "com.modkit.module.failed"
)

// LifecycleEventData is the payload of lifecycle events.
type LifecycleEventData struct {
	Name      string `json:"name"`
	Namespace string `json:"ns"`
	Stage     string `json:"stage"`
	Error     string `json:"error,omitempty"`
}

// NewCloudEvent creates a new CloudEvent with the specified parameters.
// Metadata keys become extensions and must be valid CloudEvents attribute names.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

// generateEventID returns a time-ordered UUIDv7, falling back to v4.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent runs the SDK validation on event.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// emitLifecycle publishes a lifecycle event without forcing the bus into existence.
func (b *Base) emitLifecycle(eventType string, cause error) {
	b.mu.RLock()
	bus := b.bus
	b.mu.RUnlock()
	if bus == nil {
		return
	}

	data := LifecycleEventData{
		Name:      b.Name(),
		Namespace: b.Namespace(),
		Stage:     b.Stage().String(),
	}
	if cause != nil {
		data.Error = cause.Error()
	}
	bus.Emit(eventType, NewCloudEvent(eventType, "modkit://"+data.Namespace, data, nil))
}

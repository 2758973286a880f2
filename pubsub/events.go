package pubsub

const (
	// StartedEvent marks the beginning of a pipeline run
	StartedEvent EventType = "started"
	// ProgressEvent reports a completed stage
	ProgressEvent EventType = "progress"
	// FinishedEvent marks a successful run
	FinishedEvent EventType = "finished"
	// FailedEvent marks a run that returned an error
	FailedEvent EventType = "failed"
)

type (
	// EventType names a lifecycle event
	EventType string

	// Event is one lifecycle notification with its payload
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher fans an event out to subscribers
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)

package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"
)

// --- Persistence Interfaces ---

// Database is the read-only slice of Firestore csv-verify uses. It never
// writes.
type Database interface {
	ListWorkoutDates(ctx context.Context, userID string) ([]string, error)
	ListExerciseIDs(ctx context.Context) ([]string, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

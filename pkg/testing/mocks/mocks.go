package mocks

import (
	"context"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"
)

// --- Mock Database ---
type MockDatabase struct {
	ListWorkoutDatesFunc func(ctx context.Context, userID string) ([]string, error)
	ListExerciseIDsFunc  func(ctx context.Context) ([]string, error)
}

func (m *MockDatabase) ListWorkoutDates(ctx context.Context, userID string) ([]string, error) {
	if m.ListWorkoutDatesFunc != nil {
		return m.ListWorkoutDatesFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockDatabase) ListExerciseIDs(ctx context.Context) ([]string, error) {
	if m.ListExerciseIDsFunc != nil {
		return m.ListExerciseIDsFunc(ctx)
	}
	return nil, nil
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishFunc func(ctx context.Context, topic string, e event.Event) (string, error)

	Topics []string
	Events []event.Event
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	m.Topics = append(m.Topics, topic)
	m.Events = append(m.Events, e)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, e)
	}
	return "mock-msg-id", nil
}

// --- Mock Blob Store ---
type MockBlobStore struct {
	ReadFunc func(ctx context.Context, bucket, object string) ([]byte, error)
	Objects  map[string][]byte // keyed by "bucket/object"
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	if data, ok := m.Objects[bucket+"/"+object]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("object gs://%s/%s not found", bucket, object)
}

package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/cloudevents/sdk-go/v2/event"
)

// PubSubAdapter provides message publishing using Google Cloud Pub/Sub
type PubSubAdapter struct {
	Client *pubsub.Client
	Logger *slog.Logger
}

func (a *PubSubAdapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *PubSubAdapter) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		a.logger().Error("Failed to marshal CloudEvent", "topic", topicID, "error", err)
		return "", err
	}
	a.logger().Info("Publishing CloudEvent",
		"topic", topicID,
		"event_type", e.Type(),
		"event_id", e.ID(),
		"source", e.Source(),
		"size_bytes", len(bytes))

	topic := a.Client.Topic(topicID)
	defer topic.Stop()

	res := topic.Publish(ctx, &pubsub.Message{
		Data:       bytes,
		Attributes: map[string]string{"ce-type": e.Type()},
	})
	msgID, err := res.Get(ctx)
	if err != nil {
		a.logger().Error("Failed to publish message", "topic", topicID, "error", err)
		return "", err
	}
	a.logger().Info("Message published successfully", "topic", topicID, "message_id", msgID, "size_bytes", len(bytes))
	return msgID, nil
}

// LogPublisher logs events instead of publishing them. Used when publishing
// is disabled.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("MOCK PUBLISH", "topic", topicID, "event_type", e.Type(), "data", string(bytes))
	return "mock-msg-id", nil
}

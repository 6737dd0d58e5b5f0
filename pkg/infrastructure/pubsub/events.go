package pubsub

import (
	"encoding/json"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// NewCloudEvent creates a CloudEvent v1.0 with a random id. The payload goes
// through protojson so well-known types (Struct, Timestamp) keep their
// canonical JSON form.
func NewCloudEvent(source, eventType string, data proto.Message) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetID(uuid.NewString())
	e.SetType(eventType)
	e.SetSource(source)

	opts := protojson.MarshalOptions{
		UseProtoNames: true,
	}
	bytes, err := opts.Marshal(data)
	if err != nil {
		return e, err
	}
	// Wrap in json.RawMessage so it's not base64 encoded
	if err := e.SetData(cloudevents.ApplicationJSON, json.RawMessage(bytes)); err != nil {
		return e, err
	}
	return e, nil
}

// Package notify emits the completion notice for a verification run.
package notify

import (
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/structpb"

	shared "github.com/ripixel/fitglue-csv-verify/pkg"
	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
	"github.com/ripixel/fitglue-csv-verify/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitglue-csv-verify/pkg/report"
	"github.com/ripixel/fitglue-csv-verify/pkg/verify"
)

// Payload builds the event body. remote is nil when the Firestore
// comparison did not run.
func Payload(runID string, s report.Summary, remote *verify.Comparison) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"run_id":        runID,
		"total":         s.Total,
		"mapped":        s.Mapped,
		"unmapped":      s.Unmapped,
		"workout_dates": s.WorkoutDates,
		"all_mapped":    s.AllMapped(),
	}
	if remote != nil {
		fields["user_id"] = remote.UserID
		fields["missing_dates"] = len(remote.MissingDates)
		fields["missing_exercise_ids"] = len(remote.MissingIDs)
		fields["consistent"] = remote.Consistent()
	}
	return structpb.NewStruct(fields)
}

// Publish sends a verification-completed CloudEvent to topic and returns the
// message id.
func Publish(ctx context.Context, pub shared.Publisher, topic, runID string, s report.Summary, remote *verify.Comparison, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "notify")

	payload, err := Payload(runID, s, remote)
	if err != nil {
		return "", verrors.ErrInternal.WithMessage("build completion payload").WithCause(err)
	}

	e, err := pubsub.NewCloudEvent(shared.ServiceName, shared.EventTypeVerificationCompleted, payload)
	if err != nil {
		return "", verrors.ErrInternal.WithMessage("build completion event").WithCause(err)
	}

	msgID, err := pub.PublishCloudEvent(ctx, topic, e)
	if err != nil {
		logger.Error("Completion notice failed", "topic", topic, "error", err)
		return "", verrors.ErrPubSub.WithCause(err).WithMetadata("topic", topic)
	}
	logger.Info("Completion notice sent", "topic", topic, "message_id", msgID, "event_id", e.ID())
	return msgID, nil
}

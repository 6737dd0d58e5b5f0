package database

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	shared "github.com/ripixel/fitglue-csv-verify/pkg"
)

// WorkoutDateLayout is how timestamp-typed workout dates are rendered for
// comparison with the export's Date column.
const WorkoutDateLayout = "2006-01-02 15:04:05"

// FirestoreAdapter reads workouts and the exercise catalog from Firestore.
// It only issues queries.
type FirestoreAdapter struct {
	Client *firestore.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{Client: client}
}

// ListWorkoutDates returns the date of every workout stored under
// users/{userID}/workouts.
func (a *FirestoreAdapter) ListWorkoutDates(ctx context.Context, userID string) ([]string, error) {
	iter := a.Client.Collection(shared.CollectionUsers).Doc(userID).
		Collection(shared.CollectionWorkouts).
		Select("date").
		Documents(ctx)
	defer iter.Stop()

	var dates []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		dates = append(dates, WorkoutDate(doc.Ref.ID, doc.Data()))
	}
	return dates, nil
}

// ListExerciseIDs returns the id of every document in the exercises
// collection without reading document bodies.
func (a *FirestoreAdapter) ListExerciseIDs(ctx context.Context) ([]string, error) {
	iter := a.Client.Collection(shared.CollectionExercises).DocumentRefs(ctx)

	var ids []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// WorkoutDate extracts the comparable date of a workout document: its
// "date" field as a string or timestamp, else the document id.
func WorkoutDate(docID string, data map[string]interface{}) string {
	switch v := data["date"].(type) {
	case string:
		if v != "" {
			return v
		}
	case time.Time:
		return v.UTC().Format(WorkoutDateLayout)
	}
	return docID
}

// Package verify compares a scanned workout export with what is stored in
// Firebase for one user. It only reads; nothing is ever written back.
package verify

import (
	"context"
	"log/slog"
	"sort"

	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
)

// WorkoutStore is the read-only view of Firebase the comparison needs.
type WorkoutStore interface {
	ListWorkoutDates(ctx context.Context, userID string) ([]string, error)
	ListExerciseIDs(ctx context.Context) ([]string, error)
}

// Comparison is the outcome of Compare. All slices are sorted.
type Comparison struct {
	UserID       string
	CSVDates     int
	RemoteDates  int
	MissingDates []string // in the CSV, not in Firebase
	ExtraDates   []string // in Firebase, not in the CSV
	CheckedIDs   int
	MissingIDs   []string // resolved canonical ids absent from Firebase
}

// Consistent is true when every CSV date and resolved id exists remotely.
// Extra remote dates do not make the data inconsistent.
func (c Comparison) Consistent() bool {
	return len(c.MissingDates) == 0 && len(c.MissingIDs) == 0
}

// Compare checks csvDates against the user's stored workouts and
// resolvedIDs against the stored exercise catalog.
func Compare(ctx context.Context, store WorkoutStore, userID string, csvDates, resolvedIDs []string, logger *slog.Logger) (Comparison, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "verify", "user_id", userID)

	remoteDates, err := store.ListWorkoutDates(ctx, userID)
	if err != nil {
		return Comparison{}, verrors.ErrFirestore.
			WithMessage("failed to list workouts").
			WithCause(err).
			WithMetadata("user_id", userID)
	}
	logger.Debug("Loaded remote workouts", "count", len(remoteDates))

	remoteIDs, err := store.ListExerciseIDs(ctx)
	if err != nil {
		return Comparison{}, verrors.ErrFirestore.
			WithMessage("failed to list exercises").
			WithCause(err)
	}
	logger.Debug("Loaded remote exercises", "count", len(remoteIDs))

	csvSet := toSet(csvDates)
	remoteSet := toSet(remoteDates)

	c := Comparison{
		UserID:       userID,
		CSVDates:     len(csvSet),
		RemoteDates:  len(remoteSet),
		MissingDates: difference(csvSet, remoteSet),
		ExtraDates:   difference(remoteSet, csvSet),
		CheckedIDs:   len(resolvedIDs),
		MissingIDs:   difference(toSet(resolvedIDs), toSet(remoteIDs)),
	}

	logger.Info("Firebase comparison complete",
		"missing_dates", len(c.MissingDates),
		"extra_dates", len(c.ExtraDates),
		"missing_ids", len(c.MissingIDs))
	return c, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// difference returns the sorted members of a that are not in b.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for item := range a {
		if _, ok := b[item]; !ok {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

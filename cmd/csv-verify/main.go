// Command csv-verify checks that every exercise name in a workout export CSV
// resolves to a canonical exercise id, and optionally that the user's data
// is present in Firestore.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	shared "github.com/ripixel/fitglue-csv-verify/pkg"
	"github.com/ripixel/fitglue-csv-verify/pkg/app"
	"github.com/ripixel/fitglue-csv-verify/pkg/bootstrap"
	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
)

type options struct {
	configPath       string
	exercisesPath    string
	exportPath       string
	firestoreProject string
	userID           string
	publishTopic     string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "csv-verify",
		Short: "Verify exercise mappings between a workout export CSV and exercises.json",
		Long: `csv-verify reads a JSON dictionary of canonical exercises and a CSV
workout export, then reports which exercise names in the export have no
canonical id.

With --firestore-project and --user-id it also checks, read-only, that the
user's workout dates and the resolved exercise ids exist in Firestore.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.exercisesPath, "exercises", shared.DefaultExercisesPath, "exercise mapping JSON (local path or gs://bucket/object)")
	f.StringVar(&opts.exportPath, "csv", shared.DefaultExportPath, "workout export CSV (local path or gs://bucket/object)")
	f.StringVar(&opts.firestoreProject, "firestore-project", "", "GCP project for the read-only Firestore check")
	f.StringVar(&opts.userID, "user-id", "", "user whose stored workouts are checked")
	f.StringVar(&opts.publishTopic, "publish-topic", "", "Pub/Sub topic for the completion notice")

	return cmd
}

// resolveConfig layers explicitly set flags over the loaded configuration.
func resolveConfig(cmd *cobra.Command, opts *options) (*bootstrap.Config, error) {
	cfg, err := bootstrap.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("exercises") {
		cfg.ExercisesPath = opts.exercisesPath
	}
	if f.Changed("csv") {
		cfg.ExportPath = opts.exportPath
	}
	if f.Changed("firestore-project") {
		cfg.ProjectID = opts.firestoreProject
	}
	if f.Changed("user-id") {
		cfg.UserID = opts.userID
	}
	if f.Changed("publish-topic") {
		cfg.PublishTopic = opts.publishTopic
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *options, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := bootstrap.NewLoggerTo(stderr, shared.ServiceName, cfg.LogLevel)

	svc, err := bootstrap.NewService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close clients", "error", err)
		}
	}()

	_, err = app.Run(ctx, cfg, app.DepsFrom(svc), stdout, logger)
	return err
}

// printError writes err and any structured metadata to w.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var ve *verrors.VerifyError
	if !errors.As(err, &ve) || len(ve.Metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(ve.Metadata))
	for k := range ve.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, ve.Metadata[k])
	}
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

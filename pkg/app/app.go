// Package app runs one verification: load the mapping, scan the export,
// print the report, then the optional Firestore comparison and completion
// notice.
package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	shared "github.com/ripixel/fitglue-csv-verify/pkg"
	"github.com/ripixel/fitglue-csv-verify/pkg/bootstrap"
	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
	"github.com/ripixel/fitglue-csv-verify/pkg/mapping"
	"github.com/ripixel/fitglue-csv-verify/pkg/notify"
	"github.com/ripixel/fitglue-csv-verify/pkg/report"
	"github.com/ripixel/fitglue-csv-verify/pkg/source"
	"github.com/ripixel/fitglue-csv-verify/pkg/verify"
	"github.com/ripixel/fitglue-csv-verify/pkg/workouts"
)

// Deps are the external services a run may touch. Any of them may be nil
// when the configuration does not call for it.
type Deps struct {
	DB    shared.Database
	Store shared.BlobStore
	Pub   shared.Publisher
}

// DepsFrom extracts Deps from an initialized service.
func DepsFrom(svc *bootstrap.Service) Deps {
	return Deps{DB: svc.DB, Store: svc.Store, Pub: svc.Pub}
}

// Result is what a successful run produced.
type Result struct {
	RunID     string
	Summary   report.Summary
	Remote    *verify.Comparison
	MessageID string
}

// Run executes the pipeline and writes the report to out. Stages run in
// order and the first error aborts; report lines already written stay.
func Run(ctx context.Context, cfg *bootstrap.Config, deps Deps, out io.Writer, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := &Result{RunID: uuid.NewString()}
	logger = logger.With("run_id", res.RunID)
	start := time.Now()
	logger.Info("Verification started",
		"exercises_path", cfg.ExercisesPath,
		"export_path", cfg.ExportPath,
		"remote_check", cfg.RemoteCheck())

	if err := run(ctx, cfg, deps, out, logger, res); err != nil {
		logger.Error("Verification failed", "error", err, "code", verrors.GetCode(err))
		return nil, err
	}

	logger.Info("Verification completed",
		"total", res.Summary.Total,
		"unmapped", res.Summary.Unmapped,
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func run(ctx context.Context, cfg *bootstrap.Config, deps Deps, out io.Writer, logger *slog.Logger, res *Result) error {
	r := report.New(out)
	r.Banner()

	r.LoadingMapping(cfg.ExercisesPath)
	data, err := source.Read(ctx, cfg.ExercisesPath, deps.Store)
	if err != nil {
		return err
	}
	catalog, err := mapping.Load(bytes.NewReader(data))
	if err != nil {
		return withPath(err, cfg.ExercisesPath)
	}
	logger.Debug("Mapping loaded", "component", "mapping", "records", len(catalog.Records), "keys", catalog.Index.Len())
	r.MappingLoaded(cfg.ExercisesPath, len(catalog.Records))

	r.ReadingExport(cfg.ExportPath)
	data, err = source.Read(ctx, cfg.ExportPath, deps.Store)
	if err != nil {
		return err
	}
	scan, err := workouts.Scan(bytes.NewReader(data), catalog.Index)
	if err != nil {
		return withPath(err, cfg.ExportPath)
	}
	logger.Debug("Export scanned", "component", "workouts", "rows", scan.Rows)

	res.Summary = report.Summarize(scan, catalog.Index)
	r.ExportScanned(res.Summary)
	r.Verification(res.Summary)
	r.Summary(res.Summary)

	if cfg.RemoteCheck() {
		if deps.DB == nil {
			return verrors.ErrConfig.WithMessage("firestore comparison configured without a database client")
		}
		c, err := verify.Compare(ctx, deps.DB, cfg.UserID, scan.Dates, report.ResolvedIDs(scan, catalog.Index), logger)
		if err != nil {
			return err
		}
		res.Remote = &c
		r.Remote(c)
	}

	r.NextSteps(res.Summary, res.Remote != nil)
	if err := r.Err(); err != nil {
		return verrors.ErrInternal.WithMessage("write report").WithCause(err)
	}

	if cfg.PublishTopic != "" && deps.Pub != nil {
		id, err := notify.Publish(ctx, deps.Pub, cfg.PublishTopic, res.RunID, res.Summary, res.Remote, logger)
		if err != nil {
			return err
		}
		res.MessageID = id
	}
	return nil
}

func withPath(err error, path string) error {
	var ve *verrors.VerifyError
	if errors.As(err, &ve) {
		return ve.WithMetadata("path", path)
	}
	return err
}

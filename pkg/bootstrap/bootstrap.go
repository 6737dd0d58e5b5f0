package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"gopkg.in/yaml.v3"

	shared "github.com/ripixel/fitglue-csv-verify/pkg"
	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
	"github.com/ripixel/fitglue-csv-verify/pkg/infrastructure/database"
	infrapubsub "github.com/ripixel/fitglue-csv-verify/pkg/infrastructure/pubsub"
	infrastorage "github.com/ripixel/fitglue-csv-verify/pkg/infrastructure/storage"
	"github.com/ripixel/fitglue-csv-verify/pkg/source"
)

// Config holds the run configuration. Zero values disable the optional
// Firestore comparison and completion notice.
type Config struct {
	ExercisesPath string `yaml:"exercises_path"`
	ExportPath    string `yaml:"workout_export_path"`
	ProjectID     string `yaml:"firestore_project"`
	UserID        string `yaml:"user_id"`
	PublishTopic  string `yaml:"publish_topic"`
	EnablePublish bool   `yaml:"enable_publish"`
	LogLevel      string `yaml:"log_level"`
}

// RemoteCheck reports whether the Firestore comparison should run.
func (c *Config) RemoteCheck() bool {
	return c.ProjectID != "" && c.UserID != ""
}

// Service holds initialized dependencies. Fields are nil when the
// configuration does not need them.
type Service struct {
	DB     shared.Database
	Store  shared.BlobStore
	Pub    shared.Publisher
	Config *Config

	closers []func() error
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		ExercisesPath: shared.DefaultExercisesPath,
		ExportPath:    shared.DefaultExportPath,
		LogLevel:      "info",
	}
}

// LoadConfig layers defaults, the YAML file at path (skipped when path is
// empty) and environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, verrors.ErrFileNotFound.WithCause(err).WithMetadata("path", path)
		}
		if err != nil {
			return nil, verrors.ErrFileRead.WithCause(err).WithMetadata("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, verrors.ErrConfig.WithCause(err).WithMetadata("path", path)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"EXERCISES_PATH":       &cfg.ExercisesPath,
		"WORKOUT_EXPORT_PATH":  &cfg.ExportPath,
		"GOOGLE_CLOUD_PROJECT": &cfg.ProjectID,
		"FITGLUE_USER_ID":      &cfg.UserID,
		"PUBLISH_TOPIC":        &cfg.PublishTopic,
		"LOG_LEVEL":            &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("ENABLE_PUBLISH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return verrors.ErrConfig.
				WithMessage("ENABLE_PUBLISH must be a boolean").
				WithCause(err)
		}
		cfg.EnablePublish = b
	}
	return nil
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message.
// The component may be set per record or bound once with Logger.With.
type ComponentHandler struct {
	slog.Handler
	component string
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return false
		}
		return true
	})

	if component != "" {
		newRecord := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", component, r.Message), r.PC)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key != "component" {
				newRecord.AddAttrs(a)
			}
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler. A bound component attribute is held
// back from the inner handler so it only shows up as the message prefix.
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	rest := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "component" {
			component = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	return &ComponentHandler{Handler: h.Handler.WithAttrs(rest), component: component}
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a JSON logger on stderr. stdout is reserved for the report.
func NewLogger(serviceName, level string) *slog.Logger {
	return NewLoggerTo(os.Stderr, serviceName, level)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, serviceName, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, GetSlogHandlerOptions(ParseLevel(level)))
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes the clients cfg needs and nothing more: Cloud
// Storage only for gs:// inputs, Firestore only when the remote check is
// configured, Pub/Sub only when publishing to a topic is enabled.
func NewService(ctx context.Context, cfg *Config, logger *slog.Logger) (*Service, error) {
	svc := &Service{Config: cfg}
	base := logger
	logger = logger.With("component", "bootstrap")

	if source.IsRemote(cfg.ExercisesPath) || source.IsRemote(cfg.ExportPath) {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			logger.Error("Storage init failed", "error", err)
			return nil, verrors.ErrStorage.WithMessage("storage init").WithCause(err)
		}
		svc.closers = append(svc.closers, gcsClient.Close)
		svc.Store = &infrastorage.StorageAdapter{Client: gcsClient}
		logger.Debug("Cloud Storage client ready")
	}

	if cfg.RemoteCheck() {
		fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			svc.closeQuietly(logger)
			logger.Error("Firestore init failed", "error", err, "project_id", cfg.ProjectID)
			return nil, verrors.ErrFirestore.WithMessage("firestore init").WithCause(err)
		}
		svc.closers = append(svc.closers, fsClient.Close)
		svc.DB = database.NewFirestoreAdapter(fsClient)
		logger.Info("Firestore: read-only comparison enabled", "project_id", cfg.ProjectID)
	}

	if cfg.PublishTopic != "" {
		if cfg.EnablePublish {
			if cfg.ProjectID == "" {
				svc.closeQuietly(logger)
				return nil, verrors.ErrConfig.WithMessage("publishing requires a project id")
			}
			psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
			if err != nil {
				svc.closeQuietly(logger)
				logger.Error("PubSub init failed", "error", err)
				return nil, verrors.ErrPubSub.WithMessage("pubsub init").WithCause(err)
			}
			svc.closers = append(svc.closers, psClient.Close)
			svc.Pub = &infrapubsub.PubSubAdapter{Client: psClient, Logger: base.With("component", "pubsub")}
			logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
		} else {
			svc.Pub = &infrapubsub.LogPublisher{Logger: base.With("component", "pubsub")}
			logger.Info("Pub/Sub: MOCK (LogPublisher)")
		}
	}

	return svc, nil
}

// closeQuietly releases clients on a failed init path, where the init
// error is the one returned.
func (s *Service) closeQuietly(logger *slog.Logger) {
	if err := s.Close(); err != nil {
		logger.Warn("Failed to close clients", "error", err)
	}
}

// Close releases every client NewService opened.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

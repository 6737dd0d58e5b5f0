// Package source reads input documents from the local filesystem or from
// Cloud Storage (gs://bucket/object).
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	shared "github.com/ripixel/fitglue-csv-verify/pkg"
	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
)

const gcsScheme = "gs://"

// ParseGCSPath splits a gs://bucket/object path. ok is false for anything
// else, including a gs:// path without an object name.
func ParseGCSPath(path string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(path, gcsScheme)
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// IsRemote reports whether path needs a BlobStore to be read.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

// Read returns the full contents of path. The file (or object) is closed
// before Read returns. blobs may be nil when path is local.
func Read(ctx context.Context, path string, blobs shared.BlobStore) ([]byte, error) {
	if !IsRemote(path) {
		return readLocal(path)
	}

	bucket, object, ok := ParseGCSPath(path)
	if !ok {
		return nil, verrors.ErrConfig.
			WithMessage("invalid Cloud Storage path, expected gs://bucket/object").
			WithMetadata("path", path)
	}
	if blobs == nil {
		return nil, verrors.ErrConfig.
			WithMessage("Cloud Storage is not configured").
			WithMetadata("path", path)
	}

	data, err := blobs.Read(ctx, bucket, object)
	if err != nil {
		if errors.Is(err, verrors.ErrFileNotFound) {
			return nil, verrors.ErrFileNotFound.WithCause(err).WithMetadata("path", path)
		}
		return nil, verrors.ErrStorage.WithCause(err).WithMetadata("path", path)
	}
	return data, nil
}

func readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, verrors.ErrFileNotFound.WithCause(err).WithMetadata("path", path)
	}
	if err != nil {
		return nil, verrors.ErrFileRead.WithCause(err).WithMetadata("path", path)
	}
	return data, nil
}

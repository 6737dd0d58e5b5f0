package storage

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"

	verrors "github.com/ripixel/fitglue-csv-verify/pkg/errors"
)

// StorageAdapter reads input files from Cloud Storage.
type StorageAdapter struct {
	Client *storage.Client
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, readError(err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, readError(err)
	}
	return data, nil
}

// readError marks missing objects and buckets as FILE_NOT_FOUND. Other
// errors pass through unchanged.
func readError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return verrors.ErrFileNotFound.WithCause(err)
	}
	return err
}

package storage

import "context"

// ObjectStorage captures the minimal S3-compatible operations result
// archiving needs.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, contentType string, data []byte) error
}

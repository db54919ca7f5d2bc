package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// MinIOStore is the production ContentStore backed by an object bucket.
// Object names are content ids, so re-uploads of identical bytes are
// overwrites of the same object.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

var _ ContentStore = (*MinIOStore)(nil)

// NewMinIOStore wraps an established MinIO connection. The bucket must
// already exist.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

// Put uploads the bytes under their content id.
func (s *MinIOStore) Put(ctx context.Context, data []byte) (string, error) {
	id := contentID(data)
	_, err := s.client.PutObject(ctx, s.bucket, id, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("failed to store artifact %s: %w", id, err)
	}
	return id, nil
}

// Get downloads the stored bytes for the id.
func (s *MinIOStore) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", id, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", id, err)
	}
	return data, nil
}

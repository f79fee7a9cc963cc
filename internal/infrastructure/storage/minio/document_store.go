package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

const (
	documentContentType = "application/json"
	locationScheme      = "minio://"
)

var ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")

// DocumentStore writes documents as objects named <prefix>/<folder>/<file>.
type DocumentStore struct {
	client *MinIOClient
	logger logging.Logger
}

func NewDocumentStore(client *MinIOClient, log logging.Logger) *DocumentStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &DocumentStore{client: client, logger: log}
}

// ObjectKey builds the object name for dest.
func (s *DocumentStore) ObjectKey(dest ptypes.Destination) string {
	folder := strings.Trim(strings.ReplaceAll(dest.Folder, `\`, "/"), "/")
	return strings.TrimPrefix(path.Join(s.client.config.Prefix, folder, dest.FileName), "/")
}

// Save uploads data and returns a minio://bucket/key location.
func (s *DocumentStore) Save(ctx context.Context, dest ptypes.Destination, data []byte) (string, error) {
	if s.client.isClosed() {
		return "", ErrMinIOClientClosed
	}
	bucket := s.client.Bucket()
	key := s.ObjectKey(dest)

	info, err := s.client.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: documentContentType})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentWrite, "failed to upload document").
			WithDetail("key=" + key)
	}

	s.logger.Info("Document uploaded",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.String("etag", info.ETag))
	return locationScheme + bucket + "/" + key, nil
}

// Load downloads a document.  location may be a full minio:// location or a
// bare key in the configured bucket.
func (s *DocumentStore) Load(ctx context.Context, location string) ([]byte, error) {
	if s.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	bucket, key := s.splitLocation(location)

	rc, err := s.client.client.FetchObject(ctx, bucket, key)
	if err != nil {
		return nil, s.readError(err, key)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, s.readError(err, key)
	}
	return data, nil
}

// Exists reports whether the object for dest is already present.
func (s *DocumentStore) Exists(ctx context.Context, dest ptypes.Destination) (bool, error) {
	_, err := s.client.client.StatObject(ctx, s.client.Bucket(), s.ObjectKey(dest), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat document")
}

// List returns the keys stored under folder.
func (s *DocumentStore) List(ctx context.Context, folder string) ([]string, error) {
	prefix := s.ObjectKey(ptypes.Destination{Folder: folder})
	if prefix != "" {
		prefix += "/"
	}
	var keys []string
	for obj := range s.client.client.ListObjects(ctx, s.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "failed to list documents")
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *DocumentStore) splitLocation(location string) (string, string) {
	if !strings.HasPrefix(location, locationScheme) {
		return s.client.Bucket(), strings.TrimPrefix(location, "/")
	}
	rest := strings.TrimPrefix(location, locationScheme)
	if i := strings.Index(rest, "/"); i > 0 {
		return rest[:i], rest[i+1:]
	}
	return s.client.Bucket(), rest
}

func (s *DocumentStore) readError(err error, key string) error {
	if isNoSuchKey(err) {
		return ErrObjectNotFound.WithCause(err).WithDetail("key=" + key)
	}
	return errors.Wrap(err, errors.ErrCodeDocumentRead, "failed to download document").WithDetail("key=" + key)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

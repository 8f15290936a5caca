package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSArchive mirrors finished attribution results into a bucket so
// runs survive the local machine.
type GCSArchive struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSArchive(ctx context.Context, bucket, prefix string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSArchive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (a *GCSArchive) Close() error {
	return a.client.Close()
}

// Upload stores data under the archive prefix and returns the object
// name. Existing objects are never overwritten; a numeric suffix is
// appended until a free name is found.
func (a *GCSArchive) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	existing, err := a.List(ctx)
	if err != nil {
		return "", err
	}

	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[name] = true
	}

	name := a.objectName(filename)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; taken[name]; i++ {
		name = fmt.Sprintf("%s-%d%s", base, i, ext)
	}

	obj := a.client.Bucket(a.bucket).Object(name)
	w := obj.NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload of %s: %w", name, err)
	}

	return name, nil
}

// List returns the object names currently under the archive prefix.
func (a *GCSArchive) List(ctx context.Context) ([]string, error) {
	bkt := a.client.Bucket(a.bucket)
	query := &storage.Query{Prefix: a.prefix}

	var names []string
	it := bkt.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		names = append(names, attrs.Name)
	}

	return names, nil
}

// CheckAccess verifies the bucket exists and is reachable with the
// ambient credentials.
func (a *GCSArchive) CheckAccess(ctx context.Context) error {
	if _, err := a.client.Bucket(a.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("failed to access bucket %s: %w", a.bucket, err)
	}
	return nil
}

func (a *GCSArchive) objectName(filename string) string {
	base := filepath.Base(filename)
	if a.prefix == "" {
		return base
	}
	return a.prefix + "/" + base
}

package firebase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"owner-console/editor"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
)

const previewPrefix = "previews/"

var ErrObjectNotFound = errors.New("object not found")

// ObjectAttrs is the subset of object metadata the preview store reads back.
type ObjectAttrs struct {
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// Objects abstracts bucket operations for dependency injection and testing.
type Objects interface {
	Put(ctx context.Context, path, contentType string, metadata map[string]string, r io.Reader) (int64, error)
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Attrs(ctx context.Context, path string) (ObjectAttrs, error)
	Delete(ctx context.Context, path string) error
}

// BucketObjects is the real implementation backed by a Cloud Storage bucket.
type BucketObjects struct {
	bucket *storage.BucketHandle
}

// NewBucketObjects opens the app's default bucket, or name when non-empty.
func NewBucketObjects(ctx context.Context, app *firebase.App, name string) (*BucketObjects, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage client: %w", err)
	}

	var bucket *storage.BucketHandle
	if name != "" {
		bucket, err = client.Bucket(name)
	} else {
		bucket, err = client.DefaultBucket()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}
	return &BucketObjects{bucket: bucket}, nil
}

func (b *BucketObjects) Put(ctx context.Context, path, contentType string, metadata map[string]string, r io.Reader) (int64, error) {
	wc := b.bucket.Object(path).NewWriter(ctx)
	wc.ContentType = contentType
	wc.Metadata = metadata

	n, err := io.Copy(wc, r)
	if err != nil {
		wc.Close()
		return 0, err
	}
	if err := wc.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize upload: %w", err)
	}
	return n, nil
}

func (b *BucketObjects) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := b.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	return rc, err
}

func (b *BucketObjects) Attrs(ctx context.Context, path string) (ObjectAttrs, error) {
	attrs, err := b.bucket.Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ObjectAttrs{}, ErrObjectNotFound
		}
		return ObjectAttrs{}, err
	}
	return ObjectAttrs{ContentType: attrs.ContentType, Size: attrs.Size, Metadata: attrs.Metadata}, nil
}

// Delete treats a missing object as already deleted.
func (b *BucketObjects) Delete(ctx context.Context, path string) error {
	err := b.bucket.Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

// PreviewStore keeps pending uploads in the bucket under previews/ until the
// owning form submits or drops them. Handles are UUIDs; the object path is
// derived from the handle alone so previews survive a console restart.
type PreviewStore struct {
	objects Objects
	urlBase string
}

func NewPreviewStore(objects Objects, urlBase string) *PreviewStore {
	return &PreviewStore{objects: objects, urlBase: urlBase}
}

func (s *PreviewStore) Acquire(ctx context.Context, fileName, contentType string, r io.Reader) (editor.Preview, error) {
	handle := uuid.New().String()
	name := sanitizeFilename(fileName)

	n, err := s.objects.Put(ctx, previewPrefix+handle, contentType, map[string]string{"filename": name}, r)
	if err != nil {
		return editor.Preview{}, err
	}
	return editor.Preview{
		Handle:      handle,
		FileName:    name,
		ContentType: contentType,
		Size:        n,
		URL:         s.urlBase + "/" + handle,
	}, nil
}

func (s *PreviewStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	path, err := objectPath(handle)
	if err != nil {
		return nil, err
	}
	rc, err := s.objects.Get(ctx, path)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, editor.ErrPreviewNotFound
	}
	return rc, err
}

func (s *PreviewStore) Stat(ctx context.Context, handle string) (editor.Preview, error) {
	path, err := objectPath(handle)
	if err != nil {
		return editor.Preview{}, err
	}
	attrs, err := s.objects.Attrs(ctx, path)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return editor.Preview{}, editor.ErrPreviewNotFound
		}
		return editor.Preview{}, err
	}
	return editor.Preview{
		Handle:      handle,
		FileName:    attrs.Metadata["filename"],
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
		URL:         s.urlBase + "/" + handle,
	}, nil
}

func (s *PreviewStore) Release(ctx context.Context, handle string) error {
	path, err := objectPath(handle)
	if err != nil {
		return nil
	}
	return s.objects.Delete(ctx, path)
}

// objectPath rejects anything that is not a handle this store issued.
func objectPath(handle string) (string, error) {
	if _, err := uuid.Parse(handle); err != nil {
		return "", editor.ErrPreviewNotFound
	}
	return previewPrefix + handle, nil
}

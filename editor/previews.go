package editor

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Preview is a selected-but-not-uploaded file plus an ephemeral display URL.
// It must be released once the owning list entry or form goes away.
type Preview struct {
	Handle      string `json:"handle"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// PreviewStore owns the bytes behind previews between selection and submission.
type PreviewStore interface {
	Acquire(ctx context.Context, fileName, contentType string, r io.Reader) (Preview, error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Stat(ctx context.Context, handle string) (Preview, error)
	Release(ctx context.Context, handle string) error
}

// File is one selected upload handed to AddVariantImages.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

type memoryPreview struct {
	preview Preview
	data    []byte
}

// MemoryPreviews keeps preview bytes in process and serves them under URLPrefix.
type MemoryPreviews struct {
	URLPrefix string

	mu    sync.RWMutex
	items map[string]memoryPreview
}

func NewMemoryPreviews(urlPrefix string) *MemoryPreviews {
	return &MemoryPreviews{
		URLPrefix: urlPrefix,
		items:     make(map[string]memoryPreview),
	}
}

func (m *MemoryPreviews) Acquire(ctx context.Context, fileName, contentType string, r io.Reader) (Preview, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Preview{}, err
	}

	handle := uuid.New().String()
	p := Preview{
		Handle:      handle,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		URL:         m.URLPrefix + "/" + handle,
	}

	m.mu.Lock()
	m.items[handle] = memoryPreview{preview: p, data: data}
	m.mu.Unlock()
	return p, nil
}

func (m *MemoryPreviews) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	m.mu.RLock()
	item, ok := m.items[handle]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrPreviewNotFound
	}
	return io.NopCloser(bytes.NewReader(item.data)), nil
}

// Stat returns the preview metadata for handle, used when serving the bytes.
func (m *MemoryPreviews) Stat(ctx context.Context, handle string) (Preview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[handle]
	if !ok {
		return Preview{}, ErrPreviewNotFound
	}
	return item.preview, nil
}

// Release is idempotent; releasing an unknown handle is not an error.
func (m *MemoryPreviews) Release(ctx context.Context, handle string) error {
	m.mu.Lock()
	delete(m.items, handle)
	m.mu.Unlock()
	return nil
}

// Len reports how many previews are currently held.
func (m *MemoryPreviews) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

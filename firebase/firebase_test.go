package firebase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"owner-console/editor"
)

func TestSanitizeFilenameNormal(t *testing.T) {
	result := sanitizeFilename("image_test-file.jpg")
	if result != "image_test-file.jpg" {
		t.Errorf("expected 'image_test-file.jpg', got '%s'", result)
	}
}

func TestSanitizeFilenameSpecialChars(t *testing.T) {
	result := sanitizeFilename("my file (1)@#$.jpg")
	if strings.ContainsAny(result, " ()@#$") {
		t.Errorf("special chars not replaced: '%s'", result)
	}
}

func TestSanitizeFilenameTooLong(t *testing.T) {
	long := strings.Repeat("a", 200)
	result := sanitizeFilename(long)
	if len(result) != 100 {
		t.Errorf("expected length 100, got %d", len(result))
	}
}

func TestSanitizeFilenameEmpty(t *testing.T) {
	result := sanitizeFilename("")
	if result != "file" {
		t.Errorf("expected 'file', got '%s'", result)
	}
}

func TestSanitizeFilenameDots(t *testing.T) {
	if sanitizeFilename(".") != "file" {
		t.Error("single dot should become 'file'")
	}
	if sanitizeFilename("..") != "file" {
		t.Error("double dots should become 'file'")
	}
}

type fakeObject struct {
	data  []byte
	attrs ObjectAttrs
}

// fakeObjects is an in-memory bucket.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	deletes []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string]fakeObject)}
}

func (f *fakeObjects) Put(ctx context.Context, path, contentType string, metadata map[string]string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = fakeObject{data: data, attrs: ObjectAttrs{ContentType: contentType, Size: int64(len(data)), Metadata: metadata}}
	return int64(len(data)), nil
}

func (f *fakeObjects) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[path]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (f *fakeObjects) Attrs(ctx context.Context, path string) (ObjectAttrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[path]
	if !ok {
		return ObjectAttrs{}, ErrObjectNotFound
	}
	return obj.attrs, nil
}

func (f *fakeObjects) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	f.deletes = append(f.deletes, path)
	return nil
}

func TestPreviewStoreLifecycle(t *testing.T) {
	objects := newFakeObjects()
	store := NewPreviewStore(objects, "/previews")
	ctx := context.Background()

	pv, err := store.Acquire(ctx, "front view.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if pv.FileName != "front_view.png" || pv.Size != 9 || pv.URL != "/previews/"+pv.Handle {
		t.Errorf("unexpected preview: %+v", pv)
	}
	if _, ok := objects.objects["previews/"+pv.Handle]; !ok {
		t.Fatalf("expected object under previews/, have %v", objects.objects)
	}

	rc, err := store.Open(ctx, pv.Handle)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png-bytes" {
		t.Errorf("unexpected bytes %q", data)
	}

	stat, err := store.Stat(ctx, pv.Handle)
	if err != nil {
		t.Fatal(err)
	}
	if stat.ContentType != "image/png" || stat.FileName != "front_view.png" {
		t.Errorf("unexpected stat: %+v", stat)
	}

	if err := store.Release(ctx, pv.Handle); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Open(ctx, pv.Handle); !errors.Is(err, editor.ErrPreviewNotFound) {
		t.Errorf("expected ErrPreviewNotFound after release, got %v", err)
	}
}

func TestPreviewStoreRejectsForeignHandles(t *testing.T) {
	objects := newFakeObjects()
	store := NewPreviewStore(objects, "/previews")
	ctx := context.Background()

	for _, handle := range []string{"../products/x.jpg", "", "not-a-handle"} {
		if _, err := store.Open(ctx, handle); !errors.Is(err, editor.ErrPreviewNotFound) {
			t.Errorf("Open(%q): expected ErrPreviewNotFound, got %v", handle, err)
		}
		if _, err := store.Stat(ctx, handle); !errors.Is(err, editor.ErrPreviewNotFound) {
			t.Errorf("Stat(%q): expected ErrPreviewNotFound, got %v", handle, err)
		}
		if err := store.Release(ctx, handle); err != nil {
			t.Errorf("Release(%q) should be a no-op, got %v", handle, err)
		}
	}
	if len(objects.deletes) != 0 {
		t.Errorf("foreign handles must not reach the bucket: %v", objects.deletes)
	}
}

func TestPreviewStoreWithProductEditing(t *testing.T) {
	store := NewPreviewStore(newFakeObjects(), "/previews")
	ctx := context.Background()
	p := editor.NewProduct()

	if _, err := p.AddVariantImages(ctx, 1, []editor.File{
		{Name: "a.jpg", ContentType: "image/jpeg", Content: strings.NewReader("a")},
	}, store); err != nil {
		t.Fatal(err)
	}
	handle := p.Variants[0].Images[0].Preview.Handle

	if err := p.RemoveVariantImage(ctx, 1, 0, store); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Stat(ctx, handle); !errors.Is(err, editor.ErrPreviewNotFound) {
		t.Errorf("removed image should be released, got %v", err)
	}
}

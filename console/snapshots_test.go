package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"owner-console/editor"
	"owner-console/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSnapshotDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&models.EditorSession{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestGormSnapshotsRoundTrip(t *testing.T) {
	store := NewGormSnapshots(setupSnapshotDB(t))
	ctx := context.Background()

	p := editor.NewProduct()
	p.ID = "p1"
	p.Name = "Cumin"
	p.Variants[0].Quantity = "3"
	p.Variants[0].Images = []editor.VariantImage{{URL: "https://cdn/c.jpg"}}

	id := uuid.New()
	if err := store.Save(ctx, Snapshot{ID: id, Kind: KindManage, Query: "Cumin", Message: MsgLoaded, Product: p}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Kind != KindManage || got.Query != "Cumin" || got.Message != MsgLoaded {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if got.Product == nil || got.Product.Name != "Cumin" || got.Product.Variants[0].Images[0].URL != "https://cdn/c.jpg" {
		t.Errorf("unexpected product: %+v", got.Product)
	}

	// saving again updates in place
	if err := store.Save(ctx, Snapshot{ID: id, Kind: KindManage, Message: MsgDeleted}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, _ = store.Load(ctx, id)
	if got.Product != nil || got.Message != MsgDeleted || got.Query != "" {
		t.Errorf("expected cleared snapshot, got %+v", got)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceWithGormSnapshots(t *testing.T) {
	db := setupSnapshotDB(t)
	api := &fakeAPI{}
	svc := NewService(api, editor.NewMemoryPreviews(""), NewGormSnapshots(db), nil)
	ctx := context.Background()

	v, err := svc.Open(ctx, KindCreate)
	if err != nil {
		t.Fatal(err)
	}
	svc.AddVariant(ctx, v.ID)

	var count int64
	db.Model(&models.EditorSession{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 persisted session, got %d", count)
	}

	restarted := NewService(api, editor.NewMemoryPreviews(""), NewGormSnapshots(db), nil)
	got, err := restarted.Get(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Product.Variants) != 2 {
		t.Errorf("expected 2 variants after restore, got %d", len(got.Product.Variants))
	}
}

// countingPreviews counts Release calls on top of an in-memory store.
type countingPreviews struct {
	*editor.MemoryPreviews

	mu       sync.Mutex
	released []string
}

func (c *countingPreviews) Release(ctx context.Context, handle string) error {
	c.mu.Lock()
	c.released = append(c.released, handle)
	c.mu.Unlock()
	return c.MemoryPreviews.Release(ctx, handle)
}

func TestPruneStaleReleasesPreviews(t *testing.T) {
	db := setupSnapshotDB(t)
	previews := &countingPreviews{MemoryPreviews: editor.NewMemoryPreviews("")}
	ctx := context.Background()

	first := NewService(&fakeAPI{}, previews, NewGormSnapshots(db), nil)
	stale, _ := first.Open(ctx, KindCreate)
	first.AddVariantImages(ctx, stale.ID, 1, []editor.File{{Name: "a.png", Content: strings.NewReader("a")}})
	first.SetInvoice(ctx, stale.ID, editor.File{Name: "inv.pdf", Content: strings.NewReader("pdf")})
	fresh, _ := first.Open(ctx, KindCreate)
	first.AddVariantImages(ctx, fresh.ID, 1, []editor.File{{Name: "b.png", Content: strings.NewReader("b")}})

	db.Model(&models.EditorSession{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour))

	// sessions live in this process are not pruned
	if n, err := first.PruneStale(ctx, 24*time.Hour); err != nil || n != 0 {
		t.Fatalf("expected live session kept, pruned %d err %v", n, err)
	}

	restarted := NewService(&fakeAPI{}, previews, NewGormSnapshots(db), nil)
	n, err := restarted.PruneStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned session, got %d", n)
	}
	if len(previews.released) != 2 {
		t.Errorf("expected image and invoice released, got %v", previews.released)
	}
	if previews.Len() != 1 {
		t.Errorf("only the fresh session's preview should remain, %d held", previews.Len())
	}

	if _, err := restarted.Get(ctx, stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected pruned session gone, got %v", err)
	}
	if _, err := restarted.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session should survive, got %v", err)
	}
}

func TestMemorySnapshotsStale(t *testing.T) {
	store := NewMemorySnapshots()
	ctx := context.Background()
	id := uuid.New()
	store.Save(ctx, Snapshot{ID: id, Kind: KindCreate, Product: editor.NewProduct()})

	if got, _ := store.Stale(ctx, time.Now().Add(-time.Hour)); len(got) != 0 {
		t.Errorf("a just-saved snapshot is not stale, got %d", len(got))
	}
	got, _ := store.Stale(ctx, time.Now().Add(time.Hour))
	if len(got) != 1 || got[0].ID != id || got[0].Product == nil {
		t.Errorf("unexpected stale snapshots: %+v", got)
	}
}

package console

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"owner-console/database"
	"owner-console/editor"
	"owner-console/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Snapshot is the persisted state of a session. Busy flags are never stored:
// a restored session starts idle.
type Snapshot struct {
	ID        uuid.UUID
	Kind      Kind
	Query     string
	Message   string
	Product   *editor.Product
	UpdatedAt time.Time
}

type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Stale lists snapshots last saved before cutoff.
	Stale(ctx context.Context, cutoff time.Time) ([]Snapshot, error)
}

// MemorySnapshots is used when no database is configured.
type MemorySnapshots struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Snapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{items: make(map[uuid.UUID]Snapshot)}
}

func (m *MemorySnapshots) Save(ctx context.Context, snap Snapshot) error {
	snap.Product = snap.Product.Clone()
	snap.UpdatedAt = time.Now()
	m.mu.Lock()
	m.items[snap.ID] = snap
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshots) Load(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	snap.Product = snap.Product.Clone()
	return snap, nil
}

func (m *MemorySnapshots) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshots) Stale(ctx context.Context, cutoff time.Time) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Snapshot
	for _, snap := range m.items {
		if snap.UpdatedAt.Before(cutoff) {
			snap.Product = snap.Product.Clone()
			out = append(out, snap)
		}
	}
	return out, nil
}

// GormSnapshots stores sessions in the editor_sessions table.
type GormSnapshots struct {
	DB *gorm.DB
}

func NewGormSnapshots(db *gorm.DB) *GormSnapshots {
	return &GormSnapshots{DB: db}
}

func (g *GormSnapshots) Save(ctx context.Context, snap Snapshot) error {
	var product string
	if snap.Product != nil {
		encoded, err := json.Marshal(snap.Product)
		if err != nil {
			return err
		}
		product = string(encoded)
	}

	rec := models.EditorSession{
		ID:      snap.ID,
		Kind:    string(snap.Kind),
		Query:   snap.Query,
		Message: snap.Message,
		Product: product,
	}
	return g.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "query", "message", "product", "updated_at"}),
	}).Create(&rec).Error
}

func (g *GormSnapshots) Load(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	var rec models.EditorSession
	if err := g.DB.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, ErrSessionNotFound
		}
		return Snapshot{}, err
	}
	return decodeSession(rec)
}

// Stale decodes every row older than cutoff. A row whose product cannot be
// decoded is still returned, without a product, so it can be pruned.
func (g *GormSnapshots) Stale(ctx context.Context, cutoff time.Time) ([]Snapshot, error) {
	rows, err := database.StaleSessions(g.DB.WithContext(ctx), cutoff)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(rows))
	for _, rec := range rows {
		snap, err := decodeSession(rec)
		if err != nil {
			snap.Product = nil
		}
		out = append(out, snap)
	}
	return out, nil
}

func decodeSession(rec models.EditorSession) (Snapshot, error) {
	snap := Snapshot{
		ID:        rec.ID,
		Kind:      Kind(rec.Kind),
		Query:     rec.Query,
		Message:   rec.Message,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Product != "" {
		var p editor.Product
		if err := json.Unmarshal([]byte(rec.Product), &p); err != nil {
			return snap, err
		}
		snap.Product = &p
	}
	return snap, nil
}

func (g *GormSnapshots) Delete(ctx context.Context, id uuid.UUID) error {
	return g.DB.WithContext(ctx).Delete(&models.EditorSession{}, "id = ?", id).Error
}

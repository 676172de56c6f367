package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"owner-console/editor"

	"github.com/google/uuid"
)

// Kind distinguishes the create flow from the fetch/update/delete flow.
type Kind string

const (
	KindCreate Kind = "create"
	KindManage Kind = "manage"
)

func (k Kind) Valid() bool {
	return k == KindCreate || k == KindManage
}

// Operation names one remote call tracked by a busy flag.
type Operation string

const (
	OpCreate Operation = "create"
	OpFetch  Operation = "fetch"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var operations = []Operation{OpCreate, OpFetch, OpUpdate, OpDelete}

var (
	ErrSessionNotFound   = errors.New("editor session not found")
	ErrOperationInFlight = errors.New("another operation is in progress for this product")
	ErrNotConfirmed      = errors.New("delete not confirmed")
	ErrNoProduct         = errors.New("no product loaded")
	ErrWrongKind         = errors.New("operation not available for this session")
	ErrBlankQuery        = errors.New("search query is blank")
	ErrInvalidKind       = errors.New("invalid session kind")
)

// Session is one editor form: a single product, its busy flags and the most
// recent status message. The mutex guards every field.
type Session struct {
	ID   uuid.UUID
	Kind Kind

	mu        sync.Mutex
	product   *editor.Product
	query     string
	message   string
	busy      map[Operation]bool
	updatedAt time.Time
	closed    bool
}

// View is a point-in-time copy of a session, safe to serialize.
type View struct {
	ID        uuid.UUID          `json:"id"`
	Kind      Kind               `json:"kind"`
	Product   *editor.Product    `json:"product"`
	Query     string             `json:"query"`
	Message   string             `json:"message"`
	Busy      map[Operation]bool `json:"busy"`
	InFlight  bool               `json:"inFlight"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func newSession(id uuid.UUID, kind Kind) *Session {
	s := &Session{
		ID:        id,
		Kind:      kind,
		busy:      make(map[Operation]bool, len(operations)),
		updatedAt: time.Now(),
	}
	if kind == KindCreate {
		s.product = editor.NewProduct()
	}
	return s
}

func restoreSession(snap Snapshot) *Session {
	return &Session{
		ID:        snap.ID,
		Kind:      snap.Kind,
		product:   snap.Product,
		query:     snap.Query,
		message:   snap.Message,
		busy:      make(map[Operation]bool, len(operations)),
		updatedAt: snap.UpdatedAt,
	}
}

// inFlight must be called with mu held.
func (s *Session) inFlight() bool {
	for _, busy := range s.busy {
		if busy {
			return true
		}
	}
	return false
}

// begin marks op busy. It fails if any operation is already in flight, so
// overlapping fetch/update/delete calls on one product are rejected rather
// than racing. prepare runs under the lock before the flag is raised.
func (s *Session) begin(op Operation, prepare func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionNotFound
	}
	if s.inFlight() {
		return ErrOperationInFlight
	}
	if prepare != nil {
		if err := prepare(); err != nil {
			return err
		}
	}
	s.busy[op] = true
	s.message = ""
	return nil
}

// end clears the busy flag and applies the outcome under the lock.
func (s *Session) end(op Operation, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy[op] = false
	if apply != nil {
		apply()
	}
	s.updatedAt = time.Now()
}

// edit runs fn against the product unless a remote operation is in flight.
func (s *Session) edit(fn func(p *editor.Product) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionNotFound
	}
	if s.inFlight() {
		return ErrOperationInFlight
	}
	if s.product == nil {
		return ErrNoProduct
	}
	if err := fn(s.product); err != nil {
		return err
	}
	s.updatedAt = time.Now()
	return nil
}

func (s *Session) view() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	busy := make(map[Operation]bool, len(operations))
	for _, op := range operations {
		busy[op] = s.busy[op]
	}
	return View{
		ID:        s.ID,
		Kind:      s.Kind,
		Product:   s.product.Clone(),
		Query:     s.query,
		Message:   s.message,
		Busy:      busy,
		InFlight:  s.inFlight(),
		UpdatedAt: s.updatedAt,
	}
}

// close marks the session discarded and hands back its product. It fails while
// a remote operation is in flight.
func (s *Session) close() (*editor.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionNotFound
	}
	if s.inFlight() {
		return nil, ErrOperationInFlight
	}
	s.closed = true
	product := s.product
	s.product = nil
	return product, nil
}

// save writes the session to store while holding its lock, so a save can
// never land after close.
func (s *Session) save(ctx context.Context, store SnapshotStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return store.Save(ctx, s.snapshotLocked())
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:      s.ID,
		Kind:    s.Kind,
		Query:   s.query,
		Message: s.message,
		Product: s.product.Clone(),
	}
}

package console

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"owner-console/editor"
	"owner-console/mapping"
	"owner-console/ownerapi"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status messages shown to the owner after each remote operation.
const (
	MsgLoaded         = "Product loaded successfully."
	MsgNotFound       = "Product not found."
	MsgNetworkError   = "Network error."
	MsgUpdated        = "Product updated successfully."
	MsgUpdateFailed   = "Update failed."
	MsgDeleted        = "Product deleted successfully."
	MsgDeleteFailed   = "Delete failed."
	MsgCreated        = "Product added successfully!"
	MsgCreateFailed   = "Failed to add product. Please try again."
	MsgMissingSession = "Owner session expired. Please log in again."
	MsgBlankQuery     = "Please enter product name or ID."
)

// OwnerAPI is the subset of the owner REST client the console drives.
type OwnerAPI interface {
	CreateProduct(ctx context.Context, payload mapping.CreatePayload, files ownerapi.PreviewOpener) (json.RawMessage, error)
	FetchProduct(ctx context.Context, query string) (json.RawMessage, error)
	UpdateProduct(ctx context.Context, id string, payload mapping.UpdatePayload) (json.RawMessage, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Service owns the live editor sessions and runs their remote operations.
type Service struct {
	api       OwnerAPI
	previews  editor.PreviewStore
	snapshots SnapshotStore
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	// discards counts removed sessions; a restore that raced one is retried.
	discards uint64
}

func NewService(api OwnerAPI, previews editor.PreviewStore, snapshots SnapshotStore, log *zap.Logger) *Service {
	if snapshots == nil {
		snapshots = NewMemorySnapshots()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		api:       api,
		previews:  previews,
		snapshots: snapshots,
		log:       log,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Open starts a new editor session. Create sessions begin with an empty
// product holding one blank variant; manage sessions begin with none.
func (s *Service) Open(ctx context.Context, kind Kind) (View, error) {
	if !kind.Valid() {
		return View{}, ErrInvalidKind
	}
	sess := newSession(uuid.New(), kind)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.persist(ctx, sess)
	s.log.Info("editor session opened", zap.String("session", sess.ID.String()), zap.String("kind", string(kind)))
	return sess.view(), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	return sess.view(), nil
}

// Discard closes a session and releases every preview it still holds. The
// snapshot is deleted before the previews are released.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	sess, err := s.session(ctx, id)
	if err != nil {
		return err
	}
	product, err := sess.close()
	if err != nil {
		return err
	}

	err = s.snapshots.Delete(ctx, id)
	s.forget(id)

	if rerr := product.Release(ctx, s.previews); rerr != nil {
		s.log.Warn("failed to release previews", zap.String("session", id.String()), zap.Error(rerr))
	}
	return err
}

// PruneStale removes saved sessions untouched for longer than maxAge and
// releases the previews they held. Sessions live in this process are kept.
func (s *Service) PruneStale(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.snapshots.Stale(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, snap := range stale {
		s.mu.Lock()
		_, live := s.sessions[snap.ID]
		s.mu.Unlock()
		if live {
			continue
		}

		if err := s.snapshots.Delete(ctx, snap.ID); err != nil {
			return pruned, err
		}
		s.forget(snap.ID)
		if err := snap.Product.Release(ctx, s.previews); err != nil {
			s.log.Warn("failed to release previews", zap.String("session", snap.ID.String()), zap.Error(err))
		}
		pruned++
	}
	return pruned, nil
}

func (s *Service) forget(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.discards++
	s.mu.Unlock()
}

// session returns the live session for id, restoring it from its snapshot
// when this process has not seen it. The snapshot is loaded without holding
// s.mu.
func (s *Service) session(ctx context.Context, id uuid.UUID) (*Session, error) {
	for {
		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok {
			s.mu.Unlock()
			return sess, nil
		}
		gen := s.discards
		s.mu.Unlock()

		snap, err := s.snapshots.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		dropped, err := snap.Product.DropMissingPreviews(ctx, s.previews)
		if err != nil {
			s.log.Warn("could not check restored previews", zap.String("session", id.String()), zap.Error(err))
		}

		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok {
			s.mu.Unlock()
			return sess, nil
		}
		if s.discards != gen {
			s.mu.Unlock()
			continue
		}
		sess := restoreSession(snap)
		s.sessions[id] = sess
		s.mu.Unlock()

		if dropped > 0 {
			s.log.Info("dropped expired previews from restored session",
				zap.String("session", id.String()), zap.Int("count", dropped))
			s.persist(ctx, sess)
		}
		return sess, nil
	}
}

func (s *Service) persist(ctx context.Context, sess *Session) {
	if err := sess.save(ctx, s.snapshots); err != nil {
		s.log.Warn("failed to persist editor session", zap.String("session", sess.ID.String()), zap.Error(err))
	}
}

// edit applies fn under the session's guard and persists the result.
func (s *Service) edit(ctx context.Context, id uuid.UUID, fn func(p *editor.Product) error) (View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := sess.edit(fn); err != nil {
		return sess.view(), err
	}
	s.persist(ctx, sess)
	return sess.view(), nil
}

func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, patch editor.DetailsPatch) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		p.UpdateDetails(patch)
		return nil
	})
}

func (s *Service) AddVariant(ctx context.Context, id uuid.UUID) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		_, err := p.AddVariant()
		return err
	})
}

func (s *Service) RemoveVariant(ctx context.Context, id uuid.UUID, variantID int) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		_, err := p.RemoveVariant(ctx, variantID, s.previews)
		return err
	})
}

func (s *Service) UpdateVariantField(ctx context.Context, id uuid.UUID, variantID int, field, value string) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		return p.UpdateVariantField(variantID, field, value)
	})
}

func (s *Service) AddVariantImages(ctx context.Context, id uuid.UUID, variantID int, files []editor.File) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		_, err := p.AddVariantImages(ctx, variantID, files, s.previews)
		return err
	})
}

func (s *Service) RemoveVariantImage(ctx context.Context, id uuid.UUID, variantID, index int) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		return p.RemoveVariantImage(ctx, variantID, index, s.previews)
	})
}

func (s *Service) SetInvoice(ctx context.Context, id uuid.UUID, f editor.File) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		_, err := p.SetInvoice(ctx, f, s.previews)
		return err
	})
}

func (s *Service) ClearInvoice(ctx context.Context, id uuid.UUID) (View, error) {
	return s.edit(ctx, id, func(p *editor.Product) error {
		return p.ClearInvoice(ctx, s.previews)
	})
}

// Submit sends a create session's product to the owner API.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	if sess.Kind != KindCreate {
		return sess.view(), ErrWrongKind
	}

	var payload mapping.CreatePayload
	err = sess.begin(OpCreate, func() error {
		if sess.product == nil {
			return ErrNoProduct
		}
		var perr error
		payload, perr = mapping.ToCreatePayload(sess.product)
		return perr
	})
	if err != nil {
		return sess.view(), err
	}

	_, err = s.api.CreateProduct(ctx, payload, s.previews)

	sess.end(OpCreate, func() {
		if err != nil {
			sess.message = createFailureMessage(err)
			return
		}
		sess.message = MsgCreated
	})
	s.persist(ctx, sess)

	if err != nil {
		s.log.Warn("product create failed", zap.String("session", id.String()), zap.Error(err))
		return sess.view(), err
	}
	s.log.Info("product created", zap.String("session", id.String()), zap.String("name", payload.Name))
	return sess.view(), nil
}

// Search loads a product by name or id into a manage session. Any failure
// clears the previously loaded product.
func (s *Service) Search(ctx context.Context, id uuid.UUID, query string) (View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	if sess.Kind != KindManage {
		return sess.view(), ErrWrongKind
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return sess.view(), ErrBlankQuery
	}

	if err := sess.begin(OpFetch, func() error {
		sess.query = query
		return nil
	}); err != nil {
		return sess.view(), err
	}

	var product *editor.Product
	raw, err := s.api.FetchProduct(ctx, query)
	if err == nil {
		product, err = mapping.FromBackendDocument(raw)
	}

	var stale *editor.Product
	sess.end(OpFetch, func() {
		stale = sess.product
		if err != nil {
			sess.product = nil
			sess.message = failureMessage(err, MsgNotFound)
			return
		}
		sess.product = product
		sess.message = MsgLoaded
	})
	s.release(ctx, stale, product)
	s.persist(ctx, sess)

	if err != nil {
		s.log.Info("product lookup failed", zap.String("query", query), zap.Error(err))
		return sess.view(), err
	}
	return sess.view(), nil
}

// Update sends the loaded product's edits and then reloads it by id. A failed
// reload keeps the values that were just sent.
func (s *Service) Update(ctx context.Context, id uuid.UUID) (View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	if sess.Kind != KindManage {
		return sess.view(), ErrWrongKind
	}

	var (
		payload mapping.UpdatePayload
		target  string
	)
	err = sess.begin(OpUpdate, func() error {
		if sess.product == nil {
			return ErrNoProduct
		}
		var perr error
		payload, perr = mapping.ToUpdatePayload(sess.product)
		target = productTarget(sess.product, sess.query)
		return perr
	})
	if err != nil {
		return sess.view(), err
	}

	_, err = s.api.UpdateProduct(ctx, target, payload)
	if err != nil {
		sess.end(OpUpdate, func() {
			sess.message = failureMessage(err, MsgUpdateFailed)
		})
		s.persist(ctx, sess)
		s.log.Warn("product update failed", zap.String("product", target), zap.Error(err))
		return sess.view(), err
	}

	var doc mapping.Document
	raw, rerr := s.api.FetchProduct(ctx, target)
	if rerr == nil {
		doc, rerr = mapping.DecodeDocument(raw)
	}
	if rerr != nil {
		s.log.Warn("product reload after update failed", zap.String("product", target), zap.Error(rerr))
	}

	var stale, merged *editor.Product
	sess.end(OpUpdate, func() {
		sess.message = MsgUpdated
		if rerr != nil {
			return
		}
		stale = sess.product
		merged = mapping.MergeReloaded(sess.product, doc)
		sess.product = merged
	})
	s.release(ctx, stale, merged)
	s.persist(ctx, sess)

	s.log.Info("product updated", zap.String("product", target))
	return sess.view(), nil
}

// Delete removes the loaded product. Without confirmation nothing is sent and
// the session is left untouched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, confirmed bool) (View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	if sess.Kind != KindManage {
		return sess.view(), ErrWrongKind
	}

	sess.mu.Lock()
	loaded := sess.product != nil
	sess.mu.Unlock()
	if !loaded {
		return sess.view(), ErrNoProduct
	}
	if !confirmed {
		return sess.view(), ErrNotConfirmed
	}

	var target string
	err = sess.begin(OpDelete, func() error {
		if sess.product == nil {
			return ErrNoProduct
		}
		target = productTarget(sess.product, sess.query)
		return nil
	})
	if err != nil {
		return sess.view(), err
	}

	err = s.api.DeleteProduct(ctx, target)

	var stale *editor.Product
	sess.end(OpDelete, func() {
		if err != nil {
			sess.message = failureMessage(err, MsgDeleteFailed)
			return
		}
		stale = sess.product
		sess.product = nil
		sess.query = ""
		sess.message = MsgDeleted
	})
	s.release(ctx, stale, nil)
	s.persist(ctx, sess)

	if err != nil {
		s.log.Warn("product delete failed", zap.String("product", target), zap.Error(err))
		return sess.view(), err
	}
	s.log.Info("product deleted", zap.String("product", target))
	return sess.view(), nil
}

// release frees the previews held by prev that next no longer references.
func (s *Service) release(ctx context.Context, prev, next *editor.Product) {
	if prev == nil || s.previews == nil {
		return
	}
	keep := make(map[string]struct{})
	if next != nil {
		for _, pv := range next.Previews() {
			keep[pv.Handle] = struct{}{}
		}
	}
	for _, pv := range prev.Previews() {
		if _, ok := keep[pv.Handle]; ok {
			continue
		}
		if err := s.previews.Release(ctx, pv.Handle); err != nil {
			s.log.Warn("failed to release preview", zap.String("handle", pv.Handle), zap.Error(err))
		}
	}
}

func productTarget(p *editor.Product, query string) string {
	if p != nil && p.ID != "" {
		return p.ID
	}
	return query
}

func failureMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, ownerapi.ErrMissingToken):
		return MsgMissingSession
	case errors.Is(err, ownerapi.ErrTransport):
		return MsgNetworkError
	}
	if msg := ownerapi.MessageFrom(err); msg != "" {
		return msg
	}
	return fallback
}

// createFailureMessage surfaces only the body's "message" field, matching the
// add-product form.
func createFailureMessage(err error) string {
	if errors.Is(err, ownerapi.ErrMissingToken) {
		return MsgMissingSession
	}
	var apiErr *ownerapi.APIError
	if errors.As(err, &apiErr) && apiErr.MessageText != "" {
		return apiErr.MessageText
	}
	return MsgCreateFailed
}

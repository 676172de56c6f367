package editor

import (
	"context"
	"errors"
)

// AddVariant appends a blank variant whose id is one past the current maximum.
func (p *Product) AddVariant() (Variant, error) {
	if len(p.Variants) == 0 {
		return Variant{}, ErrEmptyVariantList
	}
	maxID := p.Variants[0].ID
	for _, v := range p.Variants[1:] {
		if v.ID > maxID {
			maxID = v.ID
		}
	}
	v := NewVariant(maxID + 1)
	p.Variants = append(p.Variants, v)
	return v, nil
}

// RemoveVariant drops the variant with the given id and releases its previews.
// The last remaining variant is never removed; that case reports false with no error.
func (p *Product) RemoveVariant(ctx context.Context, id int, store PreviewStore) (bool, error) {
	if len(p.Variants) <= 1 {
		return false, nil
	}

	idx := -1
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrVariantNotFound
	}

	removed := p.Variants[idx]
	p.Variants = append(p.Variants[:idx], p.Variants[idx+1:]...)
	return true, releaseImages(ctx, store, removed.Images)
}

// UpdateVariantField replaces a single field without validating its value.
func (p *Product) UpdateVariantField(id int, field, value string) error {
	v, err := p.Variant(id)
	if err != nil {
		return err
	}

	switch field {
	case FieldType:
		v.Type = value
	case FieldActualPrice:
		v.ActualPrice = value
	case FieldDiscountPrice:
		v.DiscountPrice = value
	case FieldQuantity:
		v.Quantity = value
	case FieldSKUCode:
		v.SKUCode = value
	case FieldBarCode:
		v.BarCode = value
	default:
		return ErrUnknownField
	}
	return nil
}

// AddVariantImages acquires a preview per file and appends them to the variant.
// Either every file is attached or none is.
func (p *Product) AddVariantImages(ctx context.Context, id int, files []File, store PreviewStore) ([]Preview, error) {
	if store == nil {
		return nil, ErrNoPreviewStore
	}
	v, err := p.Variant(id)
	if err != nil {
		return nil, err
	}

	acquired := make([]Preview, 0, len(files))
	for _, f := range files {
		pv, err := store.Acquire(ctx, f.Name, f.ContentType, f.Content)
		if err != nil {
			for _, a := range acquired {
				_ = store.Release(ctx, a.Handle)
			}
			return nil, err
		}
		acquired = append(acquired, pv)
	}

	for i := range acquired {
		pv := acquired[i]
		v.Images = append(v.Images, VariantImage{Preview: &pv})
	}
	return acquired, nil
}

// RemoveVariantImage removes one image by position, releasing it if it is a preview.
func (p *Product) RemoveVariantImage(ctx context.Context, id, index int, store PreviewStore) error {
	v, err := p.Variant(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(v.Images) {
		return ErrImageIndex
	}

	removed := v.Images[index]
	v.Images = append(v.Images[:index], v.Images[index+1:]...)
	return releaseImages(ctx, store, []VariantImage{removed})
}

// SetInvoice attaches an invoice file, releasing whichever one it replaces.
func (p *Product) SetInvoice(ctx context.Context, f File, store PreviewStore) (Preview, error) {
	if store == nil {
		return Preview{}, ErrNoPreviewStore
	}
	pv, err := store.Acquire(ctx, f.Name, f.ContentType, f.Content)
	if err != nil {
		return Preview{}, err
	}
	old := p.Invoice
	p.Invoice = &pv
	if old != nil {
		if err := store.Release(ctx, old.Handle); err != nil {
			return pv, err
		}
	}
	return pv, nil
}

func (p *Product) ClearInvoice(ctx context.Context, store PreviewStore) error {
	if p.Invoice == nil {
		return nil
	}
	old := p.Invoice
	p.Invoice = nil
	if store == nil {
		return nil
	}
	return store.Release(ctx, old.Handle)
}

// Release frees every preview the product holds. Call it when the form is discarded.
func (p *Product) Release(ctx context.Context, store PreviewStore) error {
	if p == nil || store == nil {
		return nil
	}
	var errs []error
	for _, pv := range p.Previews() {
		if err := store.Release(ctx, pv.Handle); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DropMissingPreviews removes every pending image and the invoice whose bytes
// the store no longer holds, and returns how many were dropped. Other store
// errors leave the entry in place.
func (p *Product) DropMissingPreviews(ctx context.Context, store PreviewStore) (int, error) {
	if p == nil || store == nil {
		return 0, nil
	}
	var errs []error
	missing := func(pv *Preview) bool {
		_, err := store.Stat(ctx, pv.Handle)
		if err != nil && !errors.Is(err, ErrPreviewNotFound) {
			errs = append(errs, err)
		}
		return errors.Is(err, ErrPreviewNotFound)
	}

	dropped := 0
	for i := range p.Variants {
		kept := p.Variants[i].Images[:0]
		for _, img := range p.Variants[i].Images {
			if img.Preview != nil && missing(img.Preview) {
				dropped++
				continue
			}
			kept = append(kept, img)
		}
		p.Variants[i].Images = kept
	}
	if p.Invoice != nil && missing(p.Invoice) {
		p.Invoice = nil
		dropped++
	}
	return dropped, errors.Join(errs...)
}

func releaseImages(ctx context.Context, store PreviewStore, images []VariantImage) error {
	if store == nil {
		return nil
	}
	var errs []error
	for _, img := range images {
		if img.Preview == nil {
			continue
		}
		if err := store.Release(ctx, img.Preview.Handle); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

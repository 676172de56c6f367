package editor

import (
	"errors"
)

var (
	ErrVariantNotFound  = errors.New("variant not found")
	ErrEmptyVariantList = errors.New("variant list is empty")
	ErrUnknownField     = errors.New("unknown variant field")
	ErrImageIndex       = errors.New("image index out of range")
	ErrPreviewNotFound  = errors.New("preview not found")
	ErrNoPreviewStore   = errors.New("preview store not configured")
)

// Editable variant fields, keyed the way the console form names them.
const (
	FieldType          = "type"
	FieldActualPrice   = "actualPrice"
	FieldDiscountPrice = "discountPrice"
	FieldQuantity      = "quantity"
	FieldSKUCode       = "skuCode"
	FieldBarCode       = "barCode"
)

// Product is the console-side shape of one catalog product.
type Product struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsImported  bool      `json:"isImported"`
	Brand       string    `json:"brand,omitempty"`
	Images      []string  `json:"images"`
	Variants    []Variant `json:"variants"`
	Invoice     *Preview  `json:"invoice,omitempty"`
}

// Variant holds numeric fields as strings until submission; "" means unset.
type Variant struct {
	ID            int            `json:"id"`
	BackendID     string         `json:"backendId,omitempty"`
	Type          string         `json:"type"`
	ActualPrice   string         `json:"actualPrice"`
	DiscountPrice string         `json:"discountPrice"`
	Quantity      string         `json:"quantity"`
	SKUCode       string         `json:"skuCode"`
	BarCode       string         `json:"barCode"`
	Images        []VariantImage `json:"images"`
}

// VariantImage is either an already persisted URL or a pending local preview.
type VariantImage struct {
	URL     string   `json:"url,omitempty"`
	Preview *Preview `json:"preview,omitempty"`
}

// DisplayURL returns whatever the console should render for the image.
func (vi VariantImage) DisplayURL() string {
	if vi.Preview != nil {
		return vi.Preview.URL
	}
	return vi.URL
}

// DetailsPatch carries a partial update of the product-level fields.
type DetailsPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsImported  *bool   `json:"isImported"`
	Brand       *string `json:"brand"`
}

// NewVariant returns a blank variant with the given local id.
func NewVariant(id int) Variant {
	return Variant{ID: id, Images: []VariantImage{}}
}

// NewProduct returns an empty product with a single blank variant.
func NewProduct() *Product {
	return &Product{
		Images:   []string{},
		Variants: []Variant{NewVariant(1)},
	}
}

// UpdateDetails applies the non-nil fields of patch.
func (p *Product) UpdateDetails(patch DetailsPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.IsImported != nil {
		p.IsImported = *patch.IsImported
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
}

// Variant returns a pointer to the variant with the given local id.
func (p *Product) Variant(id int) (*Variant, error) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], nil
		}
	}
	return nil, ErrVariantNotFound
}

// Previews lists every pending preview held by the product, invoice included.
func (p *Product) Previews() []Preview {
	var out []Preview
	for _, v := range p.Variants {
		for _, img := range v.Images {
			if img.Preview != nil {
				out = append(out, *img.Preview)
			}
		}
	}
	if p.Invoice != nil {
		out = append(out, *p.Invoice)
	}
	return out
}

// Clone returns a deep copy so callers can keep a pre-operation snapshot.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Images = append([]string{}, p.Images...)
	cp.Variants = make([]Variant, len(p.Variants))
	for i, v := range p.Variants {
		cv := v
		cv.Images = make([]VariantImage, len(v.Images))
		for j, img := range v.Images {
			ci := img
			if img.Preview != nil {
				pv := *img.Preview
				ci.Preview = &pv
			}
			cv.Images[j] = ci
		}
		cp.Variants[i] = cv
	}
	if p.Invoice != nil {
		inv := *p.Invoice
		cp.Invoice = &inv
	}
	return &cp
}

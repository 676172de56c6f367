package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"owner-console/editor"

	"github.com/shopspring/decimal"
)

// DefaultBrand is sent when the product carries no brand of its own.
const DefaultBrand = "generic"

var ErrNotANumber = errors.New("not a number")

// FieldError reports a variant field that could not be converted for the backend.
type FieldError struct {
	VariantID int
	Field     string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("variant %d: %s %q: %v", e.VariantID, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// VariantPayload is one element of the JSON-encoded "variants" create field.
type VariantPayload struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	SKU      string  `json:"sku"`
	Barcode  string  `json:"barcode"`
}

// CreatePayload is the multipart submission for a new product.
type CreatePayload struct {
	Name        string
	Description string
	IsImported  string
	Brand       string
	Variants    string
	Images      []editor.Preview
	Invoice     *editor.Preview
}

// Fields returns the plain form fields in submission order.
func (c CreatePayload) Fields() [][2]string {
	return [][2]string{
		{"name", c.Name},
		{"description", c.Description},
		{"isImported", c.IsImported},
		{"brand", c.Brand},
		{"variants", c.Variants},
	}
}

// UpdateVariant is the backend variant shape sent on PATCH.
type UpdateVariant struct {
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
	Quantity      int64    `json:"quantity"`
	SKU           string   `json:"sku"`
	Barcode       string   `json:"barcode"`
}

// UpdatePayload is the partial JSON document sent on PATCH.
type UpdatePayload struct {
	ProdName    string          `json:"prodName"`
	Description string          `json:"description"`
	Variants    []UpdateVariant `json:"variants"`
}

// ToCreatePayload converts the console product into the create submission.
// Every variant preview is flattened into the product-level image list; the
// backend has no per-variant image association.
func ToCreatePayload(p *editor.Product) (CreatePayload, error) {
	variants := make([]VariantPayload, 0, len(p.Variants))
	var images []editor.Preview

	for _, v := range p.Variants {
		price, err := parsePrice(v.ID, editor.FieldActualPrice, v.ActualPrice)
		if err != nil {
			return CreatePayload{}, err
		}
		qty, err := parseQuantity(v.ID, v.Quantity)
		if err != nil {
			return CreatePayload{}, err
		}
		variants = append(variants, VariantPayload{
			Name:     v.Type,
			Price:    price,
			Quantity: qty,
			SKU:      v.SKUCode,
			Barcode:  v.BarCode,
		})
		for _, img := range v.Images {
			if img.Preview != nil {
				images = append(images, *img.Preview)
			}
		}
	}

	encoded, err := json.Marshal(variants)
	if err != nil {
		return CreatePayload{}, err
	}

	brand := strings.TrimSpace(p.Brand)
	if brand == "" {
		brand = DefaultBrand
	}

	return CreatePayload{
		Name:        p.Name,
		Description: p.Description,
		IsImported:  strconv.FormatBool(p.IsImported),
		Brand:       brand,
		Variants:    string(encoded),
		Images:      images,
		Invoice:     p.Invoice,
	}, nil
}

// ToUpdatePayload converts the console product into the PATCH body.
// Images are not part of it.
func ToUpdatePayload(p *editor.Product) (UpdatePayload, error) {
	out := UpdatePayload{
		ProdName:    p.Name,
		Description: p.Description,
		Variants:    make([]UpdateVariant, 0, len(p.Variants)),
	}

	for _, v := range p.Variants {
		price, err := parsePrice(v.ID, editor.FieldActualPrice, v.ActualPrice)
		if err != nil {
			return UpdatePayload{}, err
		}
		qty, err := parseQuantity(v.ID, v.Quantity)
		if err != nil {
			return UpdatePayload{}, err
		}

		uv := UpdateVariant{
			Name:     v.Type,
			Price:    price,
			Quantity: qty,
			SKU:      v.SKUCode,
			Barcode:  v.BarCode,
		}
		if strings.TrimSpace(v.DiscountPrice) != "" {
			discount, err := parsePrice(v.ID, editor.FieldDiscountPrice, v.DiscountPrice)
			if err != nil {
				return UpdatePayload{}, err
			}
			uv.DiscountPrice = &discount
		}
		out.Variants = append(out.Variants, uv)
	}
	return out, nil
}

func parsePrice(variantID int, field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, &FieldError{VariantID: variantID, Field: field, Value: raw, Err: ErrNotANumber}
	}
	return d.InexactFloat64(), nil
}

func parseQuantity(variantID int, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &FieldError{VariantID: variantID, Field: editor.FieldQuantity, Value: raw, Err: ErrNotANumber}
	}
	return n, nil
}

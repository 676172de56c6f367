package mapping

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"owner-console/editor"
)

// Document is a backend product document decoded with json.Number preserved.
type Document map[string]any

// DecodeDocument parses a raw backend product document.
func DecodeDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// FromBackendDocument decodes raw and normalizes it into the console product.
func FromBackendDocument(raw []byte) (*editor.Product, error) {
	doc, err := DecodeDocument(raw)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc), nil
}

// FromDocument never fails on missing optional fields. A document without
// variants yields exactly one blank variant.
func FromDocument(doc Document) *editor.Product {
	p := &editor.Product{
		ID:          documentID(doc),
		Name:        firstString(doc, "prodName", "name"),
		Description: firstString(doc, "description"),
		IsImported:  truthy(doc["imported"]),
		Brand:       firstString(doc, "brand"),
		Images:      NormalizeImages(doc["images"]),
	}

	variants := mapVariants(doc["variants"])
	if len(variants) == 0 {
		variants = []editor.Variant{editor.NewVariant(1)}
	}
	p.Variants = variants
	return p
}

// MergeReloaded folds a freshly fetched document over the state that was just
// saved. Blank names and descriptions, and an empty variant list, keep the
// previous values.
func MergeReloaded(prev *editor.Product, doc Document) *editor.Product {
	next := prev.Clone()
	if next == nil {
		next = editor.NewProduct()
	}

	if id := documentID(doc); id != "" {
		next.ID = id
	}
	if name := firstString(doc, "prodName", "name"); name != "" {
		next.Name = name
	}
	if desc := firstString(doc, "description"); desc != "" {
		next.Description = desc
	}
	next.IsImported = truthy(doc["imported"])
	next.Images = NormalizeImages(doc["images"])
	if variants := mapVariants(doc["variants"]); len(variants) > 0 {
		next.Variants = variants
	}
	return next
}

// NormalizeImages accepts plain strings, {url}, {data} (http URLs only) and
// {filePath|file|filename} objects. Entries that yield no URL are dropped.
func NormalizeImages(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if u := imageURL(item); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func imageURL(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		if u, ok := v["url"].(string); ok && u != "" {
			return u
		}
		if d, ok := v["data"].(string); ok && strings.HasPrefix(d, "http") {
			return d
		}
		return firstString(v, "filePath", "file", "filename")
	}
	return ""
}

func mapVariants(v any) []editor.Variant {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]editor.Variant, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		vi := editor.NewVariant(len(out) + 1)
		vi.BackendID = documentID(raw)
		vi.Type = firstString(raw, "name", "form")
		vi.ActualPrice = numberString(raw["price"])
		vi.DiscountPrice = numberString(raw["discountPrice"])
		vi.Quantity = numberString(raw["quantity"])
		vi.SKUCode = firstString(raw, "sku")
		vi.BarCode = firstString(raw, "barcode")
		for _, u := range NormalizeImages(raw["images"]) {
			vi.Images = append(vi.Images, editor.VariantImage{URL: u})
		}
		out = append(out, vi)
	}
	return out
}

// documentID reads "_id" (plain or extended-JSON {"$oid": ...}) or "id".
func documentID(m map[string]any) string {
	for _, key := range []string{"_id", "id"} {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case map[string]any:
			if oid, ok := v["$oid"].(string); ok && oid != "" {
				return oid
			}
		}
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func numberString(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	}
	return ""
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	case float64:
		return b != 0
	case nil:
		return false
	}
	return true
}

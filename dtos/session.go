package dtos

import "owner-console/editor"

type OpenSessionRequest struct {
	Kind string `json:"kind" binding:"required,oneof=create manage"`
}

// ProductDetailsRequest is a partial update; omitted fields are left alone.
type ProductDetailsRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	IsImported  *bool   `json:"isImported"`
	Brand       *string `json:"brand" binding:"omitempty,max=100"`
}

func (r ProductDetailsRequest) Patch() editor.DetailsPatch {
	return editor.DetailsPatch{
		Name:        r.Name,
		Description: r.Description,
		IsImported:  r.IsImported,
		Brand:       r.Brand,
	}
}

// VariantFieldRequest sets one variant field. Values are kept as typed;
// numeric fields are only checked on submission.
type VariantFieldRequest struct {
	Field string `json:"field" binding:"required,oneof=type actualPrice discountPrice quantity skuCode barCode"`
	Value string `json:"value" binding:"max=500"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type DeleteProductRequest struct {
	Confirmed bool `json:"confirmed"`
}

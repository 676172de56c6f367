package dtos

import (
	"encoding/json"
	"strings"

	"owner-console/utils"
)

// Trimmed is a string whose surrounding whitespace is dropped while decoding,
// so a field holding only spaces fails "required".
type Trimmed string

func (t *Trimmed) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = Trimmed(strings.TrimSpace(s))
	return nil
}

// StockistRequest is a retailer onboarding form. It is forwarded to the owner
// API as-is once valid. The password is kept exactly as typed.
type StockistRequest struct {
	Name         Trimmed `json:"name" binding:"required"`
	Contact      Trimmed `json:"contact" binding:"required,digits10"`
	Email        Trimmed `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,notblank,min=6"`
	RetailerCode Trimmed `json:"retailerCode" binding:"required"`
	Country      Trimmed `json:"country" binding:"required,country"`
	State        Trimmed `json:"state" binding:"required"`
	UpiID        Trimmed `json:"upiId" binding:"omitempty,upi"`
	GstIn        Trimmed `json:"gstIn"`
}

// StockistMessages are the per-field messages shown on the stockist form.
var StockistMessages = utils.FieldMessages{
	"name": {"required": "Name is required"},
	"contact": {
		"required": "Contact is required",
		"digits10": "Contact must be 10 digits",
	},
	"email": {
		"required": "Email is required",
		"email":    "Email is invalid",
	},
	"password": {
		"required": "Password is required",
		"notblank": "Password is required",
		"min":      "Password must be at least 6 characters",
	},
	"retailerCode": {"required": "Retailer code is required"},
	"country": {
		"required": "Country is required",
		"country":  "Country is not supported",
	},
	"state": {"required": "State is required"},
	"upiId": {"upi": "Invalid UPI ID format"},
}

type StockistOptionsResponse struct {
	Countries []string `json:"countries"`
	States    []string `json:"states"`
}

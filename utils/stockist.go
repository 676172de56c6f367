package utils

import (
	"strconv"
	"time"
)

// Countries offered on the stockist form.
var Countries = []string{
	"India", "United States", "United Kingdom", "Canada", "Australia",
	"Germany", "France", "Japan", "Singapore", "UAE",
}

// IndianStates lists states and union territories offered when the country is India.
var IndianStates = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
	"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka",
	"Kerala", "Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram",
	"Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu",
	"Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
	"Delhi", "Jammu and Kashmir", "Ladakh", "Puducherry", "Chandigarh",
	"Andaman and Nicobar Islands", "Dadra and Nagar Haveli and Daman and Diu",
	"Lakshadweep",
}

func IsKnownCountry(name string) bool {
	for _, c := range Countries {
		if c == name {
			return true
		}
	}
	return false
}

// GenerateRetailerCode returns "RET" followed by the last six digits of the
// current Unix time in milliseconds.
func GenerateRetailerCode() string {
	return retailerCodeAt(time.Now())
}

func retailerCodeAt(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "RET" + ms
}

package types

import "strings"

// Address is the shipping destination captured at checkout. It is embedded
// into the orders table rather than modeled as its own aggregate.
type Address struct {
	Line1      string `json:"line1" gorm:"column:line1"`
	City       string `json:"city" gorm:"column:city"`
	PostalCode string `json:"postal_code" gorm:"column:postal_code"`
	Country    string `json:"country" gorm:"column:country"`
}

// Validate reports the missing required fields, if any.
func (a Address) Validate() []string {
	var missing []string
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	return missing
}

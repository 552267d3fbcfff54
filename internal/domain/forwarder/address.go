package forwarder

import "strings"

// ShippingAddress is a postal address used for warehouses and consignees
type ShippingAddress struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Validate checks the fields every provider requires
func (a ShippingAddress) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return invalidRequest("address name is required")
	case strings.TrimSpace(a.AddressLine1) == "":
		return invalidRequest("address line 1 is required")
	case strings.TrimSpace(a.City) == "":
		return invalidRequest("address city is required")
	case strings.TrimSpace(a.PostalCode) == "":
		return invalidRequest("address postal code is required")
	case len(strings.TrimSpace(a.Country)) != 2:
		return invalidRequest("address country must be a two-letter code, got %q", a.Country)
	}
	return nil
}

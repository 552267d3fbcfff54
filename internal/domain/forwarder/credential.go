package forwarder

import (
	"context"
	"strings"
)

// Credential is the per-provider configuration record. One record exists per
// active provider; the core only reads it.
type Credential struct {
	// ProviderName is the lookup key, e.g. "CPass" or "Eloji (UPS)"
	ProviderName string
	// APIKey authenticates requests
	APIKey string
	// APISecret signs requests for providers that require it
	APISecret string
	// APIEndpoint is the provider base URL
	APIEndpoint string
	// WarehouseAddresses lists receiving warehouses, at most one per country is used
	WarehouseAddresses []ShippingAddress
}

// WarehouseFor returns a copy of the first warehouse located in country
func (c *Credential) WarehouseFor(country string) (*ShippingAddress, bool) {
	for _, addr := range c.WarehouseAddresses {
		if strings.EqualFold(addr.Country, strings.TrimSpace(country)) {
			found := addr
			return &found, true
		}
	}
	return nil, false
}

// RequireWarehouse is WarehouseFor that fails with WarehouseNotFoundError
func (c *Credential) RequireWarehouse(country string) (*ShippingAddress, error) {
	addr, ok := c.WarehouseFor(country)
	if !ok {
		return nil, &WarehouseNotFoundError{Provider: c.ProviderName, Country: strings.ToUpper(country)}
	}
	return addr, nil
}

// CredentialStore reads provider credentials.
// GetCredential returns ErrCredentialNotFound when no record exists.
type CredentialStore interface {
	GetCredential(ctx context.Context, providerName string) (*Credential, error)
}

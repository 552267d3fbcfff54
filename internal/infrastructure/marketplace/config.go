package marketplace

import (
	"errors"
	"strings"
	"time"
)

// Config holds the endpoints of the marketplace and supplier APIs
type Config struct {
	// BaseURL is the marketplace API root used for refresh and tracking sync
	BaseURL string
	// APIToken authenticates marketplace calls
	APIToken string
	// SupplierBaseURL is the supplier API root used for purchases
	SupplierBaseURL string
	// SupplierAPIToken authenticates supplier calls
	SupplierAPIToken string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// RequestsPerSecond throttles calls per client; zero disables throttling
	RequestsPerSecond float64
	// Burst is the limiter bucket size
	Burst int
}

// Errors for marketplace configuration
var (
	ErrConfigMissingBaseURL         = errors.New("marketplace: base URL is required")
	ErrConfigMissingAPIToken        = errors.New("marketplace: API token is required")
	ErrConfigMissingSupplierBaseURL = errors.New("marketplace: supplier base URL is required")
)

// DefaultConfig returns a configuration with the documented rate limit
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		RequestsPerSecond: 1,
		Burst:             1,
	}
}

// Validate validates the marketplace side of the configuration
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return ErrConfigMissingAPIToken
	}
	return nil
}

// ValidateSupplier validates the supplier side of the configuration
func (c Config) ValidateSupplier() error {
	if strings.TrimSpace(c.SupplierBaseURL) == "" {
		return ErrConfigMissingSupplierBaseURL
	}
	return nil
}

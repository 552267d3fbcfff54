package landedcost

import (
	"fmt"
	"strings"
)

// Route identifies a trade lane by ISO 3166-1 alpha-2 country codes
type Route struct {
	SourceCountry string `json:"source_country"`
	TargetCountry string `json:"target_country"`
}

// NewRoute builds a normalised, validated route
func NewRoute(source, target string) (Route, error) {
	r := Route{SourceCountry: source, TargetCountry: target}.Normalize()
	if err := r.Validate(); err != nil {
		return Route{}, err
	}
	return r, nil
}

// Normalize upper-cases and trims both codes
func (r Route) Normalize() Route {
	return Route{
		SourceCountry: strings.ToUpper(strings.TrimSpace(r.SourceCountry)),
		TargetCountry: strings.ToUpper(strings.TrimSpace(r.TargetCountry)),
	}
}

// Validate checks both country codes
func (r Route) Validate() error {
	if !isCountryCode(r.SourceCountry) {
		return invalid("route.source_country", "%q is not a two-letter country code", r.SourceCountry)
	}
	if !isCountryCode(r.TargetCountry) {
		return invalid("route.target_country", "%q is not a two-letter country code", r.TargetCountry)
	}
	return nil
}

// String renders the lane as "US->JP"
func (r Route) String() string {
	return fmt.Sprintf("%s->%s", r.SourceCountry, r.TargetCountry)
}

func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

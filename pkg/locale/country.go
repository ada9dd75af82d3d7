package locale

import (
	"strings"
)

// DefaultRegion is used for zones with no known country.
const DefaultRegion = "US"

type Country struct {
	Code  string   // ISO 3166-1 alpha-2 country code (e.g., "IL", "US")
	Name  string   // Human-readable country name
	Zones []string // IANA zones that belong to the country
}

var Countries = []Country{
	{Code: "US", Name: "United States", Zones: []string{
		"America/New_York", "America/Chicago", "America/Denver", "America/Phoenix",
		"America/Los_Angeles", "America/Anchorage", "Pacific/Honolulu", "America/Detroit",
		"US/Eastern", "US/Central", "US/Mountain", "US/Pacific",
	}},
	{Code: "CA", Name: "Canada", Zones: []string{
		"America/Toronto", "America/Vancouver", "America/Montreal", "America/Edmonton",
		"America/Winnipeg", "America/Halifax",
	}},
	{Code: "MX", Name: "Mexico", Zones: []string{"America/Mexico_City", "America/Cancun", "America/Tijuana"}},
	{Code: "BR", Name: "Brazil", Zones: []string{"America/Sao_Paulo"}},
	{Code: "GB", Name: "United Kingdom", Zones: []string{"Europe/London"}},
	{Code: "IE", Name: "Ireland", Zones: []string{"Europe/Dublin"}},
	{Code: "FR", Name: "France", Zones: []string{"Europe/Paris"}},
	{Code: "DE", Name: "Germany", Zones: []string{"Europe/Berlin"}},
	{Code: "ES", Name: "Spain", Zones: []string{"Europe/Madrid"}},
	{Code: "IT", Name: "Italy", Zones: []string{"Europe/Rome"}},
	{Code: "NL", Name: "Netherlands", Zones: []string{"Europe/Amsterdam"}},
	{Code: "IL", Name: "Israel", Zones: []string{"Asia/Jerusalem", "Asia/Tel_Aviv", "Israel"}},
	{Code: "IN", Name: "India", Zones: []string{"Asia/Kolkata", "Asia/Calcutta"}},
	{Code: "SG", Name: "Singapore", Zones: []string{"Asia/Singapore"}},
	{Code: "JP", Name: "Japan", Zones: []string{"Asia/Tokyo"}},
	{Code: "AU", Name: "Australia", Zones: []string{
		"Australia/Sydney", "Australia/Melbourne", "Australia/Brisbane", "Australia/Perth",
	}},
}

var regionByZone = func() map[string]string {
	m := make(map[string]string)
	for _, c := range Countries {
		for _, z := range c.Zones {
			m[strings.ToLower(z)] = c.Code
		}
	}
	return m
}()

// RegionForTimeZone maps a tenant's IANA zone to the region its guests'
// national-format phone numbers are read in.
func RegionForTimeZone(tz string) string {
	if region, ok := regionByZone[strings.ToLower(strings.TrimSpace(tz))]; ok {
		return region
	}
	return DefaultRegion
}

package geoip

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// Resolver answers "which country did this request come from" for the admin
// audit trail. A nil Resolver is valid and always answers unknown, so callers
// need no guard when no database is configured.
type Resolver struct {
	reader *geoip2.Reader
}

// Open loads the MaxMind country database at path. An empty path yields a nil
// Resolver rather than an error; country enrichment is optional.
func Open(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// CountryCode returns the ISO 3166-1 code for ip, or "" when the resolver is
// disabled, the address does not parse, or the database has no answer. Audit
// rows store "" as country unknown.
func (r *Resolver) CountryCode(ip string) string {
	if r == nil || r.reader == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := r.reader.Country(parsed)
	if err != nil || record == nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close releases the database handle. Safe on a nil Resolver.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

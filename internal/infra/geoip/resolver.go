// Package geoip resolves the cultural context of a request from the caller's
// IP address using a MaxMind GeoIP2 country database. It is used to default
// the cultural-context tag on generation requests when the client omits one.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"github.com/adcraft/creative-engine/internal/domain"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// ContextResolver resolves cultural-context tags from IP addresses.
type ContextResolver interface {
	CulturalContext(ip string) (domain.CulturalContext, error)
}

// Resolver provides lookups backed by a MaxMind GeoIP2 database.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the GeoIP database at the given path. When the path is
// empty, nil is returned and callers fall back to the global context.
func NewResolver(path string) (ContextResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// CulturalContext maps the caller's country to a market tag. Australia maps
// to the australian context, its nearest neighbours to regional, everything
// else to global.
func (r *Resolver) CulturalContext(ip string) (domain.CulturalContext, error) {
	if r == nil || r.reader == nil {
		return domain.CulturalContextGlobal, ErrUnavailable
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return domain.CulturalContextGlobal, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return domain.CulturalContextGlobal, fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record == nil {
		return domain.CulturalContextGlobal, nil
	}
	return ContextForCountry(record.Country.IsoCode), nil
}

// ContextForCountry maps an ISO country code to a cultural context.
func ContextForCountry(iso string) domain.CulturalContext {
	switch strings.ToUpper(strings.TrimSpace(iso)) {
	case "AU":
		return domain.CulturalContextAustralian
	case "NZ", "FJ", "PG":
		return domain.CulturalContextRegional
	default:
		return domain.CulturalContextGlobal
	}
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

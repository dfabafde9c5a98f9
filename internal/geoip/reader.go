package geoip

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Provider wraps the GeoIP2 database reader to provide country lookup functionality.
type Provider struct {
	db *geoip2.Reader
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	return p.db.Close()
}

// CountryCode returns the ISO country code of addr, which may be a bare IP or an
// "ip:port" pair as reported by a connection. A nil Provider, an unparsable address
// or an unknown network all yield an empty string.
func (p *Provider) CountryCode(addr string) string {
	if p == nil {
		return ""
	}

	ip := ParseIP(addr)
	if ip == nil {
		return ""
	}

	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}

// ParseIP extracts the IP from a bare address or a host:port pair.
func ParseIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	return net.ParseIP(addr)
}

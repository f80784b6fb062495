// Package geoip resolves peer addresses to ISO country codes using a
// MaxMind GeoIP2/GeoLite2 database.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// ErrNotLoaded is returned by lookups on a closed or nil database.
var ErrNotLoaded = errors.New("geoip: database not loaded")

// DB wraps the MaxMind GeoIP2 reader. A nil *DB is valid and resolves
// nothing, so callers need not check whether geolocation is configured.
type DB struct {
	reader *geoip2.Reader
	mu     sync.RWMutex
}

// Open opens a GeoIP database file.
func Open(path string) (*DB, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &DB{reader: reader}, nil
}

// Close closes the database. Further lookups return ErrNotLoaded.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.reader == nil {
		return nil
	}
	err := db.reader.Close()
	db.reader = nil
	return err
}

// LookupCountry returns the ISO country code for ip.
func (db *DB) LookupCountry(ip net.IP) (string, error) {
	if db == nil {
		return "", ErrNotLoaded
	}
	if ip == nil {
		return "", errors.New("geoip: nil IP address")
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.reader == nil {
		return "", ErrNotLoaded
	}

	record, err := db.reader.Country(ip)
	if err != nil {
		return "", err
	}
	return record.Country.IsoCode, nil
}

// CountryOf returns the country code for a peer address, or "" when the
// database is not loaded, the address is not public, or the lookup fails.
func (db *DB) CountryOf(addr net.Addr) string {
	if db == nil || addr == nil {
		return ""
	}

	var ip net.IP
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip = a.IP
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return ""
		}
		ip = net.ParseIP(host)
	}
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return ""
	}

	code, err := db.LookupCountry(ip)
	if err != nil {
		return ""
	}
	return code
}

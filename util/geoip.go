package util

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// GeoIP lookup for security-log enrichment. The reader is optional: when no
// GeoLite2 database is configured the lookups simply return empty values.

var (
	geoReader *geoip2.Reader
	geoMu     sync.RWMutex

	// Lookup results barely change for a given IP; cache them for an hour.
	geoCache = cache.New(1*time.Hour, 10*time.Minute)
)

// InitGeoIP opens a MaxMind GeoLite2 database at the given path.
func InitGeoIP(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("geoip database path is empty")
	}
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open geoip database: %w", err)
	}
	geoMu.Lock()
	defer geoMu.Unlock()
	if geoReader != nil {
		_ = geoReader.Close()
	}
	geoReader = reader
	return nil
}

// CloseGeoIP closes the underlying reader, if any.
func CloseGeoIP() {
	geoMu.Lock()
	defer geoMu.Unlock()
	if geoReader != nil {
		_ = geoReader.Close()
		geoReader = nil
	}
}

// GetIPLocation resolves an IP address to (city, country). Empty strings are
// returned when the reader is not initialized, the IP is invalid/private, or
// the database has no record for it.
func GetIPLocation(ip string) (string, string) {
	if ip == "" {
		return "", ""
	}
	if v, found := geoCache.Get(ip); found {
		if loc, ok := v.([2]string); ok {
			return loc[0], loc[1]
		}
	}

	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return "", ""
	}

	geoMu.RLock()
	reader := geoReader
	geoMu.RUnlock()
	if reader == nil {
		return "", ""
	}

	record, err := reader.City(parsed)
	if err != nil {
		return "", ""
	}

	city := record.City.Names["en"]
	country := record.Country.Names["en"]
	geoCache.Set(ip, [2]string{city, country}, cache.DefaultExpiration)
	return city, country
}

package gateway

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Unverifiedd/m3u8XM/pkg/auth"
	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/oschwald/geoip2-golang"
)

// geoIPFilter optionally restricts inbound requests to whitelisted countries
// and trusted internal networks.
type geoIPFilter struct {
	db        *geoip2.Reader
	whitelist map[string]bool
	cidrs     []*net.IPNet
}

func newGeoIPFilter(cfg GeoIPConfig) (*geoIPFilter, error) {
	if cfg.Database == "" {
		return nil, nil
	}

	db, err := geoip2.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	filter := &geoIPFilter{
		db:        db,
		whitelist: make(map[string]bool),
	}
	for _, country := range cfg.Whitelist {
		filter.whitelist[country] = true
	}
	for _, cidr := range cfg.InternalNetworks {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			db.Close()
			return nil, err
		}
		filter.cidrs = append(filter.cidrs, ipnet)
	}
	return filter, nil
}

func (f *geoIPFilter) close() {
	if f != nil && f.db != nil {
		f.db.Close()
	}
}

func (f *geoIPFilter) middleware(next http.Handler) http.Handler {
	if f == nil || f.db == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		parsedIP := net.ParseIP(ip)
		for _, ipnet := range f.cidrs {
			if ipnet.Contains(parsedIP) {
				next.ServeHTTP(w, r)
				return
			}
		}

		record, err := f.db.Country(parsedIP)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if !f.whitelist[record.Country.IsoCode] {
			logger.Warnf("Access denied: %s, country: %s", ip, record.Country.IsoCode)
			http.Error(w, "Access Denied", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.Split(forwarded, ",")[0]
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	return ip
}

func bearerAuth(next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		authParts := strings.SplitN(authHeader, " ", 2)
		if len(authParts) != 2 || authParts[0] != "Bearer" || !auth.VerifyToken(authParts[1]) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="Restricted"`)
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func basicAuth(next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		authParts := strings.SplitN(authHeader, " ", 2)
		if len(authParts) != 2 || authParts[0] != "Basic" {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(authParts[1])
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}

		credentials := strings.SplitN(string(decoded), ":", 2)
		if len(credentials) != 2 {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}

		token, err := auth.CreateToken(credentials[0], credentials[1])
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}
		r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

		next(w, r)
	}
}

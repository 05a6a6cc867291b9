// Package middleware holds cross-cutting HTTP middleware that is configured
// from the environment.
package middleware

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// DefaultAllowedHeaders are the request headers browser clients of the
// function endpoints send.
var DefaultAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// DefaultAllowedMethods covers every method the function endpoints accept.
var DefaultAllowedMethods = []string{"GET", "POST", "OPTIONS"}

// CORSConfig is the permissive CORS policy of the function endpoints.
type CORSConfig struct {
	// AllowedOrigins is either ["*"] or a list of exact origins.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// MaxAge is the preflight cache duration in seconds. 0 omits the header.
	MaxAge int
}

// DefaultCORSConfig allows any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: DefaultAllowedMethods,
		AllowedHeaders: DefaultAllowedHeaders,
		MaxAge:         86400,
	}
}

// LoadCORSConfig reads CORS_ALLOWED_ORIGINS (comma separated) and
// CORS_MAX_AGE on top of DefaultCORSConfig. Unset or blank values keep the
// defaults.
func LoadCORSConfig() CORSConfig {
	cfg := DefaultCORSConfig()
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, strings.TrimSuffix(o, "/"))
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if v, err := strconv.Atoi(os.Getenv("CORS_MAX_AGE")); err == nil && v >= 0 {
		cfg.MaxAge = v
	}
	return cfg
}

func (c CORSConfig) allowOrigin(origin string) (string, bool) {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return "*", true
		}
		if origin != "" && o == origin {
			return origin, true
		}
	}
	return "", false
}

// CORS sets the CORS headers on every response and answers OPTIONS
// preflight requests itself with 200 "ok".
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if allowed, ok := cfg.allowOrigin(r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", allowed)
				if allowed != "*" {
					h.Add("Vary", "Origin")
				}
			}
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Allow-Methods", methods)

			if r.Method == http.MethodOptions {
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				h.Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

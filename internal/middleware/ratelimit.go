package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"scriptstudio/internal/i18n"
)

// RateLimit allows limit requests per window for each client IP, refilling
// continuously. Idle limiters expire after a few windows.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiters := cache.New(3*per, per)
	every := rate.Every(per / time.Duration(limit))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			var lim *rate.Limiter
			if v, ok := limiters.Get(ip); ok {
				lim = v.(*rate.Limiter)
			} else {
				lim = rate.NewLimiter(every, limit)
				if err := limiters.Add(ip, lim, cache.DefaultExpiration); err != nil {
					if v, ok := limiters.Get(ip); ok {
						lim = v.(*rate.Limiter)
					}
				}
			}
			limiters.Set(ip, lim, cache.DefaultExpiration)

			if !lim.Allow() {
				w.Header().Set("Retry-After", "60")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    i18n.RateLimited,
						"message": i18n.Message(i18n.RateLimited, LocaleFromContext(r.Context())),
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}

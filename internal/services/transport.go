package services

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedTransport delays outbound requests to stay under a requests-per-second budget.
type RateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitedTransport wraps base (default [http.DefaultTransport]) with a token bucket of rps.
//
// A non-positive rps disables limiting.
func NewRateLimitedTransport(base http.RoundTripper, rps float64) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &RateLimitedTransport{base: base, limiter: rate.NewLimiter(limit, 1)}
}

// RoundTrip waits for a token, giving up when the request context ends.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// Package ors is a small OpenRouteService client for geocoding and distance matrices.
package ors

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-car"
)

// Client talks to OpenRouteService with retry/backoff and a request rate limit.
// The client is safe for concurrent use.
type Client struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	country string
	limiter *rate.Limiter
	backoff time.Duration
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithProfile(p string) Option {
	return func(c *Client) { c.profile = p }
}

// WithCountry restricts geocoding to an ISO country code. Empty means no restriction.
func WithCountry(code string) Option {
	return func(c *Client) { c.country = code }
}

// WithRateLimit allows rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1)) }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.session = h }
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	c := &Client{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		profile: DefaultProfile,
		// Free ORS plans allow 40 matrix and 100 geocode requests per minute.
		limiter: rate.NewLimiter(rate.Limit(40.0/60.0), 2),
		backoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Normalize ensures consistent cache keys by collapsing whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

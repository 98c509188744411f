package client

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key as a bearer token.  Deployments behind an
// authenticating gateway need it; a bare apiserver ignores it.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetryMax bounds the retries after the first attempt.  Negative values
// are ignored.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryMax = n
		}
	}
}

// WithRetryWait sets the backoff bounds.  A non-positive min leaves both
// unchanged; max is applied only when it is not below min.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		if min <= 0 {
			return
		}
		c.retryWaitMin = min
		if max >= min {
			c.retryWaitMax = max
		}
	}
}

// WithUserAgent overrides the synscope-go-sdk/<version> agent.  Empty
// values are ignored.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

//Personal.AI order the ending

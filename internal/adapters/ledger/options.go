package ledger

import (
	"net/http"
	"strings"
	"time"

	"github.com/brian-reel/airtable-heroku/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			cl.baseURL = u
		}
	}
}

// WithPageSize sets the records requested per page (1..100).
func WithPageSize(n int) Option {
	return func(cl *Client) {
		if n > 0 && n <= maxPageSize {
			cl.pageSize = n
		}
	}
}

// WithReadRetries sets how often a failed page read is retried and the base
// backoff, which grows linearly with the attempt number.
func WithReadRetries(n int, backoff time.Duration) Option {
	return func(cl *Client) {
		if n >= 0 {
			cl.readRetries = n
		}
		if backoff > 0 {
			cl.backoff = backoff
		}
	}
}

// WithBreakerFailures sets the consecutive failures that open the breaker.
func WithBreakerFailures(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.breakerFailures = uint32(n)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

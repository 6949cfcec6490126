// Package audit runs SEO audits against PageSpeed Insights and the site itself,
// and persists their results.
package audit

import (
	"net"
	"net/http"
	"time"
)

const (
	// ClientTimeout is the total request timeout. Lighthouse runs are slow.
	ClientTimeout = 60 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 55 * time.Second

	// UserAgent identifies audit traffic to audited sites.
	UserAgent = "SEODash-Audit/1.0"
)

// NewHTTPClient creates an HTTP client configured for audit requests.
// Redirects are followed up to the standard limit so that
// apex domains resolving to www still audit correctly.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

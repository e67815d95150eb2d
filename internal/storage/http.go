// SPDX-License-Identifier: MIT

package storage

import (
	"net/http"
	"time"
)

// newHTTPClient builds the shared *http.Client used by both backends. The
// transport is tuned for at least 32 concurrent keep-alive connections per
// host.
func newHTTPClient(connectTimeout, readWriteTimeout time.Duration, maxConnsPerHost int) *http.Client {
	transport := &http.Transport{
		MaxConnsPerHost:     maxConnsPerHost,
		MaxIdleConnsPerHost: maxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: connectTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   readWriteTimeout,
	}
}

// isRateLimitStatus reports whether an HTTP status code indicates the
// server is rate-limiting the caller.
func isRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests
}

func isRetryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

package telegram

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 90 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	// Long polls hold the request open for the poll timeout, so the client
	// timeout must leave room for it.
	clientTimeoutHeadroom = 15 * time.Second
)

// BuildHTTPClient returns an HTTP client for Bot API calls whose overall
// timeout outlives a long poll of pollTimeout.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if pollTimeout < 0 {
		pollTimeout = 0
	}
	return &http.Client{
		Timeout:   pollTimeout + clientTimeoutHeadroom,
		Transport: transport,
	}
}

package network

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the outbound client used by exchange adapters.
// Per-request deadlines come from the caller's context; the client timeout is
// only a backstop against upstreams that never answer.
func NewHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr, Timeout: 30 * time.Second}
}

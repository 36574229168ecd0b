package httpx

import (
	"net"
	"net/http"
	"time"
)

// Outbound calls go to one chat API host, so the pool stays small. The overall
// timeout is a ceiling; callers bound each send with their own context.
var defaultClient = &http.Client{
	Timeout: 15 * time.Second,
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client returns the shared client used for notification delivery.
func Client() *http.Client { return defaultClient }

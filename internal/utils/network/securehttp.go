// Package network holds the HTTP client shared by every download.
package network

import (
	"crypto/tls"
	"net/http"
	"time"
)

// tls12Suites are the AEAD suites offered to servers still on TLS 1.2.
var tls12Suites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
}

// NewSecureHTTPClient returns a client for feed and profile downloads. It
// refuses anything below TLS 1.2, follows the proxy environment and gives up
// on a request after timeout.
func NewSecureHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			ForceAttemptHTTP2:   true,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion:   tls.VersionTLS12,
				CipherSuites: tls12Suites,
			},
		},
	}
}

package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/driveman/driveman/internal/config"
	"github.com/driveman/driveman/internal/constants"
)

// CreateTransferClient builds the HTTP client used for upload and download
// streams. It starts from ConfigureHTTPClient so transfers cross the same
// proxy as JSON calls, then widens the connection pool and drops the overall
// timeout, which would otherwise cut long transfers short. Deadlines come
// from the per-operation context instead.
//
// With nil creds the proxy comes from the environment (HTTP_PROXY,
// HTTPS_PROXY, NO_PROXY).
func CreateTransferClient(creds *config.Credentials) (*nethttp.Client, error) {
	client := &nethttp.Client{}
	if creds != nil {
		var err error
		client, err = ConfigureHTTPClient(creds)
		if err != nil {
			return nil, err
		}
	}
	client.Timeout = 0

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// An NTLM negotiator wraps the transport; its settings cannot be
		// reached from here, so the client is used as configured.
		return client, nil
	}

	tuneTransferTransport(tr)

	// HTTP/2 multiplexes well on direct connections but breaks mid-transfer
	// behind many proxies. DISABLE_HTTP2=true forces HTTP/1.1 outright;
	// FORCE_HTTP2=true keeps HTTP/2 even through a proxy.
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)
	switch {
	case os.Getenv("DISABLE_HTTP2") == "true":
		downgradeToHTTP1(tr)
	case proxyInUse(creds) && os.Getenv("FORCE_HTTP2") != "true":
		downgradeToHTTP1(tr)
	}

	return client, nil
}

// tuneTransferTransport widens the pool for a batch of concurrent transfers
// and stretches the handshake timeouts for slow links.
func tuneTransferTransport(tr *nethttp.Transport) {
	tr.MaxIdleConns = 512
	tr.MaxIdleConnsPerHost = 100
	tr.MaxConnsPerHost = 100 // active + idle, must be >= MaxIdleConnsPerHost
	tr.IdleConnTimeout = constants.HTTPIdleConnTimeout

	tr.TLSHandshakeTimeout = constants.HTTPTLSHandshakeTimeout
	tr.ExpectContinueTimeout = constants.HTTPExpectContinueTimeout

	// Drive content is mostly already compressed; transparent gzip would
	// spend CPU for nothing.
	tr.DisableCompression = true
}

func downgradeToHTTP1(tr *nethttp.Transport) {
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
}

// proxyInUse reports whether transfers will cross a proxy. The configured
// mode wins; "system" mode and missing config fall back to the environment.
func proxyInUse(creds *config.Credentials) bool {
	if creds != nil {
		switch creds.Proxy.Mode {
		case "no-proxy", "":
			return false
		case "system":
		default:
			return true
		}
	}
	return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
		os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
}

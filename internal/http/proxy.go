// Package http builds the HTTP clients the API layer runs on: proxy
// handling (system, basic, NTLM, with bypass lists), transport tuning for
// transfers, and the retry helper for re-issuable requests.
package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpproxy"

	"github.com/driveman/driveman/internal/config"
	"github.com/driveman/driveman/internal/constants"
)

// jsonClientTimeout bounds whole JSON requests. Transfer clients clear it
// and rely on context deadlines instead.
const jsonClientTimeout = 300 * time.Second

// ConfigureHTTPClient builds the HTTP client for JSON API calls, wired for
// the configured proxy mode. An incomplete proxy config (mode set, host
// missing) degrades to a direct connection with a warning rather than an
// error, so `driveman config` stays reachable to repair it.
func ConfigureHTTPClient(creds *config.Credentials) (*nethttp.Client, error) {
	transport := baseTransport()
	proxy := creds.Proxy
	mode := strings.ToLower(proxy.Mode)

	switch mode {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment

	case "basic", "ntlm":
		if proxy.Host == "" {
			zlog.Warn().Msgf("Proxy mode is %s but host is missing - falling back to no-proxy mode", mode)
			transport.Proxy = nil
			break
		}
		transport.Proxy = proxySelector(buildProxyURL(proxy), proxy.NoProxy)

		// The password is never written to disk, so this state is normal on
		// startup until the interactive prompt has run.
		if proxy.User != "" && proxy.Password == "" {
			zlog.Warn().Msg("Proxy user configured but password missing - proxy auth disabled until password is set")
		}

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", proxy.Mode)
	}

	var rt nethttp.RoundTripper = transport
	if mode == "ntlm" && proxy.Host != "" {
		rt = ntlmssp.Negotiator{RoundTripper: transport}
	}

	return &nethttp.Client{
		Transport: rt,
		Timeout:   jsonClientTimeout,
	}, nil
}

// baseTransport returns the shared transport settings. The pool is kept
// wide; the stdlib default of two idle connections per host collapses under
// a paginating list plus concurrent metadata calls.
func baseTransport() *nethttp.Transport {
	return &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100, // must be >= MaxIdleConnsPerHost
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
}

// buildProxyURL assembles the proxy endpoint URL. Credentials are embedded
// only when both parts are present; an empty password in the URL trips up
// some proxies.
func buildProxyURL(proxy config.ProxyConfig) *url.URL {
	port := proxy.Port
	if port == 0 {
		port = 8080
	}

	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(proxy.Host, strconv.Itoa(port)),
	}
	if proxy.User != "" && proxy.Password != "" {
		u.User = url.UserPassword(proxy.User, proxy.Password)
	}
	return u
}

// proxySelector returns a per-request proxy chooser honoring the NoProxy
// bypass list (hostnames, wildcard domains, CIDRs). With an empty list it
// behaves exactly like nethttp.ProxyURL.
func proxySelector(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}

	bypass := &httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	selector := bypass.ProxyFunc()

	return func(req *nethttp.Request) (*url.URL, error) {
		target, err := selector(req.URL)
		if target == nil {
			zlog.Debug().Str("host", req.URL.Host).Msg("proxy bypass, connecting direct")
		} else {
			zlog.Debug().Str("host", req.URL.Host).Str("proxy", target.Host).Msg("routing through proxy")
		}
		return target, err
	}
}

// NeedsProxyPassword reports whether the proxy config names a user but no
// password, meaning proxy auth stays off until DRIVEMAN_PROXY_PASSWORD is
// set in the environment.
func NeedsProxyPassword(creds *config.Credentials) bool {
	switch strings.ToLower(creds.Proxy.Mode) {
	case "basic", "ntlm":
		return creds.Proxy.User != "" && creds.Proxy.Password == ""
	}
	return false
}

package http

import (
	nethttp "net/http"
	"net/url"
	"testing"

	"github.com/driveman/driveman/internal/config"
)

// routeFor runs a proxy selector against a target URL and returns the chosen
// route, nil meaning a direct connection.
func routeFor(t *testing.T, selector func(*nethttp.Request) (*url.URL, error), target string) *url.URL {
	t.Helper()
	req, err := nethttp.NewRequest("GET", target, nil)
	if err != nil {
		t.Fatalf("building request for %s: %v", target, err)
	}
	route, err := selector(req)
	if err != nil {
		t.Fatalf("selecting route for %s: %v", target, err)
	}
	return route
}

func TestProxySelector(t *testing.T) {
	gateway, err := url.Parse("http://gateway.lan:3128")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		noProxy string
		target  string
		direct  bool
	}{
		{"empty list proxies everything", "", "https://api.driveman.dev/api/v2/files/", false},
		{"wildcard matches subdomain", "*.driveman.dev", "https://api.driveman.dev/api/v2/files/", true},
		{"bare domain matches root", "driveman.dev", "https://driveman.dev/", true},
		{"bare domain matches subdomain", "driveman.dev", "https://api.driveman.dev/api/v2/files/", true},
		{"cidr matches address in range", "10.0.0.0/8", "http://10.42.0.7/health", true},
		{"cidr skips address outside range", "10.0.0.0/8", "http://192.168.1.20/health", false},
		{"unlisted host proxies", "*.intra.lan,10.0.0.0/8", "https://api.driveman.dev/api/v2/files/", false},
		{"mixed list wildcard entry", "*.intra.lan, 172.16.0.0/12, build.lan", "https://ci.intra.lan/status", true},
		{"mixed list cidr entry", "*.intra.lan, 172.16.0.0/12, build.lan", "http://172.16.9.1/metrics", true},
		{"mixed list exact entry", "*.intra.lan, 172.16.0.0/12, build.lan", "https://build.lan/queue", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := routeFor(t, proxySelector(gateway, tt.noProxy), tt.target)
			if tt.direct {
				if route != nil {
					t.Errorf("route for %s = %v, want direct", tt.target, route)
				}
				return
			}
			if route == nil {
				t.Fatalf("route for %s = direct, want %s", tt.target, gateway.Host)
			}
			if route.Host != gateway.Host {
				t.Errorf("route host = %s, want %s", route.Host, gateway.Host)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	tests := []struct {
		name     string
		proxy    config.ProxyConfig
		wantHost string
	}{
		{"port defaults to 8080", config.ProxyConfig{Host: "gateway.lan"}, "gateway.lan:8080"},
		{"explicit port kept", config.ProxyConfig{Host: "gateway.lan", Port: 3128}, "gateway.lan:3128"},
		{"ipv6 host bracketed", config.ProxyConfig{Host: "fd00::9", Port: 3128}, "[fd00::9]:3128"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildProxyURL(tt.proxy); got.Host != tt.wantHost {
				t.Errorf("Host = %s, want %s", got.Host, tt.wantHost)
			}
		})
	}
}

func TestBuildProxyURLCredentials(t *testing.T) {
	partial := buildProxyURL(config.ProxyConfig{Host: "gateway.lan", Port: 3128, User: "alice"})
	if partial.User != nil {
		t.Errorf("userinfo without a password = %v, want none", partial.User)
	}

	full := buildProxyURL(config.ProxyConfig{Host: "gateway.lan", Port: 3128, User: "alice", Password: "s3cret"})
	if full.User == nil {
		t.Fatal("userinfo missing with both user and password set")
	}
	if got := full.User.Username(); got != "alice" {
		t.Errorf("username = %s, want alice", got)
	}
	if pw, ok := full.User.Password(); !ok || pw != "s3cret" {
		t.Errorf("password = %q (set=%v), want s3cret", pw, ok)
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	tests := []struct {
		name  string
		proxy config.ProxyConfig
		want  bool
	}{
		{"no-proxy mode never prompts", config.ProxyConfig{Mode: "no-proxy", User: "alice"}, false},
		{"system mode never prompts", config.ProxyConfig{Mode: "system", User: "alice"}, false},
		{"basic user without password", config.ProxyConfig{Mode: "basic", User: "alice"}, true},
		{"basic password stored", config.ProxyConfig{Mode: "basic", User: "alice", Password: "x"}, false},
		{"ntlm user without password", config.ProxyConfig{Mode: "ntlm", User: "alice"}, true},
		{"basic without user", config.ProxyConfig{Mode: "basic"}, false},
		{"mode compared case insensitively", config.ProxyConfig{Mode: "NTLM", User: "alice"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsProxyPassword(&config.Credentials{Proxy: tt.proxy}); got != tt.want {
				t.Errorf("NeedsProxyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

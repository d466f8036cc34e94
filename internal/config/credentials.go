package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Credentials is the connection identity for the remote drive API.
//
// INI format:
//
//	[driveman]
//	api_base_url = https://api.driveman.dev
//	api_token = <token>
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	no_proxy =
//
// The proxy password is never persisted; it is taken from the
// DRIVEMAN_PROXY_PASSWORD environment variable at load time.
type Credentials struct {
	APIBaseURL string `ini:"api_base_url"`
	APIToken   string `ini:"api_token"`

	Proxy ProxyConfig
}

// ProxyConfig describes how to reach the API through a proxy.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic", "ntlm".
	Mode string `ini:"mode"`

	Host string `ini:"host"`
	Port int    `ini:"port"`
	User string `ini:"user"`

	// Password is runtime-only; see the package note above.
	Password string `ini:"-"`

	// NoProxy is a comma-separated list of hosts that bypass the proxy.
	NoProxy string `ini:"no_proxy"`
}

// Validation errors
var (
	ErrMissingAPIBaseURL = errors.New("api_base_url is required")
	ErrMissingAPIToken   = errors.New("api_token is required (set it in the credentials file or DRIVEMAN_API_TOKEN)")
	ErrInvalidProxyMode  = errors.New(`proxy mode must be one of "no-proxy", "system", "basic", "ntlm"`)
)

// DefaultAPIBaseURL is the hosted endpoint used when no override is configured.
const DefaultAPIBaseURL = "https://api.driveman.dev"

// NewCredentials creates Credentials with default values.
func NewCredentials() *Credentials {
	return &Credentials{
		APIBaseURL: DefaultAPIBaseURL,
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
	}
}

// LoadCredentials loads the credentials file.
// A missing file yields defaults and no error so first-run flows can prompt;
// environment overrides (DRIVEMAN_API_TOKEN, DRIVEMAN_API_URL,
// DRIVEMAN_PROXY_PASSWORD) are applied after the file.
func LoadCredentials(path string) (*Credentials, error) {
	cfg := NewCredentials()

	if path == "" {
		var err error
		path, err = DefaultCredentialsPath()
		if err != nil {
			return applyCredentialEnv(cfg), nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return applyCredentialEnv(cfg), nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	mainSection := iniFile.Section("driveman")
	cfg.APIBaseURL = mainSection.Key("api_base_url").MustString(cfg.APIBaseURL)
	cfg.APIToken = mainSection.Key("api_token").String()

	proxySection := iniFile.Section("proxy")
	cfg.Proxy.Mode = proxySection.Key("mode").MustString("no-proxy")
	cfg.Proxy.Host = proxySection.Key("host").String()
	cfg.Proxy.Port = proxySection.Key("port").MustInt(0)
	cfg.Proxy.User = proxySection.Key("user").String()
	cfg.Proxy.NoProxy = proxySection.Key("no_proxy").String()

	return applyCredentialEnv(cfg), nil
}

func applyCredentialEnv(cfg *Credentials) *Credentials {
	if v := os.Getenv("DRIVEMAN_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("DRIVEMAN_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	cfg.Proxy.Password = os.Getenv("DRIVEMAN_PROXY_PASSWORD")
	return cfg
}

// SaveCredentials saves the credentials file with owner-only permissions.
// Creates parent directories if they don't exist.
func SaveCredentials(cfg *Credentials, path string) error {
	if path == "" {
		var err error
		path, err = DefaultCredentialsPath()
		if err != nil {
			return fmt.Errorf("failed to determine credentials path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	mainSection, err := iniFile.NewSection("driveman")
	if err != nil {
		return fmt.Errorf("failed to create driveman section: %w", err)
	}
	mainSection.Key("api_base_url").SetValue(cfg.APIBaseURL)
	mainSection.Key("api_token").SetValue(cfg.APIToken)

	proxySection, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.Proxy.Mode)
	proxySection.Key("host").SetValue(cfg.Proxy.Host)
	proxySection.Key("port").SetValue(fmt.Sprintf("%d", cfg.Proxy.Port))
	proxySection.Key("user").SetValue(cfg.Proxy.User)
	proxySection.Key("no_proxy").SetValue(cfg.Proxy.NoProxy)

	// Temporary file + rename for atomicity; the token is sensitive, so
	// permissions are restricted before the file lands at its final path
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set credentials permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// Validate checks that the credentials can authenticate an API client.
func (cfg *Credentials) Validate() error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return ErrMissingAPIBaseURL
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return ErrMissingAPIToken
	}
	switch cfg.Proxy.Mode {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return fmt.Errorf("%w (got %q)", ErrInvalidProxyMode, cfg.Proxy.Mode)
	}
	return nil
}

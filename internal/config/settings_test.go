package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(*testing.T, *Settings)
	}{
		{
			name: "full document",
			content: "key,value\n" +
				"last_download_path,/data/downloads\n" +
				"auto_refresh,false\n" +
				"confirm_operations,true\n" +
				"credentials_file,/secure/creds\n" +
				"log_level,debug\n" +
				"window_geometry,1280x800\n",
			check: func(t *testing.T, cfg *Settings) {
				if cfg.LastDownloadPath != "/data/downloads" {
					t.Errorf("LastDownloadPath = %q, want /data/downloads", cfg.LastDownloadPath)
				}
				if cfg.AutoRefresh {
					t.Error("AutoRefresh = true, want false")
				}
				if !cfg.ConfirmOperations {
					t.Error("ConfirmOperations = false, want true")
				}
				if cfg.CredentialsFile != "/secure/creds" {
					t.Errorf("CredentialsFile = %q, want /secure/creds", cfg.CredentialsFile)
				}
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
				}
				if cfg.WindowGeometry != "1280x800" {
					t.Errorf("WindowGeometry = %q, want 1280x800", cfg.WindowGeometry)
				}
			},
		},
		{
			name:    "partial document keeps defaults",
			content: "log_level,warn\n",
			check: func(t *testing.T, cfg *Settings) {
				if cfg.LogLevel != "warn" {
					t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
				}
				if !cfg.AutoRefresh {
					t.Error("AutoRefresh should default to true")
				}
				if cfg.WindowGeometry != "1000x700" {
					t.Errorf("WindowGeometry = %q, want default 1000x700", cfg.WindowGeometry)
				}
			},
		},
		{
			name:    "header and blank rows tolerated",
			content: "key,value\n\nauto_refresh,false\n",
			check: func(t *testing.T, cfg *Settings) {
				if cfg.AutoRefresh {
					t.Error("AutoRefresh = true, want false")
				}
			},
		},
		{
			name:    "keys are case-insensitive",
			content: "Log_Level,ERROR\n",
			check: func(t *testing.T, cfg *Settings) {
				if cfg.LogLevel != "error" {
					t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSettingsFile(t, tt.content)
			cfg, err := LoadSettings(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadSettings() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadSettings_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadSettings(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if !cfg.AutoRefresh || !cfg.ConfirmOperations {
		t.Error("defaults not applied for missing file")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestSettings_RoundTripPreservesUnknownKeys(t *testing.T) {
	path := writeSettingsFile(t, "key,value\n"+
		"auto_refresh,false\n"+
		"theme,solarized\n"+
		"experimental_flag,1\n")

	cfg, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.LogLevel = "debug"
	if err := SaveSettings(cfg, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "theme,solarized") {
		t.Error("unknown key 'theme' lost on save")
	}
	if !strings.Contains(content, "experimental_flag,1") {
		t.Error("unknown key 'experimental_flag' lost on save")
	}

	reloaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.LogLevel != "debug" {
		t.Errorf("LogLevel = %q after round trip, want debug", reloaded.LogLevel)
	}
	if reloaded.AutoRefresh {
		t.Error("AutoRefresh flipped back to true after round trip")
	}
}

func TestSettings_Set(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"valid bool", "auto_refresh", "false", false},
		{"numeric bool", "confirm_operations", "0", false},
		{"notifications toggle", "notifications", "true", false},
		{"invalid bool", "auto_refresh", "maybe", true},
		{"valid level", "log_level", "warn", false},
		{"level case-insensitive", "log_level", "DEBUG", false},
		{"invalid level", "log_level", "loud", true},
		{"valid geometry", "window_geometry", "800x600", false},
		{"geometry with position", "window_geometry", "800x600+100+50", false},
		{"invalid geometry", "window_geometry", "huge", true},
		{"empty download path", "last_download_path", "  ", true},
		{"unknown key", "worker_threads", "4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSettings()
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestSettings_SetUnknownKeySentinel(t *testing.T) {
	cfg := DefaultSettings()
	err := cfg.Set("nonsense", "1")
	if !errors.Is(err, ErrUnknownSettingsKey) {
		t.Errorf("expected ErrUnknownSettingsKey, got %v", err)
	}
}

func TestSettings_GetAllKeys(t *testing.T) {
	cfg := DefaultSettings()
	for _, key := range Keys() {
		if _, ok := cfg.Get(key); !ok {
			t.Errorf("Get(%q) reported unknown for a recognized key", key)
		}
	}
	if _, ok := cfg.Get("bogus"); ok {
		t.Error("Get(bogus) should report unknown")
	}
}

func TestSettings_ResetKeepsUnknown(t *testing.T) {
	path := writeSettingsFile(t, "theme,dark\nlog_level,error\n")
	cfg, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg.Reset()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q after reset, want info", cfg.LogLevel)
	}

	if err := SaveSettings(cfg, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "theme,dark") {
		t.Error("unknown key lost across Reset + Save")
	}
}

package config

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Recognized settings keys.
const (
	KeyLastDownloadPath  = "last_download_path"
	KeyAutoRefresh       = "auto_refresh"
	KeyConfirmOperations = "confirm_operations"
	KeyNotifications     = "notifications"
	KeyCredentialsFile   = "credentials_file"
	KeyLogLevel          = "log_level"
	KeyWindowGeometry    = "window_geometry"
)

// ErrUnknownSettingsKey is returned by Settings.Set for unrecognized keys.
var ErrUnknownSettingsKey = errors.New("unknown settings key")

// Settings is the persisted key/value document behind `driveman config`.
// The on-disk format is two-column CSV (key,value) with an optional header
// row; rows with keys this build doesn't recognize survive load/save so
// newer or foreign tooling can park values in the same file.
type Settings struct {
	LastDownloadPath  string
	AutoRefresh       bool
	ConfirmOperations bool
	Notifications     bool
	CredentialsFile   string
	LogLevel          string
	WindowGeometry    string

	unknown [][2]string
}

// DefaultSettings returns the settings used when no document exists yet.
func DefaultSettings() *Settings {
	credentialsPath, _ := DefaultCredentialsPath()
	return &Settings{
		LastDownloadPath:  DefaultDownloadDir(),
		AutoRefresh:       true,
		ConfirmOperations: true,
		Notifications:     false,
		CredentialsFile:   credentialsPath,
		LogLevel:          "info",
		WindowGeometry:    "1000x700",
	}
}

// LoadSettings reads the settings document at path.
// A missing file yields defaults and no error; a malformed file is an error.
// Recognized keys override defaults, unrecognized rows are preserved.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(record[0]))
		value := strings.TrimSpace(record[1])

		if key == "" || key == "key" {
			// Blank row or header
			continue
		}

		switch key {
		case KeyLastDownloadPath:
			if value != "" {
				cfg.LastDownloadPath = value
			}
		case KeyAutoRefresh:
			cfg.AutoRefresh = parseBool(value)
		case KeyConfirmOperations:
			cfg.ConfirmOperations = parseBool(value)
		case KeyNotifications:
			cfg.Notifications = parseBool(value)
		case KeyCredentialsFile:
			if value != "" {
				cfg.CredentialsFile = value
			}
		case KeyLogLevel:
			if value != "" {
				cfg.LogLevel = strings.ToLower(value)
			}
		case KeyWindowGeometry:
			if value != "" {
				cfg.WindowGeometry = value
			}
		default:
			cfg.unknown = append(cfg.unknown, [2]string{record[0], record[1]})
		}
	}

	return cfg, nil
}

// SaveSettings writes the settings document atomically (tmp + rename).
// Unrecognized rows carried by cfg are written back after the known keys.
func SaveSettings(cfg *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	rows := [][]string{
		{"key", "value"},
		{KeyLastDownloadPath, cfg.LastDownloadPath},
		{KeyAutoRefresh, strconv.FormatBool(cfg.AutoRefresh)},
		{KeyConfirmOperations, strconv.FormatBool(cfg.ConfirmOperations)},
		{KeyNotifications, strconv.FormatBool(cfg.Notifications)},
		{KeyCredentialsFile, cfg.CredentialsFile},
		{KeyLogLevel, cfg.LogLevel},
		{KeyWindowGeometry, cfg.WindowGeometry},
	}
	for _, u := range cfg.unknown {
		rows = append(rows, []string{u[0], u[1]})
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

// Keys returns the recognized settings keys in display order.
func Keys() []string {
	return []string{
		KeyLastDownloadPath,
		KeyAutoRefresh,
		KeyConfirmOperations,
		KeyNotifications,
		KeyCredentialsFile,
		KeyLogLevel,
		KeyWindowGeometry,
	}
}

// Get returns the current value for a recognized key.
func (s *Settings) Get(key string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case KeyLastDownloadPath:
		return s.LastDownloadPath, true
	case KeyAutoRefresh:
		return strconv.FormatBool(s.AutoRefresh), true
	case KeyConfirmOperations:
		return strconv.FormatBool(s.ConfirmOperations), true
	case KeyNotifications:
		return strconv.FormatBool(s.Notifications), true
	case KeyCredentialsFile:
		return s.CredentialsFile, true
	case KeyLogLevel:
		return s.LogLevel, true
	case KeyWindowGeometry:
		return s.WindowGeometry, true
	}
	return "", false
}

// Set validates and applies a value to a recognized key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch strings.ToLower(strings.TrimSpace(key)) {
	case KeyLastDownloadPath:
		if value == "" {
			return errors.New("last_download_path must not be empty")
		}
		s.LastDownloadPath = value
	case KeyAutoRefresh:
		b, err := parseStrictBool(value)
		if err != nil {
			return fmt.Errorf("auto_refresh: %w", err)
		}
		s.AutoRefresh = b
	case KeyConfirmOperations:
		b, err := parseStrictBool(value)
		if err != nil {
			return fmt.Errorf("confirm_operations: %w", err)
		}
		s.ConfirmOperations = b
	case KeyNotifications:
		b, err := parseStrictBool(value)
		if err != nil {
			return fmt.Errorf("notifications: %w", err)
		}
		s.Notifications = b
	case KeyCredentialsFile:
		if value == "" {
			return errors.New("credentials_file must not be empty")
		}
		s.CredentialsFile = value
	case KeyLogLevel:
		level := strings.ToLower(value)
		switch level {
		case "debug", "info", "warn", "error":
			s.LogLevel = level
		default:
			return fmt.Errorf("log_level must be one of debug, info, warn, error (got %q)", value)
		}
	case KeyWindowGeometry:
		if !validGeometry(value) {
			return fmt.Errorf("window_geometry must look like 1000x700 (got %q)", value)
		}
		s.WindowGeometry = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSettingsKey, key)
	}

	return nil
}

// Reset restores every recognized key to its default.
// Unrecognized rows are kept; they belong to someone else.
func (s *Settings) Reset() {
	unknown := s.unknown
	*s = *DefaultSettings()
	s.unknown = unknown
}

// parseBool is the permissive form used when loading: anything that isn't
// an affirmative reads as false.
func parseBool(value string) bool {
	v := strings.ToLower(value)
	return v == "true" || v == "1"
}

// parseStrictBool is used for user-supplied values, where a typo should be
// an error rather than silently false.
func parseStrictBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false, got %q", value)
}

// validGeometry accepts WIDTHxHEIGHT with optional +X+Y position suffix.
func validGeometry(value string) bool {
	geo := value
	if i := strings.IndexAny(geo, "+"); i > 0 {
		geo = geo[:i]
	}
	parts := strings.Split(geo, "x")
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err != nil || n <= 0 {
			return false
		}
	}
	return true
}

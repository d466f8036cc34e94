// Package api provides error types for drive API responses.
package api

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnauthorized indicates the API rejected our token (401 or 403).
// Batch operations treat this as fatal: if one request is unauthorized,
// every following request will be too.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound indicates the requested file or folder does not exist (404).
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists indicates a file with the same name already exists in the
// folder (409). Returned when an upload or folder creation would create a
// duplicate.
var ErrAlreadyExists = errors.New("already exists")

// statusError maps an HTTP status to the matching sentinel, preserving the
// operation name and response body in the message.
func statusError(operation string, status int, body []byte) error {
	switch status {
	case 401, 403:
		return fmt.Errorf("%s failed: status %d: %w", operation, status, ErrUnauthorized)
	case 404:
		return fmt.Errorf("%s failed: status %d: %w", operation, status, ErrNotFound)
	case 409:
		return fmt.Errorf("%s failed: status %d: %w", operation, status, ErrAlreadyExists)
	default:
		return fmt.Errorf("%s failed: status %d: %s", operation, status, string(body))
	}
}

// mentionsAny reports whether the error text contains any of the phrases,
// compared case-insensitively.
func mentionsAny(err error, phrases ...string) bool {
	text := strings.ToLower(err.Error())
	return slices.ContainsFunc(phrases, func(p string) bool {
		return strings.Contains(text, p)
	})
}

// IsUnauthorizedError reports whether err is an authentication failure:
// the wrapped ErrUnauthorized sentinel, or a message naming a 401/403.
// Errors from other layers (proxies, middleware) only carry text, hence
// the phrase matching.
//
// Usage:
//
//	entries, err := storage.ListChildren(ctx, folderID)
//	if api.IsUnauthorizedError(err) {
//	    // Abort the batch - remaining requests will fail the same way
//	}
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnauthorized) ||
		mentionsAny(err, "status 401", "status 403", "unauthorized", "forbidden", "invalid token")
}

// IsNotFoundError reports whether err means the file or folder is missing.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound) || mentionsAny(err, "status 404", "not found")
}

// IsAlreadyExistsError reports whether err means a name collision: the
// wrapped ErrAlreadyExists sentinel, or conflict wording in the message.
func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAlreadyExists) ||
		mentionsAny(err, "already exists", "duplicate", "conflict", "file exists", "name already in use")
}

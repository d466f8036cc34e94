package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	zlog "github.com/rs/zerolog/log"

	"github.com/driveman/driveman/internal/config"
	"github.com/driveman/driveman/internal/constants"
	"github.com/driveman/driveman/internal/http"
	"github.com/driveman/driveman/internal/models"
	"github.com/driveman/driveman/internal/ratelimit"
)

// retryLog funnels go-retryablehttp's diagnostics into zerolog. Info and
// Debug chatter is dropped; wait-and-retry notices come through Warn.
type retryLog struct{}

func (retryLog) Error(msg string, kv ...interface{}) { zlog.Error().Msgf("retry: %s %v", msg, kv) }
func (retryLog) Warn(msg string, kv ...interface{})  { zlog.Warn().Msgf("retry: %s %v", msg, kv) }
func (retryLog) Info(string, ...interface{})         {}
func (retryLog) Debug(string, ...interface{})        {}

// callStats tracks request counts for the periodic usage log.
type callStats struct {
	sync.Mutex
	total       int64
	windowBegan time.Time
	windowCalls int64
}

// Client talks to the drive REST API.
//
// JSON endpoints go through a retrying HTTP client; upload and download
// streams use a separate transfer client because their bodies cannot be
// replayed by the retry transport. Download rebuilds its GET per attempt and
// retries above the transfer client; upload callers retry by reopening the
// source.
type Client struct {
	httpClient     *nethttp.Client // JSON endpoints, wrapped with retryablehttp
	transferClient *nethttp.Client // upload/download streams, no automatic retry
	creds          *config.Credentials
	baseURL        string
	apiToken       string
	limiter        *ratelimit.RateLimiter // all endpoints share the user scope
	metrics        *callStats
}

// NewClient creates an API client from credentials.
func NewClient(creds *config.Credentials) (*Client, error) {
	// An empty base URL would otherwise surface as "unsupported protocol
	// scheme" on every request.
	if strings.TrimSpace(creds.APIBaseURL) == "" {
		return nil, fmt.Errorf("API base URL is empty - set api_base_url in the credentials file or DRIVEMAN_API_URL")
	}

	base, err := http.ConfigureHTTPClient(creds)
	if err != nil {
		return nil, fmt.Errorf("configure HTTP client: %w", err)
	}

	transferClient, err := http.CreateTransferClient(creds)
	if err != nil {
		return nil, fmt.Errorf("configure transfer client: %w", err)
	}

	return &Client{
		httpClient:     retryingClient(base),
		transferClient: transferClient,
		creds:          creds,
		baseURL:        strings.TrimSuffix(creds.APIBaseURL, "/"),
		apiToken:       creds.APIToken,
		limiter:        ratelimit.NewUserScopeRateLimiter(),
		metrics:        &callStats{windowBegan: time.Now()},
	}, nil
}

// retryingClient wraps the configured transport with go-retryablehttp
// backoff for the JSON endpoints. Transfer streams skip the wrapper because
// a half-sent multipart body cannot be replayed.
func retryingClient(base *nethttp.Client) *nethttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = constants.MaxRetries
	rc.RetryWaitMin = time.Second
	rc.RetryWaitMax = 30 * time.Second
	rc.Logger = retryLog{}
	return rc.StandardClient()
}

// doRequest performs one authenticated JSON request. The shared limiter is
// consulted first so every endpoint draws from the same user scope (see
// internal/ratelimit/constants.go).
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}
	c.trackCall()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zlog.Error().Msgf("API call failed: %s %s (%s): %v", method, path, http.Classify(err), err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	// The limiter should keep us under the scope; reaching 429 anyway means
	// something else shares the token.
	if resp.StatusCode == nethttp.StatusTooManyRequests {
		zlog.Warn().Msgf("throttled on %s %s, Retry-After=%s",
			method, path, resp.Header.Get("Retry-After"))
	}

	return resp, nil
}

// usageWindow is how often trackCall summarizes request throughput.
const usageWindow = 30 * time.Second

func (c *Client) trackCall() {
	c.metrics.Lock()
	defer c.metrics.Unlock()

	c.metrics.total++
	c.metrics.windowCalls++

	elapsed := time.Since(c.metrics.windowBegan)
	if elapsed < usageWindow {
		return
	}

	zlog.Info().Msgf("API usage: %.2f req/sec against a %.0f/sec target, %d calls total",
		float64(c.metrics.windowCalls)/elapsed.Seconds(),
		ratelimit.UserScopeRatePerSec, c.metrics.total)

	c.metrics.windowCalls = 0
	c.metrics.windowBegan = time.Now()
}

// callJSON performs a JSON request and decodes the response into out. op
// names the operation in errors; ok lists the statuses accepted as success.
// Pass a nil out to discard the body.
func (c *Client) callJSON(ctx context.Context, op, method, path string, body, out interface{}, ok ...int) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !slices.Contains(ok, resp.StatusCode) {
		raw, _ := io.ReadAll(resp.Body)
		return statusError(op, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// ListChildren lists the direct children of a folder, following pagination
// until the server reports no next page. Pass constants.RootFolderID for the
// top level.
func (c *Client) ListChildren(ctx context.Context, folderID string) ([]models.RemoteFile, error) {
	var all []models.RemoteFile
	next := fmt.Sprintf("/api/v2/files/?parent=%s&limit=%d",
		url.QueryEscape(folderID), constants.ListPageSize)

	for next != "" {
		var page models.FileListResponse
		if err := c.callJSON(ctx, "list files", "GET", next, nil, &page, nethttp.StatusOK); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		next = ""
		if page.Next != nil {
			// Next links come back absolute; doRequest wants a path.
			next = strings.TrimPrefix(*page.Next, c.baseURL)
		}
	}

	return all, nil
}

// GetFileInfo retrieves metadata for a single file or folder.
func (c *Client) GetFileInfo(ctx context.Context, fileID string) (*models.RemoteFile, error) {
	var file models.RemoteFile
	path := "/api/v2/files/" + url.PathEscape(fileID) + "/"
	if err := c.callJSON(ctx, "get file info", "GET", path, nil, &file, nethttp.StatusOK); err != nil {
		return nil, err
	}
	return &file, nil
}

// CreateFolder creates a new folder under parentID and returns its metadata.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*models.RemoteFile, error) {
	req := models.CreateFolderRequest{
		Title:    name,
		MimeType: constants.FolderMimeType,
		Parents:  []models.ParentRef{{ID: parentID}},
	}

	var folder models.RemoteFile
	err := c.callJSON(ctx, "create folder", "POST", "/api/v2/files/", req, &folder,
		nethttp.StatusCreated, nethttp.StatusOK)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFile deletes a file or folder. Deleting a folder removes its
// contents as well - the server handles the recursion.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	path := "/api/v2/files/" + url.PathEscape(fileID) + "/"
	return c.callJSON(ctx, "delete file", "DELETE", path, nil, nil,
		nethttp.StatusNoContent, nethttp.StatusOK)
}

// MoveFile moves a file or folder to a new parent folder.
func (c *Client) MoveFile(ctx context.Context, fileID, newParentID string) error {
	path := "/api/v2/files/" + url.PathEscape(fileID) + "/"
	req := models.UpdateFileRequest{Parents: []models.ParentRef{{ID: newParentID}}}
	return c.callJSON(ctx, "move file", "PATCH", path, req, nil, nethttp.StatusOK)
}

// RenameFile changes the title of a file or folder.
func (c *Client) RenameFile(ctx context.Context, fileID, newTitle string) error {
	path := "/api/v2/files/" + url.PathEscape(fileID) + "/"
	req := models.UpdateFileRequest{Title: newTitle}
	return c.callJSON(ctx, "rename file", "PATCH", path, req, nil, nethttp.StatusOK)
}

// About retrieves account details and storage quota for the current token.
func (c *Client) About(ctx context.Context) (*models.AboutResponse, error) {
	var about models.AboutResponse
	if err := c.callJSON(ctx, "about", "GET", "/api/v2/about/", nil, &about, nethttp.StatusOK); err != nil {
		return nil, err
	}
	return &about, nil
}

// TestConnection verifies the API is reachable and the token is valid.
// Used by the status command and proxy configuration checks.
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.APIConnectionTestTimeout)
	defer cancel()

	if _, err := c.About(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

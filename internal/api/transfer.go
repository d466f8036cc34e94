package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/url"

	zlog "github.com/rs/zerolog/log"

	"github.com/driveman/driveman/internal/http"
	"github.com/driveman/driveman/internal/models"
	"github.com/driveman/driveman/internal/util/buffers"
)

// Upload sends file content to the drive as a multipart form and returns the
// created file's metadata.
//
// The src reader is streamed through an io.Pipe, so arbitrarily large files
// upload without buffering in memory. Callers that want progress reporting
// wrap src before passing it in. The request is not retried automatically -
// a half-sent stream cannot be replayed, so callers retry by reopening src.
//
// Returns ErrAlreadyExists (wrapped) when a file with the same title already
// exists in the target folder.
func (c *Client) Upload(ctx context.Context, src io.Reader, title, parentID string) (*models.RemoteFile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}
	c.trackCall()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// Feed the multipart body from a goroutine; the HTTP client reads the
	// other end of the pipe. CloseWithError propagates failures to the
	// request so it aborts instead of hanging.
	go func() {
		var err error
		defer func() {
			pw.CloseWithError(err)
		}()

		if err = writer.WriteField("parent", parentID); err != nil {
			return
		}
		if err = writer.WriteField("title", title); err != nil {
			return
		}

		var part io.Writer
		part, err = writer.CreateFormFile("file", title)
		if err != nil {
			return
		}

		buf := buffers.GetCopyBuffer()
		defer buffers.PutCopyBuffer(buf)
		if _, err = io.CopyBuffer(part, src, *buf); err != nil {
			return
		}
		err = writer.Close()
	}()

	uploadURL := c.baseURL + "/api/v2/files/upload/"
	req, err := nethttp.NewRequestWithContext(ctx, "POST", uploadURL, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusCreated && resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError("upload", resp.StatusCode, body)
	}

	var file models.RemoteFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return &file, nil
}

// Download opens a streaming read of a file's content. It returns the body
// and the size from Content-Length (-1 when the server does not report one).
//
// Unlike Upload, the GET carries no body, so acquiring the stream is retried
// with backoff until a 200 arrives or the failure is unrecoverable. Once the
// body is handed over the stream belongs to the caller; a read error
// mid-stream means calling Download again.
//
// The caller must close the returned ReadCloser. Wrap it to report progress
// while copying to disk.
func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, int64, error) {
	path := fmt.Sprintf("/api/v2/files/%s/download/", url.PathEscape(fileID))

	policy := http.DefaultRetryPolicy()
	policy.OnRetry = func(attempt int, err error, class http.FailureClass) {
		zlog.Debug().Msgf("Download attempt %d for %s failed (%s): %v", attempt, fileID, class, err)
	}

	var resp *nethttp.Response
	err := http.Retry(ctx, policy, func() error {
		// Every attempt is a real request against the shared user scope, so
		// the limiter gate sits inside the loop.
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter cancelled: %w", err)
		}
		c.trackCall()

		req, err := nethttp.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to create download request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiToken)

		r, err := c.transferClient.Do(req)
		if err != nil {
			return fmt.Errorf("download request failed: %w", err)
		}
		if r.StatusCode != nethttp.StatusOK {
			body, _ := io.ReadAll(r.Body)
			r.Body.Close()
			return statusError("download", r.StatusCode, body)
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}

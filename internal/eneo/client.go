// Package eneo is the outbound client for the Eneo assistant REST API.
//
// Every authenticated call resolves the caller's bearer token before any
// network activity; a missing token fails fast with ErrUnauthenticated.
// Calls are synchronous, bounded by a fixed timeout and never retried.
package eneo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"sundsvall.se/integration-eneo/internal/appinfo"
)

const (
	chatPath      = "/api/v1/chat"
	indexPath     = "/api/v1/documents/index"
	documentsPath = "/api/v1/documents"
	healthPath    = "/api/v1/health"

	// maxErrorBody caps how much of a failed response ends up in messages.
	maxErrorBody = 512
)

// Settings is the slice of configuration the client reads on every call.
type Settings interface {
	EneoURL(ctx context.Context) (string, error)
	AccessToken(ctx context.Context, uid string) (string, error)
}

type Client struct {
	settings       Settings
	httpClient     *http.Client
	logger         *log.Logger
	requestTimeout time.Duration
	healthTimeout  time.Duration
}

// NewClient builds a client. A nil httpClient uses a fresh http.Client;
// timeouts are applied per request, not on the http.Client.
func NewClient(settings Settings, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		settings:       settings,
		httpClient:     httpClient,
		logger:         logger,
		requestTimeout: appinfo.DefaultRequestTimeout,
		healthTimeout:  appinfo.HealthCheckTimeout,
	}
}

type chatPayload struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
	Stream  bool           `json:"stream"`
}

type indexPayload struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	Source   string `json:"source"`
}

// SendChatMessage forwards a chat message and returns Eneo's JSON object
// untouched.
func (c *Client) SendChatMessage(ctx context.Context, uid, message string, msgContext map[string]any) (json.RawMessage, error) {
	if msgContext == nil {
		msgContext = map[string]any{}
	}
	payload := chatPayload{Message: message, Context: msgContext, Stream: false}

	body, err := c.call(ctx, uid, http.MethodPost, chatPath, payload, "communicate with Eneo")
	if err != nil {
		c.logger.Error("Eneo API request failed", "err", err)
		return nil, err
	}
	return body, nil
}

// IndexFile sends a file's content to Eneo for semantic indexing.
func (c *Client) IndexFile(ctx context.Context, uid, fileID, filePath, content string) (json.RawMessage, error) {
	payload := indexPayload{
		FileID:   fileID,
		FilePath: filePath,
		Content:  content,
		Source:   "nextcloud",
	}

	body, err := c.call(ctx, uid, http.MethodPost, indexPath, payload, "index file in Eneo")
	if err != nil {
		c.logger.Error("Eneo file indexing failed", "file_id", fileID, "err", err)
		return nil, err
	}
	return body, nil
}

// GetIndexedFiles lists the documents Eneo holds for the user. The result
// may be an array or an object.
func (c *Client) GetIndexedFiles(ctx context.Context, uid string) (json.RawMessage, error) {
	body, err := c.call(ctx, uid, http.MethodGet, documentsPath, nil, "get indexed files")
	if err != nil {
		c.logger.Error("Failed to get indexed files from Eneo", "err", err)
		return nil, err
	}
	return body, nil
}

// TestConnection reports whether the health endpoint answers 200. It never
// fails; problems are logged and reported as false.
func (c *Client) TestConnection(ctx context.Context) bool {
	baseURL, err := c.settings.EneoURL(ctx)
	if err != nil {
		c.logger.Warn("Eneo connection test failed", "err", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
	if err != nil {
		c.logger.Warn("Eneo connection test failed", "err", err)
		return false
	}
	req.Header.Set("User-Agent", appinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Eneo connection test failed", "err", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Eneo connection test failed", "status", resp.StatusCode)
		return false
	}
	return true
}

// call performs one authenticated request. The inbound request's
// cancellation is not propagated; only the fixed timeout bounds the call.
func (c *Client) call(ctx context.Context, uid, method, path string, payload any, op string) (json.RawMessage, error) {
	token, err := c.settings.AccessToken(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}
	if token == "" {
		return nil, ErrUnauthenticated
	}

	baseURL, err := c.settings.EneoURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading Eneo URL: %w", err)
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, bodyReader)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", appinfo.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody)),
		}
	}

	if !json.Valid(respBody) {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: ErrInvalidResponse}
	}
	return json.RawMessage(respBody), nil
}

func truncate(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// FileSender is the scheduler's view of the file transport: hand an
// application over and let the implementation sort out staging/promotion.
type FileSender interface {
	SendApplication(ctx context.Context, app domain.Application) error
}

// Client is the HTTP client for the filestore RPC surface.
// The base URL is injected from config so tests can point to a local server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendApplication stages the application's files and immediately promotes
// them to durable storage. Applications without files are a no-op; the
// fan-out leg still counts as delivered.
//
// File contents are synthesised from the referenced filenames; the
// submission boundary accepts name references, not uploads.
func (c *Client) SendApplication(ctx context.Context, app domain.Application) error {
	if len(app.Files) == 0 {
		c.logger.Debug("application has no files to transfer", zap.String("application_id", app.ID))
		return nil
	}

	files := make([]FilePayload, len(app.Files))
	for i, name := range app.Files {
		files[i] = FilePayload{
			Filename:    name,
			Content:     []byte("file content for " + name),
			ContentType: "application/octet-stream",
		}
	}

	var staged StageResponse
	err := c.post(ctx, "/rpc/v1/files/stage", StageRequest{
		ApplicationID: app.ID,
		Files:         files,
	}, &staged)
	if err != nil {
		return fmt.Errorf("stage files for %s: %w", app.ID, err)
	}

	var promoted PromoteResponse
	err = c.post(ctx, "/rpc/v1/files/promote", PromoteRequest{
		ApplicationID: app.ID,
		FileIDs:       staged.FileIDs,
	}, &promoted)
	if err != nil {
		return fmt.Errorf("promote files for %s: %w", app.ID, err)
	}

	for _, f := range promoted.Files {
		c.logger.Info("file stored durably",
			zap.String("application_id", app.ID),
			zap.String("filename", f.Filename),
			zap.String("url", f.URL),
		)
	}
	return nil
}

// Health checks the filestore's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rpc/v1/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if !health.Healthy {
		return fmt.Errorf("filestore reports unhealthy")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected filestore status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// compile-time check that Client implements FileSender
var _ FileSender = (*Client)(nil)

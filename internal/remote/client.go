package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "kpi-analyzer/1.0"
	maxBodyBytes     = 32 << 20
)

// ClientOptions configures a Client. Zero values select defaults.
type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	// ExportBaseURL overrides https://docs.google.com for sheet CSV exports.
	ExportBaseURL string
}

// Client fetches spreadsheet exports over HTTP. Requests are paced by a token
// bucket so a batch of sheets does not hammer the remote host; failures are
// returned as-is without retries.
type Client struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	userAgent     string
	exportBaseURL string
	logger        *slog.Logger
}

// NewClient creates a Client.
func NewClient(opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.ExportBaseURL == "" {
		opts.ExportBaseURL = DefaultExportBaseURL
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	return &Client{
		httpClient:    &http.Client{Timeout: opts.Timeout},
		limiter:       rate.NewLimiter(limit, opts.Burst),
		userAgent:     opts.UserAgent,
		exportBaseURL: opts.ExportBaseURL,
		logger:        logger.With(slog.String("component", "remote.client")),
	}
}

// response is a fetched body with the headers needed to classify it.
type response struct {
	body        []byte
	contentType string
}

func (c *Client) get(ctx context.Context, url string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "remote request failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.DebugContext(ctx, "remote request completed",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return &response{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/batch"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

// Notifier is the interface for sending signal notifications.
type Notifier interface {
	// SendSignal sends an alert when sig is strong enough; weaker signals are
	// dropped and reported as not sent.
	SendSignal(ctx context.Context, ticker string, sig *scoring.TradingSignal) (bool, error)
	SendScan(ctx context.Context, result *batch.BatchResult, date string, duration time.Duration) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

func (c *Client) SendSignal(ctx context.Context, ticker string, sig *scoring.TradingSignal) (bool, error) {
	if !c.config.Enabled || !c.config.ShouldAlert(sig.Score) {
		return false, nil
	}

	title := fmt.Sprintf("%s %s (%s): %.1f", ticker, sig.Signal, sig.Strength, sig.Score)
	tags := c.config.Tags
	priority := c.config.Priority
	switch sig.Signal {
	case scoring.Buy:
		tags += ",green_circle"
	case scoring.Sell:
		tags += ",red_circle"
	}
	if sig.Strength == scoring.Strong {
		priority = "high"
	}

	if err := c.send(ctx, title, FormatSignalMessage(sig), tags, priority); err != nil {
		return false, err
	}
	return true, nil
}

// SendScan sends a scan summary.
func (c *Client) SendScan(ctx context.Context, result *batch.BatchResult, date string, duration time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Scan Complete: %s", date)
	tags := c.config.Tags + ",white_check_mark"
	priority := c.config.Priority
	if result.Failed > 0 {
		title = fmt.Sprintf("Scan Finished With Errors: %s", date)
		tags = c.config.Tags + ",x"
		priority = "high"
	}

	return c.send(ctx, title, FormatScanMessage(result, duration), tags, priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendSignal is a no-op.
func (n *NoopNotifier) SendSignal(_ context.Context, _ string, _ *scoring.TradingSignal) (bool, error) {
	return false, nil
}

// SendScan is a no-op.
func (n *NoopNotifier) SendScan(_ context.Context, _ *batch.BatchResult, _ string, _ time.Duration) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}

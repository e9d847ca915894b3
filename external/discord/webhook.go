package discord

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/waiver-wire/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
)

var errDiscordTransient = crerr.New("discord transient failure")

// maxMessageLength is the hard per-message limit; longer announcements
// are split on double-newline boundaries so player entries stay whole.
const maxMessageLength = 2000

type WebhookConfig struct {
	// WebhookURLByChannel maps logical channel names to webhook URLs.
	WebhookURLByChannel map[string]string
	Timeout             time.Duration
	Retries             int
	SendWorkers         int
	CircuitBreaker      resilience.CircuitBreakerConfig
}

// WebhookClient delivers engine announcements to Discord webhooks.
// Delivery is fire-and-forget: Send hands the message to a bounded
// worker pool and returns; failures are logged, never surfaced.
type WebhookClient struct {
	client         *http.Client
	urls           map[string]string
	retries        int
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	pool           *ants.Pool
}

func NewWebhookClient(cfg WebhookConfig, logger *slog.Logger) (*WebhookClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.SendWorkers
	if workers < 1 {
		workers = 2
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create send pool: %w", err)
	}

	urls := make(map[string]string, len(cfg.WebhookURLByChannel))
	for channel, url := range cfg.WebhookURLByChannel {
		urls[channel] = strings.TrimSpace(url)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &WebhookClient{
		client:         &http.Client{Timeout: timeout},
		urls:           urls,
		retries:        cfg.Retries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		pool:           pool,
	}, nil
}

// Send queues the message for delivery. It returns an error only when
// the channel is unknown or the pool is shut down; delivery itself is
// asynchronous.
func (c *WebhookClient) Send(ctx context.Context, channel, text string) error {
	url, ok := c.urls[channel]
	if !ok || url == "" {
		return fmt.Errorf("no webhook configured for channel %q", channel)
	}

	chunks := splitMessage(text, maxMessageLength)
	sendCtx := context.WithoutCancel(ctx)

	return c.pool.Submit(func() {
		for _, chunk := range chunks {
			if err := c.postWithRetry(sendCtx, url, chunk); err != nil {
				c.logger.WarnContext(sendCtx, "discord delivery dropped", "channel", channel, "error", err)
				return
			}
		}
	})
}

func (c *WebhookClient) Close() {
	c.pool.Release()
}

func (c *WebhookClient) postWithRetry(ctx context.Context, url, content string) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		lastErr = c.post(ctx, url, content)
		if lastErr == nil {
			return nil
		}
		if !crerr.Is(lastErr, errDiscordTransient) {
			return lastErr
		}
	}

	return lastErr
}

func (c *WebhookClient) post(ctx context.Context, url, content string) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return fmt.Errorf("discord is temporarily unavailable: %w", err)
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	payload := struct {
		Content string `json:"content"`
	}{Content: content}
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(buf.String()))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordFailure()
		return crerr.Mark(err, errDiscordTransient)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.recordSuccess()
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.recordFailure()
		return crerr.Mark(fmt.Errorf("webhook returned status %d", resp.StatusCode), errDiscordTransient)
	default:
		c.recordSuccess()
		return fmt.Errorf("webhook rejected message with status %d", resp.StatusCode)
	}
}

func (c *WebhookClient) recordSuccess() {
	if c.circuitEnabled {
		c.breaker.RecordSuccess()
	}
}

func (c *WebhookClient) recordFailure() {
	if c.circuitEnabled {
		c.breaker.RecordFailure()
	}
}

// splitMessage breaks text into chunks of at most max bytes, splitting
// on blank lines so multi-line entries are never cut mid-entry. An
// oversized single entry is hard-split.
func splitMessage(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	entries := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, entry := range entries {
		for len(entry) > max {
			flush()
			chunks = append(chunks, entry[:max])
			entry = entry[max:]
		}
		if current.Len() > 0 && current.Len()+len(entry)+2 > max {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(entry)
	}
	flush()

	return chunks
}

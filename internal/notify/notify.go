// Package notify delivers run summaries to an external notification service.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	userAgent      = "plexlocalize"
	defaultTimeout = 10 * time.Second
)

// Notifier sends a titled message. Delivery is best effort: Notify never
// blocks the caller and never reports failure.
type Notifier interface {
	Notify(title, text string)
}

// Noop discards every message.
type Noop struct{}

func (Noop) Notify(string, string) {}

// Config selects and tunes the notifier.
type Config struct {
	// URL is the ntfy server base URL, e.g. https://ntfy.sh.
	URL string
	// Topic is appended to URL. A topic that is already a full URL is used as is.
	Topic   string
	Timeout time.Duration
}

// New returns an ntfy notifier when a topic is configured, Noop otherwise.
func New(cfg Config, log *slog.Logger) Notifier {
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return Noop{}
	}
	endpoint := topic
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		endpoint = strings.TrimSuffix(cfg.URL, "/") + "/" + topic
	}
	return NewNtfy(endpoint, cfg.Timeout, log)
}

// Ntfy posts messages to an ntfy topic endpoint.
type Ntfy struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewNtfy creates a notifier posting to endpoint.
func NewNtfy(endpoint string, timeout time.Duration, log *slog.Logger) *Ntfy {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Ntfy{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log.With("component", "notify"),
	}
}

// Notify posts the message in the background. Failures are logged.
func (n *Ntfy) Notify(title, text string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.send(context.Background(), title, text); err != nil {
			n.log.Warn("notification failed", "error", err)
		}
	}()
}

// Wait blocks until all pending notifications are delivered or have failed.
func (n *Ntfy) Wait() {
	n.wg.Wait()
}

func (n *Ntfy) send(ctx context.Context, title, text string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	req.Header.Set("Tags", "plex,localize")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

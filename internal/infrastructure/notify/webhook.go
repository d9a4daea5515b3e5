package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	"github.com/riskibarqy/starleague-draft/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type WebhookConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookNotifier POSTs every draft notification as JSON to one endpoint.
type WebhookNotifier struct {
	client  *http.Client
	url     string
	token   string
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
}

func NewWebhookNotifier(cfg WebhookConfig, logger *logging.Logger) (*WebhookNotifier, error) {
	target, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid NOTIFY_WEBHOOK_URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &WebhookNotifier{
		client:  &http.Client{Timeout: timeout},
		url:     target,
		token:   strings.TrimSpace(cfg.Token),
		logger:  logger,
		breaker: resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}, nil
}

func (w *WebhookNotifier) Name() string {
	return "webhook"
}

func (w *WebhookNotifier) Notify(ctx context.Context, n draft.Notification) error {
	err := w.breaker.Execute(func() error {
		return w.post(ctx, n)
	}, isWebhookCircuitFailure)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		w.logger.WarnContext(ctx, "webhook circuit breaker rejected notification", "action", n.Action, "state", w.breaker.State())
		return crerr.Wrap(err, "webhook is temporarily unavailable")
	}
	return err
}

func (w *WebhookNotifier) post(ctx context.Context, n draft.Notification) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigStd.NewEncoder(buf).Encode(n); err != nil {
		return crerr.Wrap(err, "marshal draft notification")
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", w.url),
			attribute.String("draft.action", n.Action),
			attribute.Int("draft.pick_number", n.CurrentPickNumber),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, strings.NewReader(buf.String()))
	if err != nil {
		return crerr.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Draft-Action", n.Action)
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post webhook url=%s: %v", errWebhookTransient, w.url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: post webhook status=%d url=%s body=%s", errWebhookTransient, resp.StatusCode, w.url, strings.TrimSpace(string(raw)))
		}
		return crerr.Newf("post webhook status=%d url=%s body=%s", resp.StatusCode, w.url, strings.TrimSpace(string(raw)))
	}

	w.logger.DebugContext(ctx, "draft notification delivered", "sink", w.Name(), "action", n.Action)
	return nil
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

// Only transport errors and 408/429/5xx count against the breaker.
func isWebhookCircuitFailure(err error) bool {
	return stderrors.Is(err, errWebhookTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

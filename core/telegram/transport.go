package telegram

import (
	"net"
	"net/http"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// NewPoller picks the update source for cfg. cfg is expected to have passed
// coreconfig.Normalize.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	timeout := time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultLongPollTimeout
	}
	return &tele.LongPoller{Timeout: timeout}
}

// ClientOptions tunes the HTTP client used for Bot API calls.
type ClientOptions struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// DefaultClientOptions leaves room for a full long poll inside Timeout.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{Timeout: 30 * time.Second, Retries: 3, Backoff: 2 * time.Second}
}

// NewHTTPClient returns a client whose transport retries transient network
// failures of replayable requests.
func NewHTTPClient(opts ClientOptions) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &retryTransport{next: base, retries: opts.Retries, backoff: opts.Backoff},
	}
}

type retryTransport struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	cur := req
	for attempt := 1; ; attempt++ {
		resp, err := t.next.RoundTrip(cur)
		if err == nil || attempt > t.retries || !replayable || !netutil.ShouldRetry(err) {
			return resp, err
		}
		if err := netutil.Sleep(req.Context(), t.backoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
		cur = req.Clone(req.Context())
		if req.GetBody != nil {
			if cur.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		}
	}
}

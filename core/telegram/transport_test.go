package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/quizbot/core/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestNewPoller(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll
	lp, ok := NewPoller(cfg).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, lp.Timeout)

	cfg.Telegram.LongPollTimeoutSeconds = 25
	assert.Equal(t, 25*time.Second, NewPoller(cfg).(*tele.LongPoller).Timeout)

	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	cfg.Webhook.URL = "https://quiz.example.org/hook"
	wh, ok := NewPoller(cfg).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://quiz.example.org/hook", wh.Endpoint.PublicURL)
}

func TestRetryTransportReplaysBody(t *testing.T) {
	var bodies []string
	rt := &retryTransport{
		retries: 2,
		next: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if len(bodies) < 3 {
				return nil, timeoutErr{}
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
	}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, "https://api.telegram.org/bot/sendMessage", strings.NewReader("hi"))
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"hi", "hi", "hi"}, bodies)
}

func TestRetryTransportStops(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		retries: 5,
		next: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("tls: bad certificate")
		}),
	}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "https://api.telegram.org", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	calls = 0
	rt.backoff = time.Hour
	rt.next = roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, timeoutErr{}
	})
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, "https://api.telegram.org", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(chain []Middleware) []string {
		out := make([]string, len(chain))
		for i, mw := range chain {
			out[i] = mw.Name
		}
		return out
	}
	assert.Equal(t, []string{"recover", "logger", "counters"}, names(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{}
	cfg.RateLimit.IntervalMS = 500
	cfg.RateLimit.ExcludeUpdates = []string{coreconfig.UpdateCallback}
	assert.Equal(t, []string{"recover", "rate_limit", "logger", "counters"}, names(DefaultMiddlewares(cfg, nil)))

	opts, ok := rateLimitOptions(cfg, nil)
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, opts.Interval)
	assert.Contains(t, opts.Exclude, "callback")
}

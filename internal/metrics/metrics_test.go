package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/internal/dialogue"
)

func TestObserveTransition(t *testing.T) {
	m := New()
	m.ObserveTransition(dialogue.Start{}, dialogue.AwaitingTitle{}, "ok", 3*time.Millisecond)
	m.ObserveTransition(dialogue.Start{}, dialogue.AwaitingTitle{}, "ok", time.Millisecond)
	m.ObserveTransition(dialogue.AwaitingTitle{}, dialogue.AwaitingTitle{}, "rejected", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("start", "construction.awaiting_title", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("construction.awaiting_title", "construction.awaiting_title", "rejected")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestObserveSend(t *testing.T) {
	m := New()
	m.ObserveSend("sendMessage", "ok", 1, 20*time.Millisecond)
	m.ObserveSend("sendMessage", "timeout", 3, time.Second)
	m.ObserveSend("answerCallbackQuery", "ok", 1, time.Millisecond)

	assert.Equal(t, 3, testutil.CollectAndCount(m.sends))
}

func TestQuizCounters(t *testing.T) {
	m := New()
	m.QuizCreated(context.Background(), "T")
	m.QuizCompleted(context.Background(), "T", 1, 2)
	m.QuizCompleted(context.Background(), "T", 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.created))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.completed))
	assert.Equal(t, 1, testutil.CollectAndCount(m.scoreRatio))
}

func TestHandlerServesMetricsAndHealth(t *testing.T) {
	m := New()
	var failures uint64 = 3
	m.WatchSendErrors(func() uint64 { return failures })
	m.QuizCreated(context.Background(), "T")

	srv := httptest.NewServer(Handler(m.Registry()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	text := string(body)
	assert.True(t, strings.Contains(text, "quizbot_quizzes_created_total 1"))
	assert.True(t, strings.Contains(text, "quizbot_send_failures_total 3"))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", Handler(New().Registry())) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

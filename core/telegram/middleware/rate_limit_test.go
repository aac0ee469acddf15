package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func messageFrom(userID int64) tele.Context {
	return (&tele.Bot{}).NewContext(tele.Update{
		ID:      1,
		Message: &tele.Message{Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID}, Text: "hi"},
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		OnLimited: func(tele.Context) error { limited++; return nil },
		now:       func() time.Time { return clock },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	assert.NoError(t, h(messageFrom(1)))
	assert.NoError(t, h(messageFrom(1)))
	assert.NoError(t, h(messageFrom(2)))
	assert.Equal(t, 2, handled)
	assert.Equal(t, 1, limited)

	clock = clock.Add(time.Second)
	assert.NoError(t, h(messageFrom(1)))
	assert.Equal(t, 3, handled)
}

func TestRateLimitExclusions(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })
	for range 3 {
		assert.NoError(t, h(messageFrom(1)))
	}
	assert.Equal(t, 3, handled)
}

func TestLimiterSweeps(t *testing.T) {
	now := time.Now()
	l := &limiter{interval: time.Second, last: make(map[int64]time.Time)}
	assert.True(t, l.allow(1, now))
	assert.True(t, l.allow(2, now))
	assert.True(t, l.allow(3, now.Add(2*time.Second)))
	assert.Len(t, l.last, 1)
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "callback", UpdateKind(tele.Update{Callback: &tele.Callback{}}))
	assert.Equal(t, "message", UpdateKind(tele.Update{Message: &tele.Message{}}))
	assert.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestCounters(t *testing.T) {
	c := messageFrom(1)
	err := CountersMiddleware(func(c tele.Context) error {
		CountMessage(c, false)
		CountMessage(c, true)
		return nil
	})(c)
	assert.NoError(t, err)
	n, kb := Counters(c)
	assert.Equal(t, 2, n)
	assert.True(t, kb)
	CountMessage(nil, true)
}

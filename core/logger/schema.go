package logger

import (
	"log/slog"
	"strings"
)

// Outcome values recorded on transition and handler summaries.
const (
	OutcomeOK       = "ok"
	OutcomeFail     = "fail"
	OutcomeRejected = "rejected"
	OutcomeFallback = "fallback"
	OutcomeTimeout  = "timeout"
)

type vocabulary map[string]struct{}

func words(ws ...string) vocabulary {
	v := make(vocabulary, len(ws))
	for _, w := range ws {
		v[w] = struct{}{}
	}
	return v
}

// canonical lowercases raw and reports whether it belongs to v.
func (v vocabulary) canonical(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	_, ok := v[raw]
	return raw, ok && raw != ""
}

var (
	statuses = words("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	outcomes = words(OutcomeOK, OutcomeFail, OutcomeRejected, OutcomeFallback, OutcomeTimeout, "cancelled", "rate_limited")
)

// levelName renders the four base levels by name and anything in between
// with slog's offset notation.
func levelName(l slog.Level) string {
	return strings.ToUpper(l.String())
}

// defaultKeyOrder puts the envelope first, then request scope, then the
// dialogue and quiz fields, then transport details.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "handler",
	"state", "next_state", "outcome", "duration_ms", "actions", "op",
	"quiz", "question", "answer", "score", "total",
	"cb_key", "messages", "kb", "count", "payload", "username",
	"backend", "mode", "listen", "public_url", "db", "host", "port",
	"err", "cause", "retryable", "attempts", "backoff_ms", "rate_limited",
}

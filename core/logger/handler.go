package logger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level  slog.Leveler
	writer *asyncWriter
	// errWriter additionally receives WARN and above when set.
	errWriter *asyncWriter
	format    logFormat
	keyOrder  []string
}

// structuredHandler renders one flat line per record: attrs are flattened
// with dotted group names and ctx metadata is merged in.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	f := h.fields(ctx, r)
	var line []byte
	if h.cfg.format == formatJSON {
		var err error
		if line, err = encodeJSON(f, h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = encodeKV(f, h.cfg.keyOrder)
	}
	line = append(line, '\n')

	if err := h.cfg.writer.Write(line); err != nil {
		return err
	}
	if h.cfg.errWriter != nil && r.Level >= slog.LevelWarn {
		return h.cfg.errWriter.Write(line)
	}
	return nil
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, prefixed(h.prefix, a))
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func prefixed(prefix string, a slog.Attr) slog.Attr {
	if prefix == "" {
		return a
	}
	return slog.Attr{Key: joinKey(prefix, a.Key), Value: a.Value}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// fields assembles the record: handler attrs, record attrs, ctx metadata,
// then defaults and enum normalization.
func (h *structuredHandler) fields(ctx context.Context, r slog.Record) map[string]any {
	f := make(map[string]any, 16)
	ts := r.Time.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	f["level"] = levelName(r.Level)
	if h.cfg.format == formatJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}

	for _, a := range h.attrs {
		flatten(f, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(f, h.prefix, a)
		return true
	})
	mergeScope(f, scopeFrom(ctx))

	if rid, ok := f["rid"].(string); ok && rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if h.cfg.format == formatJSON {
				f["rid_full"] = rid
			}
			f["rid"] = compact
		}
	}
	if ev, _ := f["event"].(string); ev == "" {
		f["event"] = r.Message
		if r.Message == "" {
			f["event"] = "unknown"
		}
	}
	if comp, _ := f["component"].(string); comp == "" {
		f["component"] = CompApp
	}
	normalizeEnums(f)
	for k, v := range f {
		if v == nil || v == "" {
			delete(f, k)
		}
	}
	return f
}

func flatten(f map[string]any, prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			flatten(f, key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := plainValue(key, v); ok {
		f[k] = val
	}
}

// mergeScope adds ctx metadata without overriding explicit attrs.
func mergeScope(f map[string]any, s scope) {
	set := func(key string, val any, present bool) {
		if _, exists := f[key]; present && !exists {
			f[key] = val
		}
	}
	set("rid", s.rid, s.rid != "")
	set("update_id", s.updateID, s.updateID != 0)
	set("user_id", s.userID, s.userID != 0)
	set("chat_id", s.chatID, s.chatID != 0)
	set("handler", s.handler, s.handler != "")
	set("state", s.state, s.state != "")
}

// normalizeEnums canonicalizes status and drops outcomes outside the known
// set so that dashboards keyed on them stay bounded.
func normalizeEnums(f map[string]any) {
	if s, ok := f["status"].(string); ok && s != "" {
		f["status"], _ = statuses.canonical(s)
	}
	if o, ok := f["outcome"].(string); ok && o != "" {
		if norm, valid := outcomes.canonical(o); valid {
			f["outcome"] = norm
		} else {
			delete(f, "outcome")
		}
	}
}

// durationKey maps duration attributes onto the *_ms naming used across logs.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

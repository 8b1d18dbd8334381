package report

import (
	"bytes"
	"context"
	"io"
	"sync"

	"golang.org/x/exp/slog"
)

const severityKey = "type"

// colorHandler writes the severity tag as a raw ANSI-colored prefix and hands the rest of
// the record to a text handler. The text handler quotes control bytes, so the tag cannot be
// carried as an attribute value.
type colorHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	buf   *bytes.Buffer
	inner slog.Handler
}

func newColorHandler(opts slog.HandlerOptions, w io.Writer) *colorHandler {
	buf := new(bytes.Buffer)
	return &colorHandler{mu: new(sync.Mutex), out: w, buf: buf, inner: opts.NewTextHandler(buf)}
}

func (h *colorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	return &clone
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	return &clone
}

func (h *colorHandler) Handle(ctx context.Context, rec slog.Record) error {
	tag := ""
	stripped := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) {
		if a.Key == severityKey && tag == "" {
			tag = a.Value.String()
			return
		}
		stripped.AddAttrs(a)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Reset()
	if tag != "" {
		h.buf.WriteString(colorOf(tag))
		h.buf.WriteString(tag)
		h.buf.WriteString(colorReset)
		h.buf.WriteByte(' ')
	}
	if err := h.inner.Handle(ctx, stripped); err != nil {
		return err
	}
	_, err := h.out.Write(h.buf.Bytes())
	return err
}

func colorOf(tag string) string {
	sev, err := ParseSeverity(tag)
	if err != nil || int(sev) >= len(severityColors) {
		return colorReset
	}
	return severityColors[sev]
}

// The code in this package is derivative of https://gitlab.com/greyxor/slogor.
// Mount of this source code is governed by a MIT license that can be found
// at https://gitlab.com/greyxor/slogor/-/blob/main/LICENSE?ref_type=heads.

package slogpretty

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/istio/proxy-sub034/internal/ansi"
)

const (
	maxBufferSize     = 16 << 10 // 16384
	initialBufferSize = 1024
)

var _ slog.Handler = (*Handler)(nil)

var logBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufferSize)
		return &b
	},
}

var timeFormat = fmt.Sprintf("%s %s", time.DateOnly, time.TimeOnly)

func freeBuf(b *[]byte) {
	if cap(*b) <= maxBufferSize {
		*b = (*b)[:0]
		logBufPool.Put(b)
	}
}

type groupOrAttrs struct {
	attr  slog.Attr
	group string
}

// Handler writes one colorized line per record, with attributes rendered as key=value pairs.
type Handler struct {
	w     io.Writer
	lvl   slog.Leveler
	color bool
	goa   []groupOrAttrs
}

// New returns a Handler writing records at or above level to w. Escape codes are omitted when color
// is false.
func New(w io.Writer, level slog.Leveler, color bool) *Handler {
	return &Handler{
		w:     &lockedWriter{w: w},
		lvl:   level,
		color: color,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	bufp := logBufPool.Get().(*[]byte)
	buf := *bufp

	defer func() {
		*bufp = buf
		freeBuf(bufp)
	}()

	buf = append(buf, "[PATHMATCH] "...)

	if !record.Time.IsZero() {
		buf = h.appendStyle(buf, ansi.Faint)
		buf = append(buf, record.Time.Format(timeFormat)...)
		buf = h.appendStyle(buf, ansi.NormalIntensity)
		buf = append(buf, ' ')
	}

	buf = append(buf, "| "...)
	buf = h.appendStyle(buf, levelColor(record.Level))
	buf = append(buf, fmt.Sprintf("%-5s", record.Level.String())...)
	buf = h.appendStyle(buf, ansi.Reset)
	buf = append(buf, " | "...)
	buf = append(buf, record.Message...)
	buf = append(buf, " | "...)

	prefix := ""
	for _, goa := range h.goa {
		if goa.group != "" {
			prefix += goa.group + "."
			continue
		}
		buf = h.appendAttr(buf, prefix, goa.attr)
	}

	record.Attrs(func(attr slog.Attr) bool {
		buf = h.appendAttr(buf, prefix, attr)
		return true
	})

	// Replace the trailing space by an EOL.
	buf[len(buf)-1] = '\n'

	if _, err := h.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write buffer: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	goa := make([]groupOrAttrs, len(h.goa), len(h.goa)+len(attrs))
	copy(goa, h.goa)
	for _, attr := range attrs {
		goa = append(goa, groupOrAttrs{attr: attr})
	}
	return &Handler{w: h.w, lvl: h.lvl, color: h.color, goa: goa}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	goa := make([]groupOrAttrs, len(h.goa), len(h.goa)+1)
	copy(goa, h.goa)
	return &Handler{w: h.w, lvl: h.lvl, color: h.color, goa: append(goa, groupOrAttrs{group: name})}
}

func (h *Handler) appendStyle(buf []byte, code string) []byte {
	if !h.color {
		return buf
	}
	return append(buf, code...)
}

func (h *Handler) appendAttr(buf []byte, prefix string, attr slog.Attr) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}

	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			buf = h.appendAttr(buf, prefix, a)
		}
		return buf
	}

	buf = h.appendStyle(buf, ansi.Faint)
	buf = h.appendStyle(buf, ansi.Bold)
	buf = append(buf, prefix...)
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	buf = h.appendStyle(buf, ansi.NormalIntensity)

	switch attr.Key {
	case "method":
		buf = h.appendStyle(buf, ansi.BgBlue)
		buf = append(buf, ' ')
		buf = append(buf, attr.Value.String()...)
		buf = append(buf, ' ')
	case "template", "existing":
		buf = h.appendStyle(buf, ansi.FgYellow)
		buf = append(buf, attr.Value.String()...)
	case "error":
		buf = h.appendStyle(buf, ansi.FgRed)
		buf = append(buf, attr.Value.String()...)
	default:
		buf = h.appendStyle(buf, ansi.FgCyan)
		buf = append(buf, attr.Value.String()...)
	}
	buf = h.appendStyle(buf, ansi.Reset)
	return append(buf, ' ')
}

type lockedWriter struct {
	w io.Writer
	sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	n, err = w.w.Write(p)
	w.Unlock()
	return
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansi.FgRed
	case level >= slog.LevelWarn:
		return ansi.FgYellow
	case level >= slog.LevelInfo:
		return ansi.FgGreen
	default:
		return ansi.FgMagenta
	}
}

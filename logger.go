// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"context"
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func (b *Builder[T]) logRegistered(method, template string, tmpl *Template) {
	b.cfg.logger.LogAttrs(
		context.Background(),
		slog.LevelDebug,
		"template registered",
		slog.String("method", method),
		slog.String("template", template),
		slog.String("verb", tmpl.Verb),
		slog.Int("variables", len(tmpl.Variables)),
	)
}

func (b *Builder[T]) logRejected(method, template string, err error) {
	b.cfg.logger.LogAttrs(
		context.Background(),
		slog.LevelWarn,
		"template rejected",
		slog.String("method", method),
		slog.String("template", template),
		slog.String("error", err.Error()),
	)
}

func (b *Builder[T]) logDuplicate(method, template string, conflict *RouteConflictError) {
	b.cfg.logger.LogAttrs(
		context.Background(),
		slog.LevelWarn,
		"duplicate template ignored",
		slog.String("method", method),
		slog.String("template", template),
		slog.String("existing", conflict.Existing),
		slog.String("policy", b.cfg.duplicatePolicy.String()),
	)
}

// Package logging holds the silent default logger the engine packages fall back to, so a
// book logs nothing unless its host passes a logger in.
package logging

import (
	"context"
	"log/slog"
)

// nopHandler discards every record. Enabled returns false so callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Nop returns a logger that silently discards all output.
func Nop() *slog.Logger { return slog.New(nopHandler{}) }

// OrNop returns l, or a silent logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

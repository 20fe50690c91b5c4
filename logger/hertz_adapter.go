package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

var _ hlog.FullLogger = (*HertzSlogAdapter)(nil)

// HertzSlogAdapter forwards hertz's hlog output to slog.
type HertzSlogAdapter struct {
	logger *slog.Logger
}

func NewHertzSlogAdapter(logger *slog.Logger) *HertzSlogAdapter {
	return &HertzSlogAdapter{logger: logger.With("component", "hertz")}
}

func (h *HertzSlogAdapter) Trace(v ...any)  { h.logger.Debug(fmt.Sprint(v...)) }
func (h *HertzSlogAdapter) Debug(v ...any)  { h.logger.Debug(fmt.Sprint(v...)) }
func (h *HertzSlogAdapter) Info(v ...any)   { h.logger.Info(fmt.Sprint(v...)) }
func (h *HertzSlogAdapter) Notice(v ...any) { h.logger.Info(fmt.Sprint(v...)) }
func (h *HertzSlogAdapter) Warn(v ...any)   { h.logger.Warn(fmt.Sprint(v...)) }
func (h *HertzSlogAdapter) Error(v ...any)  { h.logger.Error(fmt.Sprint(v...)) }
func (h *HertzSlogAdapter) Fatal(v ...any)  { h.logger.Error(fmt.Sprint(v...)) }

func (h *HertzSlogAdapter) Tracef(format string, v ...any) {
	h.logger.Debug(fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) Debugf(format string, v ...any) {
	h.logger.Debug(fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) Infof(format string, v ...any) {
	h.logger.Info(fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) Noticef(format string, v ...any) {
	h.logger.Info(fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) Warnf(format string, v ...any) {
	h.logger.Warn(fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) Errorf(format string, v ...any) {
	h.logger.Error(fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) Fatalf(format string, v ...any) {
	h.logger.Error(fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) CtxTracef(ctx context.Context, format string, v ...any) {
	h.logger.DebugContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) CtxDebugf(ctx context.Context, format string, v ...any) {
	h.logger.DebugContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) CtxInfof(ctx context.Context, format string, v ...any) {
	h.logger.InfoContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) CtxNoticef(ctx context.Context, format string, v ...any) {
	h.logger.InfoContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) CtxWarnf(ctx context.Context, format string, v ...any) {
	h.logger.WarnContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) CtxErrorf(ctx context.Context, format string, v ...any) {
	h.logger.ErrorContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HertzSlogAdapter) CtxFatalf(ctx context.Context, format string, v ...any) {
	h.logger.ErrorContext(ctx, fmt.Sprintf(format, v...))
}

// SetLevel is a no-op; the slog handler owns the level.
func (h *HertzSlogAdapter) SetLevel(hlog.Level) {}

// SetOutput is a no-op; the slog handler owns the writer.
func (h *HertzSlogAdapter) SetOutput(io.Writer) {}

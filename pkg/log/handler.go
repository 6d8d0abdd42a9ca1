package log

import (
	"context"
	"log/slog"

	crdb "github.com/cockroachdb/errors"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// ErrFmtHandler decorates records that carry an "error" attribute. It
// adds the cockroachdb/errors stack trace under StacktraceAttrKey and,
// for gaussrank's structured errors, a stable code under ErrorCodeKey.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		err, _ = attr.Value.Any().(error)
		return false
	})
	if err == nil {
		return eh.handler.Handle(ctx, r)
	}

	if code := errorCode(err); code != "" {
		r.AddAttrs(slog.String(ErrorCodeKey, code))
	}
	if st := stacktrace(err); st != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, st))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// errorCode maps err to one of the Error* values, or "" for errors
// gaussrank does not define.
func errorCode(err error) string {
	var (
		notFitted *errors.NotFittedError
		dimension *errors.DimensionError
		invalid   *errors.ValidationError
	)
	switch {
	case errors.As(err, &notFitted):
		return ErrorNotFitted
	case errors.As(err, &dimension):
		return ErrorDimensionMismatch
	case errors.Is(err, errors.ErrEmptyData):
		return ErrorEmptyData
	case errors.As(err, &invalid):
		return ErrorInvalidInput
	}
	return ""
}

func stacktrace(err error) string {
	if details := crdb.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	return ""
}

package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestFrom(t *testing.T) {
	t.Run("falls back to default logger", func(t *testing.T) {
		gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
	})

	t.Run("returns logger embedded in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		ctx := logging.With(context.Background(), logger)

		logging.From(ctx).Info("hello", "k", "v")
		gt.String(t, buf.String()).Contains(`"msg":"hello"`)
		gt.String(t, buf.String()).Contains(`"k":"v"`)
	})
}

func TestSetDefault(t *testing.T) {
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	var buf bytes.Buffer
	logging.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	logging.Default().Warn("replaced")
	gt.String(t, buf.String()).Contains("replaced")

	logging.SetDefault(nil)
	logging.Default().Warn("still replaced")
	gt.String(t, buf.String()).Contains("still replaced")
}

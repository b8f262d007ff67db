package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/asclepius/pkg/utils/errutil"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

func newLoggedContext() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return logging.With(context.Background(), logger), &buf
}

func TestHandle(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		gt.NoError(t, errutil.Handle(context.Background(), nil, "noop"))
	})

	t.Run("goerr values are logged and error is returned", func(t *testing.T) {
		ctx, buf := newLoggedContext()
		base := errors.New("boom")
		err := goerr.Wrap(base, "failed to build index", goerr.V("documents", 3))

		got := errutil.Handle(ctx, err, "index build failed")
		gt.Error(t, got).Is(base)
		gt.String(t, buf.String()).Contains("index build failed")
		gt.String(t, buf.String()).Contains("documents")
	})
}

func TestHandleHTTP(t *testing.T) {
	ctx, buf := newLoggedContext()
	w := httptest.NewRecorder()

	errutil.HandleHTTP(ctx, w, errors.New("bad query"), http.StatusBadRequest)

	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	gt.String(t, w.Body.String()).Contains("bad query")
	gt.String(t, buf.String()).Contains("HTTP error")
}

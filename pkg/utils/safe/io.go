package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

// Close safely closes an io.Closer and logs any errors.
// It handles nil closers gracefully.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// ErrTooLarge is returned by ReadAll when the input exceeds the limit
var ErrTooLarge = goerr.New("input exceeds size limit")

// ReadAll reads r until EOF. Input longer than limit fails with ErrTooLarge; limit <= 0 means no limit.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, goerr.Wrap(ErrTooLarge, "read aborted", goerr.V("limit", limit))
	}
	return data, nil
}

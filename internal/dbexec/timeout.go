package dbexec

import (
	"context"
	"time"
)

// TimeoutExecutor bounds every query with a deadline. The deadline covers
// row iteration as well, so it is released only when the rows are closed.
type TimeoutExecutor struct {
	inner   QueryExecutor
	timeout time.Duration
}

// NewTimeoutExecutor wraps inner. A non-positive timeout returns inner unchanged.
func NewTimeoutExecutor(inner QueryExecutor, timeout time.Duration) QueryExecutor {
	if timeout <= 0 {
		return inner
	}
	return &TimeoutExecutor{inner: inner, timeout: timeout}
}

func (e *TimeoutExecutor) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	rows, err := e.inner.QueryContext(queryCtx, query, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &deadlineRows{Rows: rows, cancel: cancel}, nil
}

type deadlineRows struct {
	Rows
	cancel context.CancelFunc
}

func (r *deadlineRows) Close() error {
	defer r.cancel()
	return r.Rows.Close()
}

package agent

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/soyeahso/drivedesk/internal/llm"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/metrics"
)

const (
	DefaultRetries      = 3
	DefaultRetryBackoff = 500 * time.Millisecond
)

// RetryClient retries rate-limited engine calls after a fixed pause.
// Every other error is returned on first occurrence.
type RetryClient struct {
	inner   llm.Client
	retries uint64
	wait    time.Duration
	log     *logging.Logger
}

// NewRetryClient wraps inner. retries is the number of extra attempts made
// after the first one is rate limited.
func NewRetryClient(inner llm.Client, retries int, wait time.Duration, log *logging.Logger) *RetryClient {
	if retries < 0 {
		retries = 0
	}
	if wait <= 0 {
		wait = DefaultRetryBackoff
	}
	return &RetryClient{inner: inner, retries: uint64(retries), wait: wait, log: log.Sub("retry")}
}

func (c *RetryClient) Name() string { return c.inner.Name() }

func (c *RetryClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var resp *llm.CompletionResponse
	op := func() error {
		r, err := c.inner.Complete(ctx, req)
		if err != nil {
			if llm.IsRateLimited(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.wait), c.retries),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		metrics.EngineRetry()
		c.log.Warn().Err(err).Dur("wait", wait).Str("provider", c.inner.Name()).Msg("engine rate limited, retrying")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

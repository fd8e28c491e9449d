package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// doWithRetry sends req, retrying 429 responses up to maxRetries times. The
// body is rebuilt from payload on every attempt because the previous
// attempt consumed it.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, payload []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if payload != nil {
			req.Body = io.NopCloser(bytes.NewReader(payload))
			req.ContentLength = int64(len(payload))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}
		resp.Body.Close()

		wait := retryDelay(resp, attempt, c.backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryDelay honours a positive Retry-After (in seconds) and otherwise
// doubles base per attempt.
func retryDelay(resp *http.Response, attempt int, base time.Duration) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1<<uint(attempt)) * base
}

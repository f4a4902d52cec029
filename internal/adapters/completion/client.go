// internal/adapters/completion/client.go
package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"global_explorer/internal/adapters/observability"
	"global_explorer/internal/domain"
)

// Client posts the conversation as a JSON array and reads the model output
// from the "msg" field of the reply.
type Client struct {
	url       string
	hc        *http.Client
	key       string
	keyHeader string
	rl        *rate.Limiter
	retries   int
}

type reply struct {
	Msg string `json:"msg"`
}

const retryBase = 200 * time.Millisecond

var (
	ErrUnauthorized = errors.New("completion: unauthorized")
	ErrForbidden    = errors.New("completion: forbidden")
)

// New builds a client. retries is the number of extra attempts on 429 and
// transient 5xx; zero disables retrying.
func New(url, key, keyHeader string, rps int, timeout time.Duration, retries int) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("completion URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if keyHeader == "" {
		keyHeader = "X-API-Key"
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		url:       url,
		hc:        &http.Client{Timeout: timeout},
		key:       key,
		keyHeader: keyHeader,
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
		retries:   retries,
	}, nil
}

func (c *Client) Complete(ctx context.Context, conversation []domain.Message) (string, error) {
	body, err := json.Marshal(conversation)
	if err != nil {
		return "", err
	}
	var out reply
	if err := c.post(ctx, body, &out); err != nil {
		return "", err
	}
	// An empty msg is a successful exchange; the caller decides it is unusable.
	return out.Msg, nil
}

// post sends body with client-side rate limiting and decodes the JSON reply into out.
func (c *Client) post(ctx context.Context, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i <= c.retries; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set(c.keyHeader, c.key)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "global-explorer/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("completion", "complete", 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < c.retries && pause(ctx, c.retryWait(ctx, 0, i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("completion", "complete", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}
			return nil

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			asked := retryAfter(resp.Header.Get("Retry-After"), time.Now())
			resp.Body.Close()
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < c.retries && pause(ctx, c.retryWait(ctx, asked, i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// retryWait picks the pause before attempt i+1: the server's Retry-After when
// it sent one, else exponential backoff from retryBase with up to 50% jitter.
// A pause at least as long as the time left to the caller, or as the client
// timeout, is reported as -1: the retry could not finish anyway.
func (c *Client) retryWait(ctx context.Context, asked time.Duration, i int) time.Duration {
	d := asked
	if d <= 0 {
		base := retryBase << i
		d = base + rand.N(base/2+1)
	}
	budget := c.hc.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); budget <= 0 || left < budget {
			budget = left
		}
	}
	if budget > 0 && d >= budget {
		return -1
	}
	return d
}

// pause sleeps for d and reports whether another attempt should follow.
func pause(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter reads a Retry-After value in seconds or as an HTTP date.
func retryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

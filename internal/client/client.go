// Package client talks to the planner REST API. Authenticated calls take the
// caller's *session.Session explicitly; there is no package-level token.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"appointment-planner/internal/api"
	"appointment-planner/internal/session"
)

type Client struct {
	rc         *resty.Client
	log        zerolog.Logger
	maxRetries int
	backoff    time.Duration
}

// Option configures a Client during construction in New.
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rc.SetTimeout(d)
		}
	}
}

// WithRetry retries GET requests up to n times on network errors and 5xx
// answers, starting at initial and doubling.
func WithRetry(n int, initial time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = initial
	}
}

// WithLogger logs every request at debug level; with debug set resty also
// dumps request and response.
func WithLogger(log zerolog.Logger, debug bool) Option {
	return func(c *Client) {
		c.log = log
		c.rc.SetLogger(restyLogger{log})
		c.rc.SetDebug(debug)
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		rc: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second),
		log:        zerolog.Nop(),
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.log.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("api call")
		return nil
	})
	return c
}

// call sends one request and unwraps the data envelope. A nil session sends
// no token; an inactive one fails with session.ErrNoSession before any I/O.
func call[T any](ctx context.Context, c *Client, s *session.Session, method, path string, query url.Values, body any) (T, error) {
	var zero T
	req := c.rc.R().SetContext(ctx)
	if s != nil {
		if _, err := session.Require(s); err != nil {
			return zero, err
		}
		req.SetAuthToken(s.Token)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	var env api.Envelope[T]
	req.SetResult(&env).SetError(&api.ErrorResponse{})

	resp, err := c.send(req, method, path)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return zero, apiError(resp)
	}
	return env.Data, nil
}

func (c *Client) send(req *resty.Request, method, path string) (*resty.Response, error) {
	if method != http.MethodGet || c.maxRetries <= 0 {
		return req.Execute(method, path)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.backoff
	exp.Multiplier = 2
	exp.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.maxRetries)), req.Context())

	var resp *resty.Response
	op := func() error {
		var err error
		resp, err = req.Execute(method, path)
		if err != nil {
			return err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("server answered %d", resp.StatusCode())
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.Debug().Err(err).Str("path", path).Dur("wait", wait).Msg("retrying")
	}
	err := backoff.RetryNotify(op, b, notify)
	if err != nil && resp != nil && resp.StatusCode() >= http.StatusInternalServerError {
		// out of retries: report the last answer
		return resp, nil
	}
	return resp, err
}

type restyLogger struct{ log zerolog.Logger }

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }

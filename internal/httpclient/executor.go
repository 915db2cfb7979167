package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the per-attempt HTTP timeout.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// Request describes a GET against a provider's base URL.
type Request struct {
	Path    string
	Query   map[string]string
	Headers map[string]string
}

// Response is a successful (2xx) upstream response.
type Response struct {
	StatusCode int
	Body       []byte
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Executor issues paced, retried GET requests against one provider.
type Executor struct {
	name    string
	client  *resty.Client
	policy  RetryPolicy
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// Option configures an Executor.
type Option func(*Executor)

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(e *Executor) {
		e.policy = policy
	}
}

// WithRateLimit paces requests to requestsPerSecond. Zero disables pacing.
func WithRateLimit(requestsPerSecond int) Option {
	return func(e *Executor) {
		if requestsPerSecond <= 0 {
			e.limiter = nil
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout > 0 {
			e.client.SetTimeout(timeout)
		}
	}
}

// NewExecutor creates an executor for the provider at baseURL.
func NewExecutor(name, baseURL string, logger arbor.ILogger, opts ...Option) *Executor {
	e := &Executor{
		name:   name,
		client: resty.New().SetBaseURL(baseURL).SetTimeout(DefaultTimeout),
		policy: DefaultRetryPolicy(),
		logger: logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Name returns the provider name used in logs.
func (e *Executor) Name() string {
	return e.name
}

// Execute performs req, retrying transport failures and 429/5xx responses.
// Other non-2xx statuses fail immediately with *StatusError.
func (e *Executor) Execute(ctx context.Context, req Request) (*Response, error) {
	var result *Response

	err := Retry(ctx, e.policy, e.logger, e.name+" "+req.Path, func(ctx context.Context) error {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		e.logger.Debug().
			Str("provider", e.name).
			Str("path", req.Path).
			Msg("Upstream request")

		resp, err := e.client.R().
			SetContext(ctx).
			SetQueryParams(req.Query).
			SetHeaders(req.Headers).
			Get(req.Path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Path: req.Path, Err: err}
		}

		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			body := resp.String()
			if len(body) > maxErrorBody {
				body = body[:maxErrorBody]
			}
			return &StatusError{StatusCode: resp.StatusCode(), Path: req.Path, Body: body}
		}

		result = &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}
		return nil
	}, IsRetryable)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetJSON executes req and decodes the body into v.
func (e *Executor) GetJSON(ctx context.Context, req Request, v interface{}) error {
	resp, err := e.Execute(ctx, req)
	if err != nil {
		return err
	}
	return resp.DecodeJSON(v)
}

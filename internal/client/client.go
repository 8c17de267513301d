package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ma4z/Hydrenix-Node/internal/domain/ledger"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/resilience"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/tracing"
	"github.com/ma4z/Hydrenix-Node/internal/shared/id"
)

// Config configures a node client.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds one request including retries. Provisioning waits for
	// the agent, so it must exceed the node's capture window.
	Timeout time.Duration
	// MaxRetries applies to read-only calls only; /vm/create is never
	// retried since a retry could start a second sandbox.
	MaxRetries int
	// RateLimit caps requests per second; zero means unlimited.
	RateLimit float64
	Logger    *zap.Logger
}

// DefaultConfig returns a config for a node on localhost.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:3002",
		Timeout:    2 * time.Minute,
		MaxRetries: 3,
	}
}

// APIError is a non-2xx answer from the node.
type APIError struct {
	StatusCode int
	Message    string
	TraceID    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("node returned %d: %s", e.StatusCode, e.Message)
	if e.TraceID != "" {
		msg += " (trace " + e.TraceID + ")"
	}
	return msg
}

// ErrUnauthorized is matched by errors.Is for 401 answers.
var ErrUnauthorized = errors.New("unauthorized")

// Is reports 401 answers as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Session is the node's answer to a successful /vm/create.
type Session struct {
	Message     string `json:"message"`
	ContainerID string `json:"container_id"`
	SSHCommand  string `json:"ssh_command"`
}

// CreateRequest holds the parameters of /vm/create.
type CreateRequest struct {
	RAM   string
	Cores string
	Owner string
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to one node's HTTP API with rate limiting, retries for
// reads and a circuit breaker.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
	apiKey  string

	mu sync.RWMutex
}

type noRetryKey struct{}

// New builds a client from cfg.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Value(noRetryKey{}) != nil {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	// Keep the final response so the node's JSON error reaches the caller.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	r := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient}).
		SetHeader("User-Agent", "hydrenix-nodectl/1.0").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	settings := resilience.DefaultSettings()
	settings.IsSuccessful = func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.StatusCode < http.StatusInternalServerError
		}
		return err == nil
	}
	settings.OnStateChange = func(name string, from, to resilience.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	return &Client{
		resty:   r,
		limiter: limiter,
		breaker: resilience.New("node", settings),
		logger:  logger,
		apiKey:  cfg.APIKey,
	}, nil
}

// SetAPIKey replaces the key sent with every request.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Status calls GET /status.
func (c *Client) Status(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/status", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Create calls GET /vm/create. It is never retried.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	params := map[string]string{
		"ram":   req.RAM,
		"cores": req.Cores,
	}
	if req.Owner != "" {
		params["owner"] = req.Owner
	}

	var out Session
	if err := c.get(context.WithValue(ctx, noRetryKey{}, true), "/vm/create", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List calls GET /vm/list.
func (c *Client) List(ctx context.Context) ([]ledger.Record, error) {
	var out struct {
		Sessions []ledger.Record `json:"sessions"`
	}
	if err := c.get(ctx, "/vm/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	if tracing.GetTraceID(ctx) == "" {
		ctx = tracing.WithSpan(ctx, tracing.TraceID(id.NewRequestID()), "")
	}
	headers := map[string]string{}
	tracing.InjectHeaders(ctx, headers)

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()

	return c.breaker.Call(ctx, func(ctx context.Context) error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetQueryParams(params).
			SetQueryParam("api_key", key).
			SetResult(result).
			SetError(&errorBody{}).
			Get(path)
		if err != nil {
			return fmt.Errorf("request %s: %w", path, err)
		}

		c.logger.Debug("node request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()),
			zap.String("trace_id", resp.Header().Get(tracing.TraceHeader)))

		if resp.IsError() {
			apiErr := &APIError{
				StatusCode: resp.StatusCode(),
				TraceID:    resp.Header().Get(tracing.TraceHeader),
			}
			if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
				apiErr.Message = body.Error
			} else {
				apiErr.Message = strings.TrimSpace(resp.String())
			}
			return apiErr
		}
		return nil
	})
}

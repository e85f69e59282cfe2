package hcloud

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/quantserver/internal/metrics"
	"github.com/imamik/quantserver/internal/util/retry"
	"github.com/imamik/quantserver/pkg/cloud"
)

const providerName = "hetzner"

var _ cloud.Provider = (*Provider)(nil)

// Provider implements cloud.Provider using the Hetzner Cloud API.
type Provider struct {
	client      *hcloud.Client
	maxAttempts int
	backoff     retry.Backoff
	log         logr.Logger
	metrics     *metrics.Recorder
}

// Option configures a Provider.
type Option func(*Provider)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) Option {
	return func(p *Provider) {
		p.client = hc
	}
}

// WithRetry sets the attempt budget for reads and deletes and the linear
// backoff base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Provider) {
		p.maxAttempts = maxAttempts
		p.backoff = retry.Linear(baseDelay)
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(p *Provider) {
		p.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// NewProvider creates a Provider authenticating with token.
func NewProvider(token string, opts ...Option) *Provider {
	p := &Provider{
		client:      hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("quantserver", "")),
		maxAttempts: 3,
		backoff:     retry.Linear(10 * time.Second),
		log:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements cloud.Provider.
func (p *Provider) Name() string {
	return providerName
}

// call runs one API operation under the retry policy. Operations that are
// not idempotent get a single attempt.
func (p *Provider) call(ctx context.Context, op string, idempotent bool, fn func(context.Context) (*hcloud.Response, error)) error {
	attempts := p.maxAttempts
	if !idempotent {
		attempts = 1
	}

	err := retry.Do(ctx, func(attempt int) error {
		p.log.V(1).Info("API request", "op", op, "attempt", attempt, "max", attempts)

		start := time.Now()
		resp, err := fn(ctx)
		latency := time.Since(start)
		p.metrics.RecordAPIRequest(providerName, op, resultOf(resp, err), latency)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return retry.Fatal(ctx.Err())
		}
		if isClientError(resp, err) {
			p.log.Info("Client error", "op", op, "error", err.Error())
			return retry.Fatal(&cloud.Error{
				Kind:       cloud.KindClient,
				Op:         op,
				StatusCode: statusCode(resp),
				Err:        err,
			})
		}
		p.log.Info("Attempt failed", "attempt", attempt, "max", attempts, "op", op, "error", err.Error())
		return err
	}, retry.WithMaxAttempts(attempts), retry.WithBackoff(p.backoff))
	if err == nil {
		return nil
	}

	var cerr *cloud.Error
	if errors.As(err, &cerr) {
		return cerr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if !retry.IsExhausted(err) {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.log.Error(err, "All attempts failed", "op", op, "attempts", attempts)
	return &cloud.Error{Kind: cloud.KindExhausted, Op: op, Err: err}
}

func parseID(kind, id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, &cloud.Error{Kind: cloud.KindClient, Op: "parse " + kind + " id", Err: fmt.Errorf("invalid %s id: %q", kind, id)}
	}
	return n, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

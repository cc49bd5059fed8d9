package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"github.com/angelmondragon/taxchat-backend/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultWorkers = 2
)

// Answerer is the surface the chat flow depends on.
type Answerer interface {
	GenerateAnswer(ctx context.Context, text string) (string, error)
}

// GatewayParams wires the gateway.
type GatewayParams struct {
	Provider     Provider
	SystemPrompt string
	Timeout      time.Duration
	Workers      int
	Metrics      *metrics.LLMMetrics
	Logger       *logger.Logger
}

// Gateway runs provider calls on a bounded worker pool. The timeout covers
// queueing and the call itself; once it fires the caller gets GATEWAY_TIMEOUT
// while the provider call keeps its worker slot until it finishes on its own.
type Gateway struct {
	provider     Provider
	systemPrompt string
	timeout      time.Duration
	workers      *semaphore.Weighted
	metrics      *metrics.LLMMetrics
	logg         *logger.Logger
}

type completion struct {
	text string
	err  error
}

func NewGateway(p GatewayParams) (*Gateway, error) {
	if p.Provider == nil {
		return nil, fmt.Errorf("llm provider required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	prompt := strings.TrimSpace(p.SystemPrompt)
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return &Gateway{
		provider:     p.Provider,
		systemPrompt: prompt,
		timeout:      timeout,
		workers:      semaphore.NewWeighted(int64(workers)),
		metrics:      p.Metrics,
		logg:         p.Logger,
	}, nil
}

// NewGatewayFromConfig builds the configured provider and wraps it.
func NewGatewayFromConfig(ctx context.Context, cfg config.LLMConfig, m *metrics.LLMMetrics, logg *logger.Logger) (*Gateway, error) {
	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewGateway(GatewayParams{
		Provider:     provider,
		SystemPrompt: cfg.SystemPrompt,
		Timeout:      cfg.Timeout,
		Workers:      cfg.Workers,
		Metrics:      m,
		Logger:       logg,
	})
}

// GenerateAnswer returns the model's answer to text.
func (g *Gateway) GenerateAnswer(ctx context.Context, text string) (string, error) {
	start := time.Now()
	deadline, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.workers.Acquire(deadline, 1); err != nil {
		return "", g.giveUp(ctx, start, "waiting for an llm worker")
	}

	var abandoned atomic.Bool
	results := make(chan completion, 1)
	prompt := ComposePrompt(g.systemPrompt, text)
	detached := context.WithoutCancel(ctx)

	go func() {
		defer g.workers.Release(1)
		g.metrics.WorkerStarted()
		defer g.metrics.WorkerDone()

		answer, err := g.provider.Complete(detached, prompt)
		results <- completion{text: answer, err: err}

		if abandoned.Load() {
			g.metrics.IncAbandoned()
			g.logg.Warn(detached, "discarded llm result after caller gave up")
		}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			g.metrics.Observe(g.provider.Name(), metrics.OutcomeUpstream, time.Since(start))
			g.logg.Error(ctx, "llm provider call failed", res.err)
			return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, res.err, "llm provider call failed")
		}
		g.metrics.Observe(g.provider.Name(), metrics.OutcomeSuccess, time.Since(start))
		return res.text, nil
	case <-deadline.Done():
		abandoned.Store(true)
		return "", g.giveUp(ctx, start, "waiting for the llm provider")
	}
}

func (g *Gateway) giveUp(ctx context.Context, start time.Time, stage string) error {
	elapsed := time.Since(start)
	if err := ctx.Err(); err != nil && !errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		g.metrics.Observe(g.provider.Name(), metrics.OutcomeCanceled, elapsed)
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "request canceled while "+stage)
	}
	g.metrics.Observe(g.provider.Name(), metrics.OutcomeTimeout, elapsed)
	g.logg.Warn(g.logg.WithField(ctx, "elapsed_ms", elapsed.Milliseconds()), "llm call timed out while "+stage)
	return pkgerrors.New(pkgerrors.CodeTimeout, fmt.Sprintf("llm did not answer within %s", g.timeout))
}

// Close releases provider resources when the provider holds any.
func (g *Gateway) Close() error {
	if c, ok := g.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

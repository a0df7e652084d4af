package expand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
)

// Backend is what Guarded wraps: an LLMExpander or a test double.
type Backend interface {
	Expander
	keywords.Generator
	search.Inferrer
}

// GuardedConfig configures a Guarded collaborator.
type GuardedConfig struct {
	Backend    Backend
	Timeout    time.Duration // per call, covering all attempts; 15s when zero
	Attempts   uint          // 2 when zero
	RetryDelay time.Duration // 250ms when zero
	Logger     *slog.Logger
}

// Guarded bounds every collaborator call with a timeout and a small number
// of retries. Expansion and keyword generation report failures to the
// caller, which applies its fallback. Inference failures are swallowed and
// reported as "unknown".
type Guarded struct {
	backend  Backend
	timeout  time.Duration
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// NewGuarded wraps backend.
func NewGuarded(cfg GuardedConfig) *Guarded {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Guarded{
		backend:  cfg.Backend,
		timeout:  cfg.Timeout,
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
		logger:   cfg.Logger.With("component", "guarded_collaborator"),
	}
}

// Expand implements Expander.
func (g *Guarded) Expand(ctx context.Context, query string, p Perspective) ([]string, error) {
	return guard(ctx, g, "expand", func(ctx context.Context) ([]string, error) {
		return g.backend.Expand(ctx, query, p)
	})
}

// GenerateKeywords implements keywords.Generator.
func (g *Guarded) GenerateKeywords(ctx context.Context, category string, seed []string, n int) ([]string, error) {
	return guard(ctx, g, "generate_keywords", func(ctx context.Context) ([]string, error) {
		return g.backend.GenerateKeywords(ctx, category, seed, n)
	})
}

// InferCategory implements search.Inferrer. It never returns an error.
func (g *Guarded) InferCategory(ctx context.Context, snippet string) (string, error) {
	label, err := guard(ctx, g, "infer_category", func(ctx context.Context) (string, error) {
		return g.backend.InferCategory(ctx, snippet)
	})
	if err != nil {
		return "", nil
	}
	return label, nil
}

type quantity struct {
	n  int
	ok bool
}

// InferQuantity implements search.Inferrer. It never returns an error.
func (g *Guarded) InferQuantity(ctx context.Context, snippet string) (int, bool, error) {
	q, err := guard(ctx, g, "infer_quantity", func(ctx context.Context) (quantity, error) {
		n, ok, err := g.backend.InferQuantity(ctx, snippet)
		return quantity{n, ok}, err
	})
	if err != nil {
		return 0, false, nil
	}
	return q.n, q.ok, nil
}

// guard runs fn under the timeout, retrying failures that are not caused by
// the context. Failures are logged at Warn.
func guard[T any](ctx context.Context, g *Guarded, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if g.backend == nil {
		return zero, fmt.Errorf("%s: no collaborator configured", op)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	v, err := retry.DoWithData(
		func() (T, error) { return fn(ctx) },
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && ctx.Err() == nil &&
				!errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled)
		}),
	)
	if err != nil {
		g.logger.Warn("collaborator call failed, falling back",
			"op", op, "elapsed", time.Since(start), "error", err)
		return zero, err
	}
	return v, nil
}

var (
	_ Backend = (*Guarded)(nil)
	_ Backend = (*LLMExpander)(nil)
)

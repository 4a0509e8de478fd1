package recovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// backoffLadder is the fixed delay sequence indexed by attempt number. Calls
// that fail beyond the ladder keep the final delay.
var backoffLadder = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// Config controls the recovery policy applied to every wrapped source call.
type Config struct {
	// MaxRetries is the retry budget beyond the first attempt.
	MaxRetries int `mapstructure:"max_retries" default:"3"`

	// CallTimeoutSeconds bounds each individual adapter call.
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds" default:"30"`

	// FailureThreshold is the number of consecutive transport failures that
	// opens a source's circuit.
	FailureThreshold int `mapstructure:"failure_threshold" default:"5"`

	// CooldownSeconds is how long an open circuit rejects calls before
	// admitting a half-open probe.
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"60"`

	// OnRetry, when set, is called before each retry sleep. The reconciler
	// uses it to account retries against the running batch.
	OnRetry func(source string, attempt int, err error) `mapstructure:"-"`
}

func (c Config) withDefaults() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 3
	}
	if c.CallTimeoutSeconds <= 0 {
		c.CallTimeoutSeconds = 30
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.CooldownSeconds <= 0 {
		c.CooldownSeconds = 60
	}
	return c
}

// Quarantiner moves a malformed input aside so the batch can proceed without
// it. Implementations log the parse error alongside the moved input.
type Quarantiner interface {
	Quarantine(ctx context.Context, source string, perr *ParseError) error
}

// Controller wraps adapter calls with timeout, retry, and circuit breaking.
// One Controller serves all sources; breakers are keyed by source name.
type Controller struct {
	cfg        Config
	store      StateStore
	clock      Clock
	quarantine Quarantiner
	logger     *zap.Logger

	mu       sync.Mutex
	breakers map[string]*breaker
}

// NewController creates a recovery controller. The state store and clock are
// injected so tests can substitute in-memory fakes; quarantine may be nil if
// no source produces parseable files.
func NewController(cfg Config, store StateStore, clock Clock, quarantine Quarantiner, logger *zap.Logger) *Controller {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:        cfg.withDefaults(),
		store:      store,
		clock:      clock,
		quarantine: quarantine,
		logger:     logger,
		breakers:   make(map[string]*breaker),
	}
}

// Execute runs op for the named source under the recovery policy. It returns
// ErrCircuitOpen without sleeping when the source's circuit is open, the
// original error for permanent failures (ParseError after quarantining), and
// a MaxRetriesError once the retry budget is exhausted.
func (c *Controller) Execute(ctx context.Context, source string, op func(ctx context.Context) error) error {
	br, err := c.breakerFor(ctx, source)
	if err != nil {
		return err
	}

	ok, changed := br.allow(c.clock.Now(), c.cooldown())
	if changed {
		c.persistState(ctx, source, br)
	}
	if !ok {
		return eris.Wrapf(ErrCircuitOpen, "source %s unavailable", source)
	}

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = c.call(ctx, op)
		if lastErr == nil {
			if br.recordSuccess() {
				c.persistState(ctx, source, br)
			}
			return nil
		}

		// Cancellation of the batch context ends the sequence immediately.
		if ctx.Err() != nil {
			return lastErr
		}

		var perr *ParseError
		if errors.As(lastErr, &perr) {
			// A bad file says nothing about source health: no retry, no
			// circuit accounting, exactly one quarantine action.
			c.runQuarantine(ctx, source, perr)
			return lastErr
		}

		if !IsRetryable(lastErr) {
			return lastErr
		}

		br.recordFailure(c.clock.Now(), c.cfg.FailureThreshold)
		c.persistState(ctx, source, br)

		if attempt == attempts-1 {
			break
		}

		delay := backoffDelay(attempt)
		if hint := retryAfterHint(lastErr); hint > 0 {
			delay = hint
		}
		if c.cfg.OnRetry != nil {
			c.cfg.OnRetry(source, attempt+1, lastErr)
		}
		c.logger.Warn("retrying source call",
			zap.String("source", source),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return lastErr
		}
	}

	return &MaxRetriesError{Source: source, Attempts: attempts, Err: lastErr}
}

// ExecuteVal is Execute for operations that return a value.
func ExecuteVal[T any](ctx context.Context, c *Controller, source string, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := c.Execute(ctx, source, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// CircuitState returns the current circuit state for a source, for operator
// visibility and batch failure records.
func (c *Controller) CircuitState(ctx context.Context, source string) (State, error) {
	br, err := c.breakerFor(ctx, source)
	if err != nil {
		return State{}, err
	}
	return br.snapshot(), nil
}

// call runs one attempt under the per-call timeout, mapping a deadline hit to
// a retryable transport error.
func (c *Controller) call(ctx context.Context, op func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.CallTimeoutSeconds)*time.Second)
	defer cancel()

	err := op(callCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return &TransportError{Err: err}
	}
	return err
}

func (c *Controller) runQuarantine(ctx context.Context, source string, perr *ParseError) {
	if c.quarantine == nil {
		return
	}
	if err := c.quarantine.Quarantine(ctx, source, perr); err != nil {
		c.logger.Error("failed to quarantine input",
			zap.String("source", source),
			zap.String("input", perr.Input),
			zap.Error(err),
		)
	}
}

// breakerFor returns the live breaker for a source, loading persisted state
// on first touch.
func (c *Controller) breakerFor(ctx context.Context, source string) (*breaker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if br, ok := c.breakers[source]; ok {
		return br, nil
	}

	br := &breaker{}
	if c.store != nil {
		st, err := c.store.LoadState(ctx, source)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to load circuit state for %s", source)
		}
		if st.State == "" {
			st.State = StateClosed
		}
		br.state = st
	} else {
		br.state = State{State: StateClosed}
	}
	c.breakers[source] = br
	return br, nil
}

func (c *Controller) persistState(ctx context.Context, source string, br *breaker) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveState(ctx, source, br.snapshot()); err != nil {
		c.logger.Error("failed to persist circuit state",
			zap.String("source", source),
			zap.Error(err),
		)
	}
}

func (c *Controller) cooldown() time.Duration {
	return time.Duration(c.cfg.CooldownSeconds) * time.Second
}

func backoffDelay(attempt int) time.Duration {
	if attempt >= len(backoffLadder) {
		attempt = len(backoffLadder) - 1
	}
	return backoffLadder[attempt]
}

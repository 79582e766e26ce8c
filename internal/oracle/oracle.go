// Package oracle drives an external correction service through one
// correction cycle per batch: submit the text, wait for the output to
// change, wait for a human to confirm it, then read the result.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxSamples   = 30
)

// ErrConfirmationAborted is returned by a Surface when the human declined
// to confirm the output.
var ErrConfirmationAborted = errors.New("confirmation aborted")

// Surface is the capability set of a correction service.
type Surface interface {
	// ReplaceInput clears the input and sets it to text.
	ReplaceInput(ctx context.Context, text string) error
	// ReadOutput returns the current output snapshot.
	ReadOutput(ctx context.Context) (string, error)
	// AwaitConfirmation blocks until the human confirmation signal fires.
	AwaitConfirmation(ctx context.Context) error
}

// State is a step of the correction cycle.
type State int

const (
	Idle State = iota
	Submitted
	Polling
	Retrying
	Stabilized
	AwaitingConfirmation
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitted:
		return "submitted"
	case Polling:
		return "polling"
	case Retrying:
		return "retrying"
	case Stabilized:
		return "stabilized"
	case AwaitingConfirmation:
		return "awaiting-confirmation"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition describes one state change of a cycle.
type Transition struct {
	From   State
	To     State
	Round  int
	Sample int
}

type Config struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxSamples   int           `mapstructure:"max_samples" yaml:"max_samples"`
}

type Option func(*Client)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers fn to be called on every state transition.
func WithObserver(fn func(Transition)) Option {
	return func(c *Client) { c.observer = fn }
}

// Client owns a Surface for the duration of each Correct call. Calls are
// serialized; there is never more than one batch in flight.
type Client struct {
	mu       sync.Mutex
	surface  Surface
	cfg      Config
	logger   *zap.Logger
	observer func(Transition)
}

func New(surface Surface, cfg Config, opts ...Option) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}
	c := &Client{
		surface: surface,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cycle is the mutable state of one Correct call.
type cycle struct {
	state  State
	text   string
	prev   string
	round  int
	sample int
	result string
}

// Correct runs one correction cycle for text and returns the confirmed
// output. A blank text returns "" without touching the surface.
//
// There is no retry limit and no internal timeout: the cycle ends only when
// the output changes and is confirmed, or when ctx is done.
func (c *Client) Correct(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cy := &cycle{state: Idle, text: text}
	for cy.state != Done {
		next, err := c.step(ctx, cy)
		if err != nil {
			return "", fmt.Errorf("oracle: %s: %w", cy.state, err)
		}
		c.transition(cy, next)
	}
	return cy.result, nil
}

func (c *Client) step(ctx context.Context, cy *cycle) (State, error) {
	switch cy.state {
	case Idle:
		if strings.TrimSpace(cy.text) == "" {
			return Done, nil
		}
		prev, err := c.surface.ReadOutput(ctx)
		if err != nil {
			return Idle, err
		}
		cy.prev = prev
		if err := c.surface.ReplaceInput(ctx, cy.text); err != nil {
			return Idle, err
		}
		return Submitted, nil

	case Submitted:
		cy.sample = 0
		return Polling, nil

	case Polling:
		if cy.sample >= c.cfg.MaxSamples {
			return Retrying, nil
		}
		c.logger.Debug("Waiting for change",
			zap.Int("sample", cy.sample+1),
			zap.Int("max_samples", c.cfg.MaxSamples))
		if err := sleep(ctx, c.cfg.PollInterval); err != nil {
			return Polling, err
		}
		out, err := c.surface.ReadOutput(ctx)
		if err != nil {
			return Polling, err
		}
		cy.sample++
		if out != cy.prev {
			cy.prev = out
			return Stabilized, nil
		}
		return Polling, nil

	case Retrying:
		cy.round++
		c.logger.Info("Output did not change, submitting again", zap.Int("round", cy.round))
		if err := c.surface.ReplaceInput(ctx, cy.text); err != nil {
			return Retrying, err
		}
		cy.sample = 0
		return Polling, nil

	case Stabilized:
		c.logger.Info("Waiting for approval", zap.Int("samples", cy.sample), zap.Int("round", cy.round))
		return AwaitingConfirmation, nil

	case AwaitingConfirmation:
		if err := c.surface.AwaitConfirmation(ctx); err != nil {
			return AwaitingConfirmation, err
		}
		out, err := c.surface.ReadOutput(ctx)
		if err != nil {
			return AwaitingConfirmation, err
		}
		cy.result = out
		return Done, nil
	}
	return cy.state, fmt.Errorf("unexpected state %s", cy.state)
}

func (c *Client) transition(cy *cycle, next State) {
	if next == cy.state {
		return
	}
	t := Transition{From: cy.state, To: next, Round: cy.round, Sample: cy.sample}
	cy.state = next
	if c.observer != nil {
		c.observer(t)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

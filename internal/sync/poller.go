package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/careloop/clinic-booking/pkg/logging"
)

const defaultPollInterval = 10 * time.Second

// Refresher is anything that can re-fetch its view of the remote state.
// Both boards implement it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller drives a board's Refresh on a fixed interval while a role's view
// is active. Refreshes run synchronously in the poll loop, so a new tick is
// never issued while the previous fetch is outstanding; missed ticks are
// dropped, which coalesces backlogged polls into one.
type Poller struct {
	target   Refresher
	interval time.Duration
	logger   *logging.Logger

	tick <-chan time.Time
	stop func()
}

type PollerConfig struct {
	Target   Refresher
	Interval time.Duration
	Logger   *logging.Logger

	// Tick and Stop override the interval ticker; tests inject these.
	Tick <-chan time.Time
	Stop func()
}

func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Target == nil {
		return nil, errors.New("sync: poller requires a target")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	tick := cfg.Tick
	stop := cfg.Stop
	if tick == nil {
		interval := cfg.Interval
		if interval <= 0 {
			interval = defaultPollInterval
		}
		ticker := time.NewTicker(interval)
		tick = ticker.C
		stop = ticker.Stop
	}

	return &Poller{
		target:   cfg.Target,
		interval: cfg.Interval,
		logger:   logger,
		tick:     tick,
		stop:     stop,
	}, nil
}

// Start refreshes immediately and then on every tick until ctx is done.
// Refresh errors are logged and the loop keeps going; the next tick retries
// naturally.
func (p *Poller) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if p.stop != nil {
			p.stop()
		}
	}()

	p.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.tick:
			p.refresh(ctx)
		}
	}
}

// Run starts polling in the background and returns an idempotent stop
// function that cancels the loop and waits for it to exit.
func (p *Poller) Run(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Start(ctx)
	}()

	var once stdsync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if err := p.target.Refresh(ctx); err != nil {
		p.logger.Warn("poll refresh failed", "error", err)
	}
}

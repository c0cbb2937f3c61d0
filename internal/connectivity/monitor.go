package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultInterval         = 5 * time.Second
	defaultProbeTimeout     = 3 * time.Second
	defaultFailureThreshold = 2
	maxBackoff              = 30 * time.Second
)

// Probe checks whether the remote store is reachable.
type Probe interface {
	Check(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) error

// Check calls f.
func (f ProbeFunc) Check(ctx context.Context) error { return f(ctx) }

// Options tune probing.
type Options struct {
	Interval         time.Duration // zero uses 5s
	Timeout          time.Duration // per probe; zero uses 3s
	FailureThreshold int           // consecutive failures before going offline; zero uses 2
	Logger           *slog.Logger
}

// Monitor tracks reachability of the remote store and notifies subscribers
// on every online/offline transition.
type Monitor struct {
	probe Probe
	opts  Options

	mu       sync.Mutex
	online   bool
	failures int
	subs     []subscriber
	nextSub  int

	cancel context.CancelFunc
	done   chan struct{}
}

type subscriber struct {
	id int
	fn func(bool)
}

// New builds a Monitor. It reports offline until Start runs the first probe.
func New(probe Probe, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProbeTimeout
	}
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = defaultFailureThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Monitor{probe: probe, opts: opts}
}

// Start probes once synchronously to establish the initial state, then keeps
// probing in the background until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	m.initialize(ctx)

	go func() {
		defer close(m.done)
		for {
			wait := m.nextWait()
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			m.check(ctx)
		}
	}()
}

// Stop halts background probing and waits for the probe goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Online reports the current reachability.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers fn for transitions. fn runs synchronously on the
// goroutine that observed the transition, in registration order.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, sub := range m.subs {
				if sub.id == id {
					m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Set forces the reachability state, notifying subscribers when it changes.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if online {
		m.failures = 0
	} else if m.failures < m.opts.FailureThreshold {
		m.failures = m.opts.FailureThreshold
	}
	m.mu.Unlock()
	m.transition(online)
}

func (m *Monitor) initialize(ctx context.Context) {
	err := m.runProbe(ctx)
	m.mu.Lock()
	if err != nil {
		m.failures = m.opts.FailureThreshold
	} else {
		m.failures = 0
	}
	m.mu.Unlock()
	m.transition(err == nil)
}

func (m *Monitor) check(ctx context.Context) {
	err := m.runProbe(ctx)
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	if err == nil {
		m.failures = 0
		m.mu.Unlock()
		m.transition(true)
		return
	}
	m.failures++
	offline := m.failures >= m.opts.FailureThreshold
	failures := m.failures
	m.mu.Unlock()

	m.opts.Logger.Debug("connectivity probe failed",
		slog.String("error", err.Error()),
		slog.Int("consecutive_failures", failures),
	)
	if offline {
		m.transition(false)
	}
}

func (m *Monitor) runProbe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()
	return m.probe.Check(probeCtx)
}

func (m *Monitor) transition(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), len(m.subs))
	for i, sub := range m.subs {
		fns[i] = sub.fn
	}
	m.mu.Unlock()

	if online {
		m.opts.Logger.Info("remote store reachable")
	} else {
		m.opts.Logger.Warn("remote store unreachable; submissions will be queued")
	}
	for _, fn := range fns {
		fn(online)
	}
}

func (m *Monitor) nextWait() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online {
		return m.opts.Interval
	}
	return calculateBackoff(m.failures-m.opts.FailureThreshold, m.opts.Interval)
}

// calculateBackoff doubles base once per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

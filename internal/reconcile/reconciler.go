package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/SantanaDZ/cad-social/internal/identity"
	"github.com/SantanaDZ/cad-social/internal/intake"
	"github.com/SantanaDZ/cad-social/internal/queue"
	"github.com/SantanaDZ/cad-social/internal/remote"
)

// Skip reasons.
const (
	SkipInFlight = "sync already in progress"
	SkipOffline  = "offline"
	SkipEmpty    = "queue empty"
)

// MessageAborted asks the operator to sign in again before pending
// submissions can be sent.
const MessageAborted = "Sessão expirada. Faça login novamente para enviar as inscrições pendentes."

// Queue is the subset of the offline queue the reconciler drains.
type Queue interface {
	Items() []queue.Item
	Remove(id string)
	Len() int
	Subscribe(fn func(n int)) func()
}

// Connectivity signals remote reachability.
type Connectivity interface {
	Online() bool
	Subscribe(fn func(online bool)) func()
}

// Reporter receives the outcome of every sync attempt that did work.
type Reporter interface {
	Report(res Result)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Result)

// Report calls f.
func (f ReporterFunc) Report(res Result) { f(res) }

// Options tune a Reconciler.
type Options struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Reporter Reporter
}

// Result summarizes one sync attempt.
type Result struct {
	Succeeded  int
	Failed     int
	Aborted    bool
	Skipped    bool
	SkipReason string
	Err        error
}

// Notice is one operator-facing line derived from a Result.
type Notice struct {
	Error bool
	Text  string
}

// Notices renders res the way the operator sees it. Skipped attempts produce
// nothing.
func (res Result) Notices() []Notice {
	if res.Skipped {
		return nil
	}
	if res.Aborted {
		return []Notice{{Error: true, Text: MessageAborted}}
	}
	var out []Notice
	if res.Succeeded > 0 {
		out = append(out, Notice{Text: fmt.Sprintf("%d inscrição(ões) sincronizada(s) com sucesso!", res.Succeeded)})
	}
	if res.Failed > 0 {
		out = append(out, Notice{Error: true, Text: fmt.Sprintf("%d inscrição(ões) falharam ao sincronizar.", res.Failed)})
	}
	return out
}

// SkipMessage is the operator-facing text for a manual sync that did no
// work, or "" when res was not skipped.
func (res Result) SkipMessage() string {
	if !res.Skipped {
		return ""
	}
	switch res.SkipReason {
	case SkipOffline:
		return "Sem conexão. As inscrições serão enviadas quando a conexão voltar."
	case SkipEmpty:
		return "Nenhuma inscrição pendente."
	case SkipInFlight:
		return "Sincronização em andamento."
	}
	return ""
}

// Reconciler drains the offline queue into the remote store.
type Reconciler struct {
	queue    Queue
	remote   remote.Inserter
	identity identity.Provider
	conn     Connectivity
	opts     Options

	running atomic.Bool
	lastLen atomic.Int64
	trigger chan struct{}
}

// New wires a Reconciler.
func New(q Queue, store remote.Inserter, ident identity.Provider, conn Connectivity, opts Options) *Reconciler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reconciler{
		queue:    q,
		remote:   store,
		identity: ident,
		conn:     conn,
		opts:     opts,
		trigger:  make(chan struct{}, 1),
	}
}

// Syncing reports whether a drain is in flight.
func (r *Reconciler) Syncing() bool {
	return r.running.Load()
}

// Sync drains a snapshot of the queue in FIFO order. At most one drain runs at
// a time; concurrent calls return immediately with Skipped set. Each item is
// removed only after the remote store confirms the insert.
func (r *Reconciler) Sync(ctx context.Context) Result {
	if !r.running.CompareAndSwap(false, true) {
		return Result{Skipped: true, SkipReason: SkipInFlight}
	}
	defer r.running.Store(false)

	if !r.conn.Online() {
		return Result{Skipped: true, SkipReason: SkipOffline}
	}
	items := r.queue.Items()
	if len(items) == 0 {
		return Result{Skipped: true, SkipReason: SkipEmpty}
	}

	logger := r.opts.Logger
	user, err := r.identity.CurrentUser(ctx)
	if err != nil {
		logger.Warn("sync aborted: no signed-in user",
			slog.String("error", err.Error()),
			slog.Int("pending", len(items)),
		)
		res := Result{Aborted: true, Err: err}
		r.finish(res)
		return res
	}

	logger.Info("sync started", slog.Int("pending", len(items)))
	var res Result
	for _, item := range items {
		// shutdown; the rest stays queued for the next start
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			break
		}
		if err := r.remote.Insert(ctx, remote.TableSubmissions, intake.BuildRecord(item.Payload, user.UserID)); err != nil {
			res.Failed++
			logger.Warn("queued submission not delivered",
				slog.String("queue_id", item.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.queue.Remove(item.ID)
		res.Succeeded++
	}

	logger.Info("sync finished",
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed),
		slog.Int("remaining", r.queue.Len()),
	)
	r.finish(res)
	return res
}

// Trigger requests a drain from Run. Triggers arriving while a drain is in
// flight collapse into a single follow-up drain.
func (r *Reconciler) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run drains the queue whenever connectivity comes back or the queue grows,
// until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.lastLen.Store(int64(r.queue.Len()))
	r.opts.Metrics.setQueueLength(r.queue.Len())

	unsubscribeConn := r.conn.Subscribe(func(online bool) {
		if online {
			r.Trigger()
		}
	})
	defer unsubscribeConn()

	unsubscribeQueue := r.queue.Subscribe(func(n int) {
		r.opts.Metrics.setQueueLength(n)
		prev := r.lastLen.Swap(int64(n))
		if int64(n) > prev {
			r.Trigger()
		}
	})
	defer unsubscribeQueue()

	r.Trigger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.trigger:
			r.Sync(ctx)
		}
	}
}

func (r *Reconciler) finish(res Result) {
	r.opts.Metrics.observe(res)
	r.opts.Metrics.setQueueLength(r.queue.Len())
	if r.opts.Reporter != nil {
		r.opts.Reporter.Report(res)
	}
}

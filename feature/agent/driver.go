package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/logger"
	"inventory-agent/core/model"
	"inventory-agent/core/normalize"
	"inventory-agent/core/reconcile"
	"inventory-agent/feature/collect"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// sinkTimeout bounds how long report sinks may take after a run.
const sinkTimeout = 30 * time.Second

// Remote is the remote inventory as seen by the driver.
// *remote.Client satisfies it.
type Remote interface {
	// Invalidate drops cached lookups.
	Invalidate()
	// Lookup returns the remote record, or nil when the device is unknown.
	Lookup(ctx context.Context, identity string) (*model.RemoteRecord, error)
	// Apply executes a changeset against record (nil for a new device).
	Apply(ctx context.Context, record *model.RemoteRecord, cs reconcile.Changeset, opts reconcile.Options) reconcile.ApplyResult
}

// Sink receives every finished report. Sinks are write-only.
type Sink interface {
	Name() string
	Write(ctx context.Context, report *Report) error
}

// Driver runs the collect, normalize, fetch, diff and apply pipeline.
// At most one run executes at a time.
type Driver struct {
	cfg      Config
	adapters []collect.Adapter
	remote   Remote
	sinks    []Sink
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	run     sync.Mutex
	running atomic.Bool

	mu   sync.RWMutex
	last *Report
}

// NewDriver creates a driver. Every report is logged; extra sinks
// receive it afterwards in order.
func NewDriver(cfg Config, adapters []collect.Adapter, remote Remote, log *zap.Logger, sinks ...Sink) *Driver {
	return &Driver{
		cfg:      cfg,
		adapters: adapters,
		remote:   remote,
		sinks:    append([]Sink{NewLogSink(log)}, sinks...),
		logger:   log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Running reports whether a run is in progress.
func (d *Driver) Running() bool {
	return d.running.Load()
}

// Last returns the report of the most recent run, or nil.
func (d *Driver) Last() *Report {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// Run executes one reconciliation pass. It fails with RunInProgress when
// another run is active; every other outcome, including a failed run, is
// described by the returned report.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	if !d.run.TryLock() {
		return nil, agenterrors.New(agenterrors.KindRunInProgress, "a reconciliation run is already in progress")
	}
	defer d.run.Unlock()
	d.running.Store(true)
	defer d.running.Store(false)

	rep := &Report{
		RunID:     d.newID(),
		DryRun:    d.cfg.DryRun,
		StartedAt: d.now().UTC(),
	}
	l := logger.WithRunID(d.logger, rep.RunID)
	l.Info("Reconciliation run started", zap.Int("adapters", len(d.adapters)), zap.Bool("dry_run", d.cfg.DryRun))

	d.execute(ctx, l, rep)
	d.finish(ctx, l, rep)
	return rep, nil
}

// Loop runs immediately and then once per interval until ctx is done.
// A tick that finds a run in progress is skipped.
func (d *Driver) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := d.Run(ctx); err != nil {
			d.logger.Info("Skipping scheduled run", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Driver) execute(ctx context.Context, l *zap.Logger, rep *Report) {
	d.remote.Invalidate()

	rep.enter(StateCollecting, d.now())
	fragments := d.collect(ctx, l, rep)

	rep.enter(StateNormalizing, d.now())
	device, nrep, err := normalize.Normalize(fragments)
	rep.addNormalization(nrep)
	if err != nil {
		d.fail(l, rep, err)
		return
	}
	rep.Identity = device.Identity
	rep.Device = &device
	l = l.With(zap.String("identity", device.Identity))
	l.Info("Device normalized",
		zap.String("identity_source", nrep.IdentitySource),
		zap.Int("components", len(device.Components())),
		zap.Int("conflicts", len(nrep.Conflicts)))

	rep.enter(StateFetching, d.now())
	record, err := d.lookup(ctx, l, device.Identity, rep)
	if err != nil {
		d.fail(l, rep, err)
		return
	}
	if record != nil {
		rep.RemoteID = record.ID
	}

	rep.enter(StateDiffing, d.now())
	opts := reconcile.Options{AuthoritativeRemovals: d.cfg.AuthoritativeRemovals, DryRun: d.cfg.DryRun}
	cs := reconcile.Diff(device, record, opts)
	rep.Summary = reconcile.Summarize(cs)
	rep.Untouched = cs.Untouched
	rep.Status = StatusCompleted

	if cs.Empty() {
		l.Info("Remote record is up to date", zap.Int("untouched", len(cs.Untouched)))
		return
	}

	rep.enter(StateApplying, d.now())
	result := d.remote.Apply(ctx, record, cs, opts)
	rep.Results = result.Results
	if result.RemoteID != "" {
		rep.RemoteID = result.RemoteID
	}
	rep.Created = record == nil && len(result.Results) > 0 && result.Results[0].Status == reconcile.StatusApplied

	if !result.Degraded() {
		return
	}
	rep.Status = StatusPartiallyFailed
	failed, skipped := result.Count(reconcile.StatusFailed), result.Count(reconcile.StatusSkipped)
	rep.addError(agenterrors.Newf(agenterrors.KindPartialApply,
		"%d of %d operations did not apply (%d failed, %d skipped)", failed+skipped, len(result.Results), failed, skipped))
	for _, r := range result.Results {
		if r.Status == reconcile.StatusFailed {
			rep.Errors = append(rep.Errors, ErrorEntry{
				Kind:    agenterrors.Kind(r.ErrorKind),
				Message: r.Operation.String() + ": " + r.Error,
			})
		}
	}
	l.Warn("Changeset partially applied", zap.Int("failed", failed), zap.Int("skipped", skipped), zap.Bool("stopped", result.Stopped))
}

// collect runs every adapter with at most cfg.Workers in flight and
// waits for all of them.
func (d *Driver) collect(ctx context.Context, l *zap.Logger, rep *Report) []model.Fragment {
	fragments := make([]model.Fragment, len(d.adapters))
	took := make([]time.Duration, len(d.adapters))

	var g errgroup.Group
	g.SetLimit(d.cfg.workers())
	for i, a := range d.adapters {
		i, a := i, a
		g.Go(func() error {
			start := time.Now()
			f := a.Collect(ctx)
			if f.Source == "" {
				f.Source = a.Name()
			}
			fragments[i], took[i] = f, time.Since(start)
			return nil
		})
	}
	_ = g.Wait()

	for i, f := range fragments {
		status := adapterStatus(f, took[i])
		rep.Adapters = append(rep.Adapters, status)
		if status.Degraded() {
			l.Warn("Adapter degraded",
				zap.String("tool", status.Name),
				zap.String("status", string(status.Status)),
				zap.String("kind", status.ErrorKind),
				zap.String("reason", status.Reason))
		}
	}
	return fragments
}

// lookup fetches the remote record, retrying transient failures with
// exponential backoff up to cfg.LookupAttempts attempts.
func (d *Driver) lookup(ctx context.Context, l *zap.Logger, identity string, rep *Report) (*model.RemoteRecord, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.cfg.backoff()
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(d.cfg.attempts()-1)), ctx)

	var record *model.RemoteRecord
	operation := func() error {
		rep.LookupAttempts++
		r, err := d.remote.Lookup(ctx, identity)
		if err != nil {
			if !agenterrors.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		record = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		l.Warn("Remote lookup failed, retrying",
			zap.Int("attempt", rep.LookupAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, agenterrors.Wrap(agenterrors.KindRemoteTransient,
				fmt.Sprintf("remote lookup cancelled after %d attempts", rep.LookupAttempts), ctxErr)
		}
		if agenterrors.KindOf(err) == agenterrors.KindUnknown {
			err = agenterrors.Wrap(agenterrors.KindRemoteTransient, "remote lookup interrupted", err)
		}
		if agenterrors.IsRetryable(err) {
			return nil, agenterrors.Wrap(agenterrors.KindRemoteTransient,
				fmt.Sprintf("remote lookup gave up after %d attempts", rep.LookupAttempts), err)
		}
		return nil, err
	}
	return record, nil
}

func (d *Driver) fail(l *zap.Logger, rep *Report, err error) {
	rep.Status = StatusFailed
	rep.addError(err)
	l.Error("Reconciliation run failed", zap.String("kind", string(agenterrors.KindOf(err))), zap.Error(err))
}

func (d *Driver) finish(ctx context.Context, l *zap.Logger, rep *Report) {
	if rep.Status == StatusFailed {
		rep.enter(StateFailed, d.now())
	} else {
		rep.enter(StateReporting, d.now())
		rep.enter(StateCompleted, d.now())
	}
	rep.FinishedAt = d.now().UTC()
	rep.DurationMS = rep.FinishedAt.Sub(rep.StartedAt).Milliseconds()

	d.mu.Lock()
	d.last = rep
	d.mu.Unlock()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()
	for _, s := range d.sinks {
		if err := s.Write(sctx, rep); err != nil {
			l.Warn("Report sink failed", zap.String("sink", s.Name()), zap.Error(err))
		}
	}
}

// Inventory is the normalized local view of the host, built without
// contacting the remote inventory.
type Inventory struct {
	Identity       string          `json:"identity,omitempty"`
	IdentitySource string          `json:"identity_source,omitempty"`
	Device         *model.Device   `json:"device,omitempty"`
	Adapters       []AdapterStatus `json:"adapters"`
	Conflicts      []string        `json:"conflicts,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// Inventory collects and normalizes facts. The returned inventory is never
// nil; err is set when no identity could be resolved.
func (d *Driver) Inventory(ctx context.Context) (*Inventory, error) {
	scratch := &Report{}
	fragments := d.collect(ctx, d.logger, scratch)

	device, nrep, err := normalize.Normalize(fragments)
	scratch.addNormalization(nrep)
	inv := &Inventory{
		Adapters:  scratch.Adapters,
		Conflicts: scratch.Conflicts,
		Warnings:  scratch.Warnings,
	}
	if err != nil {
		return inv, err
	}
	inv.Identity, inv.IdentitySource, inv.Device = nrep.Identity, nrep.IdentitySource, &device
	return inv, nil
}

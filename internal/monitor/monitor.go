package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/detector"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/store"
)

// NotifyMode selects when a message is sent.
type NotifyMode string

const (
	NotifyOnDrop NotifyMode = "on_drop" // only when qualifying drops exist
	NotifyAlways NotifyMode = "always"  // also send a summary when nothing dropped
)

// Store is the baseline persistence used by a run.
type Store interface {
	Load() model.Snapshot
	Save(model.Snapshot) error
}

// Observer receives every finished run report, e.g. for metrics.
type Observer interface {
	Observe(r *model.RunReport)
}

// Options are fixed for the lifetime of a Monitor.
type Options struct {
	TopN   int
	Mode   NotifyMode
	Policy detector.Policy
	Format notifier.FormatOptions
}

// Monitor runs the load → fetch → detect → notify → persist cycle.
type Monitor struct {
	opts     Options
	store    Store
	fetcher  collector.Fetcher
	notifier notifier.Notifier
	recorder recorder.Recorder
	observer Observer

	now   func() time.Time
	newID func() string

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *model.RunReport
}

// New creates a Monitor. recorder and observer may be nil.
func New(opts Options, st Store, f collector.Fetcher, n notifier.Notifier, rec recorder.Recorder, obs Observer) *Monitor {
	if opts.TopN == 0 {
		opts.TopN = 5
	}
	if opts.Mode == "" {
		opts.Mode = NotifyOnDrop
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Monitor{
		opts:     opts,
		store:    st,
		fetcher:  f,
		notifier: n,
		recorder: rec,
		observer: obs,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run performs one full monitoring run. It never panics and never returns an error:
// every failure is logged and reflected in the report.
func (m *Monitor) Run(ctx context.Context) *model.RunReport {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.run(ctx)
}

// TryRun is Run, unless another run is in flight, in which case it returns false.
func (m *Monitor) TryRun(ctx context.Context) (*model.RunReport, bool) {
	if !m.runMu.TryLock() {
		return nil, false
	}
	defer m.runMu.Unlock()
	return m.run(ctx), true
}

// Last returns the report of the most recent run, or nil.
func (m *Monitor) Last() *model.RunReport {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	return m.last
}

// Baseline returns the currently persisted baseline.
func (m *Monitor) Baseline() model.Snapshot {
	return m.store.Load()
}

// FormatOptions returns the message options the monitor renders with.
func (m *Monitor) FormatOptions() notifier.FormatOptions {
	return m.opts.Format
}

func (m *Monitor) run(ctx context.Context) *model.RunReport {
	rep := &model.RunReport{
		ID:        m.newID(),
		StartedAt: m.now(),
		Source:    m.fetcher.Name(),
	}
	defer m.finish(rep)

	enter(rep, model.StateInit)
	baseline := m.store.Load()
	rep.BaselineSize = len(baseline)

	fresh, err := m.fetcher.Fetch(ctx)
	if err == nil && fresh == nil {
		fresh = model.Snapshot{}
	}
	if err != nil {
		// Leave the baseline untouched and stay silent: a broken fetch must not look
		// like "nothing dropped" nor overwrite learned prices.
		if !errors.Is(err, collector.ErrNoPrices) {
			err = fmt.Errorf("fetch %s: %w", m.fetcher.Name(), err)
		}
		rep.FetchErr = err
		rep.Outcome = model.OutcomeFetchFailed
		enter(rep, model.StateFetchFailed)
		enter(rep, model.StateDone)
		log.Printf("[ERROR] fetch failed, skipping notification and persistence: %v", err)
		return rep
	}
	rep.FetchedItems = len(fresh)

	m.process(ctx, rep, baseline, fresh)
	return rep
}

// process covers detect, notify and persist. A panic anywhere in here ends the run as a
// no-op instead of taking down the host process.
func (m *Monitor) process(ctx context.Context, rep *model.RunReport, baseline, fresh model.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			rep.Panic = fmt.Sprint(r)
			rep.Outcome = model.OutcomeFailed
			enter(rep, model.StateDone)
			log.Printf("[ERROR] run %s aborted: %v\n%s", rep.ID, r, debug.Stack())
		}
	}()

	enter(rep, model.StateFetched)
	rep.Drops = detector.Detect(baseline, fresh)
	qualifying := m.opts.Policy.Filter(rep.Drops)

	if len(qualifying) == 0 {
		enter(rep, model.StateNoChange)
		rep.Outcome = model.OutcomeNoChange
		log.Printf("[INFO] no qualifying drops (%d items fetched, %d raw drops)", len(fresh), len(rep.Drops))
		if m.opts.Mode == NotifyAlways {
			fo := m.opts.Format
			fo.ItemsCount = len(fresh)
			m.send(ctx, rep, notifier.FormatNoChange(m.now(), fo))
		}
	} else {
		enter(rep, model.StateDropsFound)
		rep.Outcome = model.OutcomeDrops
		log.Printf("[INFO] %d price drops detected", len(qualifying))
		fo := m.opts.Format
		fo.TotalDrops = len(qualifying)
		fo.ItemsCount = len(fresh)
		m.send(ctx, rep, notifier.FormatDrops(detector.Top(qualifying, m.opts.TopN), m.now(), fo))
	}

	merged := store.Merge(baseline, fresh)
	if err := m.store.Save(merged); err != nil {
		// The next run re-detects the same drops, which corrects itself.
		rep.StoreErr = err
		log.Printf("[ERROR] save baseline: %v", err)
	} else {
		rep.Persisted = true
		enter(rep, model.StatePersisted)
	}
	enter(rep, model.StateDone)
}

func (m *Monitor) send(ctx context.Context, rep *model.RunReport, text string) {
	if err := m.notifier.Send(ctx, text); err != nil {
		rep.NotifyErr = err
		log.Printf("[ERROR] send notification via %s: %v", m.notifier.Name(), err)
		return
	}
	rep.Notified = true
	log.Printf("[INFO] notification sent via %s", m.notifier.Name())
}

func (m *Monitor) finish(rep *model.RunReport) {
	rep.FinishedAt = m.now()

	if err := m.recorder.RecordRun(rep); err != nil {
		log.Printf("[WARN] record run: %v", err)
	}
	if m.observer != nil {
		m.observer.Observe(rep)
	}

	m.lastMu.Lock()
	m.last = rep
	m.lastMu.Unlock()

	log.Printf("[INFO] run %s finished: outcome=%s state=%s drops=%d notified=%v persisted=%v (%s)",
		rep.ID, rep.Outcome, rep.State(), len(rep.Drops), rep.Notified, rep.Persisted,
		rep.Duration().Round(time.Millisecond))
}

func enter(rep *model.RunReport, s model.RunState) {
	rep.States = append(rep.States, s)
}

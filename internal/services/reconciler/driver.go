package reconciler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MyelinBots/wellness-sync/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Driver runs syncs off the caller's goroutine. Triggers that arrive while a
// run is in flight join it and receive its outcome.
type Driver struct {
	svc       Service
	accountID string
	group     singleflight.Group
	wg        sync.WaitGroup
	log       *slog.Logger

	mu   sync.RWMutex
	last *Outcome
	runs int
}

func NewDriver(svc Service, accountID string, log *slog.Logger) *Driver {
	return &Driver{svc: svc, accountID: accountID, log: logging.Or(log, "sync-driver")}
}

// Trigger starts (or joins) a sync and returns a channel that receives its
// outcome once. force skips the once-per-day check.
func (d *Driver) Trigger(ctx context.Context, force bool) <-chan Outcome {
	ch := make(chan Outcome, 1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(ch)

		v, _, shared := d.group.Do("sync", func() (any, error) {
			var o Outcome
			if force {
				o = d.svc.SyncNow(ctx, d.accountID)
			} else {
				o = d.svc.Sync(ctx, d.accountID)
			}
			d.record(o)
			return o, nil
		})
		if shared {
			d.log.Debug("joined sync in flight")
		}
		ch <- v.(Outcome)
	}()
	return ch
}

// Run is Trigger followed by a wait.
func (d *Driver) Run(ctx context.Context, force bool) Outcome {
	return <-d.Trigger(ctx, force)
}

func (d *Driver) record(o Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = &o
	d.runs++
}

// LastOutcome is false before the first run finishes.
func (d *Driver) LastOutcome() (Outcome, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return Outcome{}, false
	}
	return *d.last, true
}

// Runs counts finished runs; joined triggers do not add to it.
func (d *Driver) Runs() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.runs
}

// Wait blocks until every triggered sync has delivered its outcome.
func (d *Driver) Wait() {
	d.wg.Wait()
}

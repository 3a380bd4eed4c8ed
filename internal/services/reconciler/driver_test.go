package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/logging"
)

// blockingService holds every run until release is closed.
type blockingService struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
	forced  atomic.Int32
}

func newBlockingService() *blockingService {
	return &blockingService{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingService) IsDue(ctx context.Context) (bool, error) { return true, nil }

func (b *blockingService) Sync(ctx context.Context, accountID string) Outcome {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	<-b.release
	return Outcome{Result: Completed, Aggregate: 45}
}

func (b *blockingService) SyncNow(ctx context.Context, accountID string) Outcome {
	b.forced.Add(1)
	return b.Sync(ctx, accountID)
}

func TestDriver_CoalescesConcurrentTriggers(t *testing.T) {
	svc := newBlockingService()
	d := NewDriver(svc, "u1", logging.Discard())

	if _, ok := d.LastOutcome(); ok {
		t.Fatal("LastOutcome before any run")
	}

	first := d.Trigger(context.Background(), false)
	<-svc.started
	second := d.Trigger(context.Background(), false)
	// give the second trigger time to join the run in flight
	time.Sleep(50 * time.Millisecond)
	close(svc.release)

	a, b := <-first, <-second
	d.Wait()

	if a.Result != Completed || b.Result != Completed {
		t.Fatalf("outcomes = %s, %s", a.Result, b.Result)
	}
	if svc.calls.Load() != 1 {
		t.Errorf("service ran %d times, want 1", svc.calls.Load())
	}
	if d.Runs() != 1 {
		t.Errorf("Runs = %d, want 1", d.Runs())
	}

	last, ok := d.LastOutcome()
	if !ok || last.Aggregate != 45 {
		t.Errorf("LastOutcome = %+v, %v", last, ok)
	}
}

func TestDriver_ForceUsesSyncNow(t *testing.T) {
	svc := newBlockingService()
	close(svc.release)
	d := NewDriver(svc, "u1", nil)

	out := d.Run(context.Background(), true)
	if out.Result != Completed {
		t.Fatalf("Run = %s", out.Result)
	}
	if svc.forced.Load() != 1 {
		t.Errorf("SyncNow calls = %d, want 1", svc.forced.Load())
	}

	d.Run(context.Background(), false)
	if d.Runs() != 2 {
		t.Errorf("Runs = %d, want 2", d.Runs())
	}
}

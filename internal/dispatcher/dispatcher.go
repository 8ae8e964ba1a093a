// Package dispatcher implements the ordered-yield concurrent dispatcher of spec.md
// §4.4: it owns the concurrency gate, launches one goroutine per request, and exposes a
// pull-style Next() that always delivers responses in ascending submission order no
// matter what order the underlying HTTP calls complete in.
//
// The gate is a semaphore-bounded goroutine-per-request dispatch; the ordered-merge
// half is an index-addressed fan-out that, instead of a one-shot barrier, advances
// lazily as the consumer pulls.
package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/severinsimmler/mure/internal/cache"
	"github.com/severinsimmler/mure/internal/fingerprint"
	"github.com/severinsimmler/mure/internal/queue"
	"github.com/severinsimmler/mure/internal/telemetry"
	"github.com/severinsimmler/mure/internal/transport"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

// Dispatcher owns the ResponseSlotQueue, the concurrency gate, and the shared HTTP
// client for one Drive call's lifetime.
type Dispatcher struct {
	n        int
	cursor   int
	queue    *queue.ResponseSlotQueue
	gate     chan struct{}
	client   *transport.Client
	store    cache.Store
	ctx      context.Context
	cancel   context.CancelFunc
	workers  sync.WaitGroup // the N request workers only
	wg       sync.WaitGroup // workers, plus the reaper that waits on them
	logger   *telemetryLogger
	inFlight atomic.Int64

	closeOnce sync.Once
}

// telemetryLogger holds the run id that telemetry attaches to each worker's log lines;
// the logger itself is fetched from telemetry.Logger() at each call.
type telemetryLogger struct {
	runID string
}

// New builds a Dispatcher for requests, bounding concurrent HTTP sends to batchSize,
// and immediately launches one goroutine per request (throttled by the gate — lazy
// scheduling is permitted but not required, and eager-plus-semaphore is simpler, per
// §9's design note).
func New(ctx context.Context, requests []*muretypes.RequestRecord, batchSize int, store cache.Store) *Dispatcher {
	if batchSize < 1 {
		batchSize = 1
	}
	runCtx, cancel := context.WithCancel(ctx)

	d := &Dispatcher{
		n:      len(requests),
		queue:  queue.New(len(requests)),
		gate:   make(chan struct{}, batchSize),
		client: transport.NewClient(),
		store:  store,
		ctx:    runCtx,
		cancel: cancel,
		logger: &telemetryLogger{runID: telemetry.RunID()},
	}

	for i, req := range requests {
		d.workers.Add(1)
		d.wg.Add(1)
		go d.runWorker(i, req)
	}

	d.wg.Add(1)
	go d.reapCancelled()

	return d
}

// reapCancelled waits for every worker to settle and, if the driving context ended up
// cancelled, fills any slot no worker ever delivered to with a synthetic cancelled
// response. Without this, a worker that bails out early on cancellation (runWorker's two
// early returns below) would leave its slot with no Put ever coming, and a consumer still
// draining via Next would block on it forever — cancellation stays internal per §5/§7,
// but every index still gets exactly one delivery.
func (d *Dispatcher) reapCancelled() {
	defer d.wg.Done()
	d.workers.Wait()
	if err := d.ctx.Err(); err != nil {
		d.queue.Cancel(func() *muretypes.ResponseRecord {
			return muretypes.NewTransportFailure(err.Error())
		})
	}
}

// runWorker implements the five-step worker algorithm of §4.4 step 4.
func (d *Dispatcher) runWorker(index int, req *muretypes.RequestRecord) {
	defer d.workers.Done()
	defer d.wg.Done()

	fp, err := fingerprint.Compute(req)
	if err != nil {
		resp := muretypes.NewTransportFailure(err.Error())
		d.deliver(index, fp, resp, false)
		return
	}

	if d.store != nil {
		if cached, ok := d.storeGet(fp); ok {
			// Cache hits bypass the gate entirely (decided Open Question: no
			// throttling on cache hits) and are never re-written to the cache.
			d.deliver(index, fp, cached, false)
			return
		}
	}

	select {
	case d.gate <- struct{}{}:
	case <-d.ctx.Done():
		return
	}
	d.inFlight.Add(1)
	resp := d.client.Send(d.ctx, req)
	d.inFlight.Add(-1)
	<-d.gate

	if d.ctx.Err() != nil {
		// Cancelled mid-flight: the consumer has already stopped reading, so the
		// cancellation error is swallowed here rather than surfaced (§5/§7), and
		// the cache put that would normally precede queue.Put is skipped.
		return
	}

	if !resp.OK && resp.Status == 0 {
		telemetry.LogTransportFailure(telemetry.Logger(), d.logger.runID, index, req.URL, resp.Reason)
	}

	d.deliver(index, fp, resp, d.store != nil)
}

// deliver writes response to the cache (when requested, and always before the queue
// write — the other decided Open Question) and then to the slot queue.
func (d *Dispatcher) deliver(index int, fp string, resp *muretypes.ResponseRecord, writeCache bool) {
	resp.Fingerprint = fp
	if writeCache {
		d.storePut(fp, resp)
	}
	_ = d.queue.Put(index, resp)
}

// storeGet and storePut treat any backend failure as CacheError semantics from §7: a
// failed read is a miss, a failed write is logged (if enabled) and ignored.
func (d *Dispatcher) storeGet(fp string) (*muretypes.ResponseRecord, bool) {
	defer func() { recover() }() // a misbehaving backend must not crash a worker
	if !d.store.Has(fp) {
		return nil, false
	}
	return d.store.Get(fp)
}

func (d *Dispatcher) storePut(fp string, resp *muretypes.ResponseRecord) {
	defer func() { recover() }()
	if err := d.store.Put(fp, resp); err != nil {
		telemetry.Logger().Warn("cache put failed", "run_id", d.logger.runID, "fingerprint", fp, "err", err.Error())
	}
}

// Next returns the next response in submission order, or ok=false once all N responses
// have been delivered.
func (d *Dispatcher) Next() (*muretypes.ResponseRecord, bool) {
	if d.cursor >= d.n {
		return nil, false
	}
	resp, err := d.queue.Get(d.cursor)
	d.cursor++
	if err != nil {
		// Only reachable on a caller bug (pulling past what Next itself tracks);
		// treat it as exhaustion rather than panicking the consumer.
		return nil, false
	}
	return resp, true
}

// Len returns the total number of requests this Dispatcher was built with.
func (d *Dispatcher) Len() int { return d.n }

// InFlight returns the current number of in-gate HTTP sends, for tests asserting the
// concurrency bound (§8 property 3). Cache hits never count here, per the decided Open
// Question that they bypass the gate.
func (d *Dispatcher) InFlight() int64 { return d.inFlight.Load() }

// Close cancels every outstanding worker, waits for them to settle, and releases the
// shared HTTP client. It implements the "early termination safety" property of §8: safe
// to call before the iterator is exhausted, and safe to call more than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
		d.client.Close()
	})
}

package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/ports"
	"github.com/expresslane/courier-booking/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher refreshes rollups in the background. Jobs are sharded by
// calendar month, so every refresh touching one monthly record runs in order
// on a single worker. A day that is already queued is not queued again.
type Dispatcher struct {
	workers   []chan time.Time
	refresher ports.RollupRefresher
	loc       *time.Location
	log       zerolog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, refresher ports.RollupRefresher, loc *time.Location, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if loc == nil {
		loc = time.UTC
	}
	d := &Dispatcher{
		workers:   make([]chan time.Time, numWorkers),
		refresher: refresher,
		loc:       loc,
		log:       log,
		pending:   make(map[string]struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan time.Time, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Schedule queues a refresh of the day and month containing t. It never
// blocks: when the worker's buffer is full the job is dropped and left to the
// repair job.
func (d *Dispatcher) Schedule(t time.Time) {
	key := d.dayKey(t)

	d.mu.Lock()
	if _, queued := d.pending[key]; queued {
		d.mu.Unlock()
		return
	}
	d.pending[key] = struct{}{}
	d.mu.Unlock()

	idx := d.shardIndex(t)
	select {
	case d.workers[idx] <- t:
		metrics.RollupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.clear(key)
		d.log.Warn().Str("day", key).Int("worker_id", idx).Msg("rollup queue full, refresh dropped")
	}
}

func (d *Dispatcher) dayKey(t time.Time) string {
	return t.In(d.loc).Format(time.DateOnly)
}

// shardIndex maps the month containing t deterministically to a worker index.
func (d *Dispatcher) shardIndex(t time.Time) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(t.In(d.loc).Format("2006-01")))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) clear(key string) {
	d.mu.Lock()
	delete(d.pending, key)
	d.mu.Unlock()
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan time.Time) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ch:
			if !ok {
				return
			}
			metrics.RollupQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			// Cleared before the refresh so bookings landing meanwhile queue
			// another pass.
			key := d.dayKey(t)
			d.clear(key)

			if err := d.refresher.RefreshFor(ctx, t); err != nil {
				d.log.Error().Err(err).
					Str("day", key).
					Int("worker_id", id).
					Msg("rollup refresh failed")
			}
		}
	}
}

package record

import (
	"sync"

	"github.com/KiranM189/Capstone/internal/monitoring"
)

// recorderQueueSize absorbs insert latency spikes; at the reference rate
// (8 sensors, ~33 Hz) this is several seconds of backlog.
const recorderQueueSize = 1024

// Recorder feeds rows to a Store from its own goroutine so sample
// delivery never waits on disk. When the queue is full rows are dropped
// and counted; recording is best-effort, the live pose stream is not.
type Recorder struct {
	store *Store

	ch      chan Row
	wg      sync.WaitGroup
	dropped monitoring.Counter
	failed  monitoring.Counter

	closeOnce sync.Once
}

// NewRecorder starts the write loop over an open store. The caller
// retains ownership of the store and closes it after Close returns.
func NewRecorder(store *Store) *Recorder {
	r := &Recorder{
		store: store,
		ch:    make(chan Row, recorderQueueSize),
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

func (r *Recorder) loop() {
	defer r.wg.Done()
	for row := range r.ch {
		if err := r.store.Append(row); err != nil {
			r.failed.Inc()
			monitoring.Logf("record: append: %v", err)
		}
	}
}

// Record queues one row. Never blocks; a full queue drops the row.
func (r *Recorder) Record(row Row) {
	select {
	case r.ch <- row:
	default:
		r.dropped.Inc()
	}
}

// Close drains queued rows and stops the write loop.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() { close(r.ch) })
	r.wg.Wait()
}

// Dropped returns how many rows were discarded on a full queue.
func (r *Recorder) Dropped() uint64 { return r.dropped.Value() }

// Failed returns how many inserts errored.
func (r *Recorder) Failed() uint64 { return r.failed.Value() }

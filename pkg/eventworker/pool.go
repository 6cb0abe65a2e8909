package eventworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// EventJob is one best-effort side effect of a webhook invocation, typically
// the raw event insert. Jobs for the same (workspace, instance) pair land on
// the same worker so their inserts keep arrival order.
type EventJob struct {
	WorkspaceID  string
	InstanceName string
	Handler      func(ctx context.Context) error
}

// PoolStats is a snapshot of the pool counters, exposed on the health route.
type PoolStats struct {
	NumWorkers      int   `json:"num_workers"`
	QueueSize       int   `json:"queue_size"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalDropped    int64 `json:"total_dropped"`
	TotalErrors     int64 `json:"total_errors"`
}

// EventWorkerPool runs raw-event persistence off the webhook critical path.
// Dispatch never blocks: when a worker queue is full the job is dropped and
// counted, matching the "persistence failures are swallowed" contract.
type EventWorkerPool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
	startTime       time.Time
}

type worker struct {
	id       int
	jobQueue chan EventJob
	ctx      context.Context
	cancel   context.CancelFunc
	pool     *EventWorkerPool
}

func NewEventWorkerPool(numWorkers, queueSize int) *EventWorkerPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	return &EventWorkerPool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
		startTime:  time.Now(),
	}
}

// Start launches the workers. The provided context bounds all job handlers.
func (p *EventWorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan EventJob, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[EVENT_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch enqueues a job on the worker owning the (workspace, instance)
// shard. Returns false when the pool is stopped or the shard queue is full.
func (p *EventWorkerPool) TryDispatch(job EventJob) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardFor(job.WorkspaceID, job.InstanceName)
	atomic.AddInt64(&p.totalDispatched, 1)

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()

	if sent {
		return true
	}

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[EVENT_POOL] Worker %d queue full (or stopped), dropping event for %s|%s",
		shard, job.WorkspaceID, job.InstanceName)
	return false
}

// Dispatch is TryDispatch with the result discarded. The webhook pipeline
// must not care whether the recorder kept up.
func (p *EventWorkerPool) Dispatch(job EventJob) {
	_ = p.TryDispatch(job)
}

// Stop drains the queues and waits for the workers to exit.
func (p *EventWorkerPool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		logrus.Info("[EVENT_POOL] Stopping workers...")

		for _, w := range p.workers {
			w.cancel()
			close(w.jobQueue)
		}

		p.wg.Wait()
		logrus.Info("[EVENT_POOL] All workers stopped")
	})
}

func (p *EventWorkerPool) shardFor(workspaceID, instanceName string) int {
	h := fnv.New32a()
	h.Write([]byte(workspaceID + "|" + instanceName))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *EventWorkerPool) Stats() PoolStats {
	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logrus.Debugf("[EVENT_POOL] Worker %d started", w.id)

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				logrus.Debugf("[EVENT_POOL] Worker %d shutting down", w.id)
				return
			}
			w.process(job)

		case <-w.ctx.Done():
			logrus.Debugf("[EVENT_POOL] Worker %d context cancelled, draining queue...", w.id)
			w.drainQueue()
			return
		}
	}
}

func (w *worker) process(job EventJob) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			logrus.Errorf("[EVENT_POOL] Worker %d panic for %s|%s: %v",
				w.id, job.WorkspaceID, job.InstanceName, r)
		}
		atomic.AddInt64(&w.pool.totalProcessed, 1)
	}()

	if err := job.Handler(w.ctx); err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
		logrus.WithError(err).Warnf("[EVENT_POOL] Worker %d job failed for %s|%s",
			w.id, job.WorkspaceID, job.InstanceName)
	}
}

func (w *worker) drainQueue() {
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			w.process(job)
		default:
			return
		}
	}
}

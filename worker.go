package timefit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type (
	// persistWorker claims ranges in the background so callers on a hot
	// path can fit an event and move on without waiting on redis
	persistWorker struct {
		store  *Store
		ctx    context.Context
		queue  chan claimRequest
		cancel context.CancelFunc
		config StoreConfig
		wg     sync.WaitGroup
	}

	claimRequest struct {
		id string
		r  TimeRange
	}
)

func newPersistWorker(store *Store, config StoreConfig) *persistWorker {
	ctx, cancel := context.WithCancel(context.Background())

	pw := &persistWorker{
		store:  store,
		config: config,
		queue:  make(chan claimRequest, config.MaxQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < config.WorkerCount; i++ {
		pw.wg.Add(1)
		go pw.worker(i)
	}

	return pw
}

func (pw *persistWorker) worker(id int) {
	defer pw.wg.Done()

	for {
		select {
		case <-pw.ctx.Done():
			return
		case req := <-pw.queue:
			pw.claim(id, req)
		}
	}
}

func (pw *persistWorker) claim(workerID int, req claimRequest) {
	ctx, cancel := context.WithTimeout(pw.ctx, pw.config.SaveTimeout)
	defer cancel()

	start := time.Now()
	err := pw.store.Claim(ctx, req.id, req.r)
	duration := time.Since(start)

	if err != nil {
		var claimed *RangeClaimedError
		if errors.As(err, &claimed) {
			pw.store.log.Warn("async claim lost to placed range",
				zap.Int("worker_id", workerID),
				zap.String("timeline", req.id),
				zap.Stringer("wanted", claimed.Wanted),
				zap.Stringer("existing", claimed.Existing),
			)
			return
		}
		pw.store.log.Error("failed to claim range",
			zap.Int("worker_id", workerID),
			zap.String("timeline", req.id),
			zap.Stringer("range", req.r),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	pw.store.log.Debug("range claimed",
		zap.Int("worker_id", workerID),
		zap.String("timeline", req.id),
		zap.Stringer("range", req.r),
		zap.Duration("duration", duration),
	)
}

func (pw *persistWorker) enqueue(id string, r TimeRange) bool {
	req := claimRequest{id: id, r: r}

	select {
	case pw.queue <- req:
		return true
	default:
		pw.store.log.Warn("claim queue full, dropping request",
			zap.String("timeline", id),
			zap.Stringer("range", r),
			zap.Int("queue_size", len(pw.queue)),
		)
		return false
	}
}

func (pw *persistWorker) Stop() {
	pw.cancel()
	pw.wg.Wait()
	close(pw.queue)
}

package utils

import (
	"log"
	"sync"
)

// WorkerPool is a bounded goroutine pool. The ingestion pipeline uses it to
// move attachment relocation (a network fetch plus a storage write) off the
// webhook request path.
type WorkerPool struct {
	jobQueue  chan func()
	workerNum int
	wg        sync.WaitGroup
	quit      chan struct{}
	stopOnce  sync.Once
}

func NewWorkerPool(workerNum, queueSize int) *WorkerPool {
	return &WorkerPool{
		jobQueue:  make(chan func(), queueSize),
		workerNum: workerNum,
		quit:      make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.workerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.jobQueue:
					// recover so a panicking job cannot kill the worker
					func() {
						defer func() {
							if r := recover(); r != nil {
								log.Printf("worker %d recovered from panic: %v", workerID, r)
							}
						}()
						job()
					}()
				case <-p.quit:
					return
				}
			}
		}(i)
	}
}

// Submit enqueues a job. Blocks when the queue is full rather than dropping
// work.
func (p *WorkerPool) Submit(job func()) {
	p.jobQueue <- job
}

// TrySubmit enqueues a job without blocking and reports whether it was
// accepted.
func (p *WorkerPool) TrySubmit(job func()) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// Stop signals workers to exit and waits for them. Queued jobs that no
// worker picked up before the signal are dropped.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

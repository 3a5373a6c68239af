package utils

import (
	"log"
	"sync"
)

// WorkerPool bounds the number of goroutines processing requests so a
// polling stampede queues instead of exhausting memory.
type WorkerPool struct {
	JobQueue  chan func()
	WorkerNum int
	wg        sync.WaitGroup
	quit      chan bool
}

func NewWorkerPool(workerNum int, queueSize int) *WorkerPool {
	return &WorkerPool{
		JobQueue:  make(chan func(), queueSize),
		WorkerNum: workerNum,
		quit:      make(chan bool),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.JobQueue:
					// A panicking job must not take the worker down.
					func() {
						defer func() {
							if r := recover(); r != nil {
								log.Printf("worker %d panic: %v", workerID, r)
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

// Submit enqueues a job, blocking while the queue is full. Requests
// queue up rather than being rejected.
func (p *WorkerPool) Submit(job func()) {
	p.JobQueue <- job
}

func (p *WorkerPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

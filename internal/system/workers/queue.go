/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package workers

import (
	"context"
	"sync"

	"github.com/wso2/email-gateway-service/internal/system/log"
)

// Job is a unit of background work.
type Job func(ctx context.Context)

// Queue runs jobs on a fixed pool of goroutines fed by a bounded channel.
type Queue struct {
	name    string
	jobs    chan Job
	workers int
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewQueue creates a queue holding up to size pending jobs.
func NewQueue(name string, size, workers int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		name:    name,
		jobs:    make(chan Job, size),
		workers: workers,
	}
}

// Start launches the workers. They stop once Stop drains the queue.
func (q *Queue) Start(ctx context.Context) {

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				q.run(ctx, job)
			}
		}()
	}
	log.GetLogger().Info("Worker queue started", log.String("queue", q.name), log.Int("workers", q.workers))
}

func (q *Queue) run(ctx context.Context, job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			log.GetLogger().Error("Worker job panicked", log.String("queue", q.name), log.Any("panic", rec))
		}
	}()
	job(ctx)
}

// Enqueue schedules job without blocking. It reports false when the queue is full or stopped.
func (q *Queue) Enqueue(job Job) bool {

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		log.GetLogger().Warn("Worker queue is full, dropping job", log.String("queue", q.name))
		return false
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (q *Queue) Stop() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
		q.wg.Wait()
	})
}

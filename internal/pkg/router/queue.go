package router

import (
	"fmt"
	"runtime/debug"

	"midideck/internal/pkg/logger"
)

// taskQueue defers handler execution out of the midi callback: tasks are
// submitted in callback order and drained by a single consumer, so FIFO
// holds without introducing parallelism. There is no cancellation; an
// accepted task runs to completion, and submissions beyond the buffer
// capacity are dropped.
type taskQueue struct {
	tasks chan func()
}

func newTaskQueue(size int) *taskQueue {
	q := &taskQueue{
		tasks: make(chan func(), size),
	}
	go q.run()
	return q
}

func (q *taskQueue) run() {
	for task := range q.tasks {
		q.exec(task)
	}
}

// exec confines a misbehaving handler to its own task: a panic is logged
// with its stack and the consumer keeps draining.
func (q *taskQueue) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Info(
				fmt.Sprintf("handler panicked: %v\n%s", r, debug.Stack()),
				logger.Error,
			)
		}
	}()
	task()
}

// submit enqueues a task. A full buffer drops the task instead of blocking,
// so a hung handler stalls only its own queue slot, never the midi callback.
func (q *taskQueue) submit(task func()) {
	select {
	case q.tasks <- task:
	default:
		log.Info("deferred queue full, action dropped", logger.Warning)
	}
}

// flush blocks until every task submitted before it has finished.
func (q *taskQueue) flush() {
	done := make(chan struct{})
	q.tasks <- func() { close(done) }
	<-done
}

func (q *taskQueue) close() {
	close(q.tasks)
}

package events

import "sync"

// queue is an unbounded FIFO feeding a single handler goroutine.
type queue[T any] struct {
	mu      sync.Mutex
	items   []T
	signal  chan struct{}
	stop    chan struct{}
	done    chan struct{}
	handler func(T)
}

func newQueue[T any](handler func(T)) *queue[T] {
	q := &queue[T]{
		signal:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		handler: handler,
	}
	go q.run()
	return q
}

func (q *queue[T]) push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *queue[T]) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case <-q.signal:
		}

		for {
			q.mu.Lock()
			if len(q.items) == 0 {
				q.mu.Unlock()
				break
			}
			item := q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()

			select {
			case <-q.stop:
				return
			default:
			}
			q.handler(item)
		}
	}
}

// close stops delivery and waits for an in-flight handler call to return.
func (q *queue[T]) close() {
	close(q.stop)
	<-q.done
}

// Package events carries the collaborator's push notifications.
//
// Two independent topics exist: status events (session running/stopped and
// binary download lifecycle) and free-text log lines. Every subscriber is
// served by its own goroutine draining an unbounded FIFO, so a listener
// observes events in exactly the order they were published and a slow
// listener never blocks the publisher or its peers.
//
// Unsubscribing is synchronous: once the returned function has returned, the
// handler will not be invoked again. Do not unsubscribe from inside the
// handler being removed.
package events

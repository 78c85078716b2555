package events

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusDeliveredInOrder(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	unsubscribe := bus.SubscribeStatus(func(s Status) {
		mu.Lock()
		got = append(got, fmt.Sprintf("%s:%v", s.Device, s.Running))
		n := len(got)
		mu.Unlock()
		if n == 100 {
			close(done)
		}
	})
	defer unsubscribe()

	for i := 0; i < 50; i++ {
		bus.PublishStatus(SessionStarted(fmt.Sprintf("dev%d", i)))
		bus.PublishStatus(SessionStopped(fmt.Sprintf("dev%d", i)))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < 50; i++ {
		assert.Equal(t, fmt.Sprintf("dev%d:true", i), got[2*i])
		assert.Equal(t, fmt.Sprintf("dev%d:false", i), got[2*i+1])
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	count := 0
	first := make(chan struct{}, 1)

	unsubscribe := bus.SubscribeLog(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
		select {
		case first <- struct{}{}:
		default:
		}
	})

	bus.PublishLog("one")
	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("first line not delivered")
	}

	unsubscribe()
	unsubscribe() // idempotent

	bus.PublishLog("two")
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)

	status, logs := bus.Subscribers()
	assert.Zero(t, status)
	assert.Zero(t, logs)
}

func TestTopicsAreIndependent(t *testing.T) {
	bus := NewBus(nil)

	lines := make(chan string, 1)
	statuses := make(chan Status, 1)
	defer bus.SubscribeLog(func(l string) { lines <- l })()
	defer bus.SubscribeStatus(func(s Status) { statuses <- s })()

	bus.PublishLog("hello")
	select {
	case l := <-lines:
		assert.Equal(t, "hello", l)
	case <-time.After(time.Second):
		t.Fatal("log not delivered")
	}

	select {
	case <-statuses:
		t.Fatal("log line leaked onto status topic")
	case <-time.After(20 * time.Millisecond):
	}

	bus.PublishStatus(DownloadProgress(42))
	select {
	case s := <-statuses:
		require.Equal(t, StatusDownloadProgress, s.Type)
		assert.Equal(t, 42, s.Percent)
	case <-time.After(time.Second):
		t.Fatal("status not delivered")
	}
}

package events

import (
	"sync"

	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
)

type Listener interface {
	HandleEvent(event models.Event)
}

type ListenerFunc func(event models.Event)

func (f ListenerFunc) HandleEvent(event models.Event) {
	f(event)
}

type subscriber struct {
	name     string
	listener Listener
}

// Bus delivers every published event to each listener in subscription order.
// Listeners run on the publisher's goroutine and must not block.
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(name string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriber{name: name, listener: listener})
}

func (b *Bus) Publish(event models.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	subscribers := make([]subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subscribers {
		deliver(s, event)
	}
}

func deliver(s subscriber, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("listener", s.name).
				WithField("event", event.Type()).
				Errorf("[EVENTS] Listener panicked: %v", r)
		}
	}()
	s.listener.HandleEvent(event)
}

// Package event delivers game notifications to whoever presents the game.
// Publishing can be suppressed for a scope, which the planner does while it
// simulates thousands of turns on its own boards.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ben-axnick/PFCloneLogic/board"
)

type Topic string

const (
	TopicGameBegin   Topic = "game.begin"
	TopicTurnBegin   Topic = "turn.begin"
	TopicTurnPhase   Topic = "turn.phase"
	TopicGameOver    Topic = "game.over"
	TopicPiecePlaced Topic = "piece.placed"
	TopicPieceMoved  Topic = "piece.moved"
	TopicPiecePushed Topic = "piece.pushed"
	// TopicAll subscribes to every topic.
	TopicAll Topic = "*"
)

// Event is one notification. Player is the side the event concerns: the
// turn player, the winner for game.over, or the piece owner.
type Event struct {
	Topic  Topic
	Player board.Player
	Phase  string
	Change board.Change
}

type Handler func(Event)

type subscriber struct {
	id      int
	topic   Topic
	handler Handler
}

// Bus is a synchronous publish/subscribe hub. Handlers run on the
// publishing goroutine, outside the bus lock.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID int

	suppressed atomic.Int32
	dropped    atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, topic: topic, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers e to its subscribers unless the bus is suppressed, in
// which case the event is counted and dropped.
func (b *Bus) Publish(e Event) {
	if b.suppressed.Load() > 0 {
		b.dropped.Add(1)
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.topic == e.Topic || s.topic == TopicAll {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}

// Suppress silences the bus until the returned release function is
// called. Scopes nest; calling release more than once is harmless.
// Callers should defer release so that it runs on every exit path.
func (b *Bus) Suppress() (release func()) {
	b.suppressed.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { b.suppressed.Add(-1) })
	}
}

func (b *Bus) Suppressed() bool { return b.suppressed.Load() > 0 }
func (b *Bus) Dropped() uint64  { return b.dropped.Load() }

// Recorder keeps every event it is handed, for tests and replays.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Topics returns the topics of the recorded events in order.
func (r *Recorder) Topics() []Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Topic, len(r.events))
	for i, e := range r.events {
		out[i] = e.Topic
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

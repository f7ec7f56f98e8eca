package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultBufferSize is the per-subscriber channel depth. A slow
// subscriber that falls this far behind has its oldest pending event
// dropped rather than blocking the publisher (§4.7/§4.8 progress
// events are advisory, not a durable log).
const defaultBufferSize = 32

type subscriber struct {
	id string
	ch chan []byte
}

// Broadcaster fans published events out to every subscriber of a
// channel. One Broadcaster is shared by the Background Processor and
// the Continuous Embedding Pipeline for the lifetime of a `serve`
// process.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]*subscriber // subscriber id -> subscriber

	channelMu sync.RWMutex
	channels  map[string]map[string]bool // channel -> set of subscriber ids

	bufferSize int
}

// NewBroadcaster builds a Broadcaster. bufferSize <= 0 uses
// defaultBufferSize.
func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Broadcaster{
		subs:       make(map[string]*subscriber),
		channels:   make(map[string]map[string]bool),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new subscriber on channel and returns its
// event stream and an unsubscribe function. Callers must invoke
// unsubscribe exactly once when done reading.
func (b *Broadcaster) Subscribe(channel string) (events <-chan []byte, unsubscribe func()) {
	s := &subscriber{id: uuid.NewString(), ch: make(chan []byte, b.bufferSize)}

	b.mu.Lock()
	b.subs[s.id] = s
	b.mu.Unlock()

	b.channelMu.Lock()
	if _, ok := b.channels[channel]; !ok {
		b.channels[channel] = make(map[string]bool)
	}
	b.channels[channel][s.id] = true
	b.channelMu.Unlock()

	return s.ch, func() { b.unsubscribe(channel, s.id) }
}

func (b *Broadcaster) unsubscribe(channel, id string) {
	b.channelMu.Lock()
	if subs, ok := b.channels[channel]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.channels, channel)
		}
	}
	b.channelMu.Unlock()

	b.mu.Lock()
	if s, ok := b.subs[id]; ok {
		close(s.ch)
		delete(b.subs, id)
	}
	b.mu.Unlock()
}

// Publish marshals event as a timestamped Event envelope and delivers
// it to every current subscriber of channel. A publish to a channel
// with no subscribers is a no-op, matching the teacher's Broadcast.
func (b *Broadcaster) Publish(channel string, eventType string, payload any) error {
	env := Event{Type: eventType, Channel: channel, Timestamp: time.Now().UTC(), Payload: payload}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	b.channelMu.RLock()
	subIDs, ok := b.channels[channel]
	if !ok {
		b.channelMu.RUnlock()
		return nil
	}
	ids := make([]string, 0, len(subIDs))
	for id := range subIDs {
		ids = append(ids, id)
	}
	b.channelMu.RUnlock()

	b.mu.RLock()
	targets := make([]*subscriber, 0, len(ids))
	for _, id := range ids {
		if s, ok := b.subs[id]; ok {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		select {
		case s.ch <- data:
		default:
			// Subscriber isn't keeping up; drop the oldest queued event
			// to make room rather than block the publisher.
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- data:
			default:
				slog.Warn("event dropped, subscriber buffer full", "channel", channel, "subscriber_id", s.id)
			}
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscribers on channel.
func (b *Broadcaster) SubscriberCount(channel string) int {
	b.channelMu.RLock()
	defer b.channelMu.RUnlock()
	return len(b.channels[channel])
}

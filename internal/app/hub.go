package app

import "sync"

// FrameHub fans rendered JPEG frames out to subscribers. Slow subscribers
// miss frames rather than block the render loop.
type FrameHub struct {
	mu     sync.RWMutex
	subs   map[chan []byte]struct{}
	latest []byte
}

// NewFrameHub creates an empty FrameHub.
func NewFrameHub() *FrameHub {
	return &FrameHub{subs: make(map[chan []byte]struct{})}
}

// Subscribe returns a channel receiving new frames and a function that
// unsubscribes and closes the channel.
func (h *FrameHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish stores frame as the latest and offers it to every subscriber.
func (h *FrameHub) Publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = frame
	for ch := range h.subs {
		select {
		case ch <- frame:
		default:
			// Drop the stale frame and queue the new one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}

// Latest returns the most recently published frame, or nil.
func (h *FrameHub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Subscribers returns the number of active subscribers.
func (h *FrameHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Package events carries work-creation events between same-process
// components, mirroring the payload that crosses processes through the
// device store's event key.
package events

import (
	"sync"
	"time"
)

// TypeWorkCreated is the only event type currently on the wire.
const TypeWorkCreated = "new_work_created"

// WorkCreated is the event payload. The same shape is JSON-encoded into the
// cross-context event key, so the field tags are part of the contract.
type WorkCreated struct {
	Type       string    `json:"type"`
	WorkID     string    `json:"workId"`
	CreatedBy  string    `json:"createdBy"`
	ClientName string    `json:"clientName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Bus is a small in-process publish/subscribe hub. Publish never blocks: a
// subscriber that stops draining loses events rather than stalling the
// producer that just saved a work record.
type Bus struct {
	mu   sync.Mutex
	subs []chan WorkCreated
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener. The returned channel is buffered.
func (b *Bus) Subscribe() <-chan WorkCreated {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan WorkCreated, 8)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish fans the event out to every subscriber, dropping on full buffers.
func (b *Bus) Publish(ev WorkCreated) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

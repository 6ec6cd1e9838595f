package sse

import (
	"sync"
)

// Event is one server-sent event addressed to an employee
type Event struct {
	EmployeeID string
	Name       string
	Data       interface{}
}

// Hub fans workflow events out to the open streams of each employee
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a stream for employeeID and returns its channel and cleanup function
func (h *Hub) Subscribe(employeeID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	if h.subscribers[employeeID] == nil {
		h.subscribers[employeeID] = make(map[chan Event]struct{})
	}
	h.subscribers[employeeID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[employeeID], ch)
			close(ch)
			if len(h.subscribers[employeeID]) == 0 {
				delete(h.subscribers, employeeID)
			}
		})
	}

	return ch, cleanup
}

// Publish delivers without blocking; a full stream drops the event
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.EmployeeID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishToMany sends a copy of event to each employee, skipping duplicates and blanks
func (h *Hub) PublishToMany(employeeIDs []string, event Event) {
	seen := make(map[string]struct{}, len(employeeIDs))
	for _, id := range employeeIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		e := event
		e.EmployeeID = id
		h.Publish(e)
	}
}

func (h *Hub) SubscriberCount(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[employeeID])
}

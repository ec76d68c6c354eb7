// Package realtime reparte los eventos del bus a los navegadores conectados por WebSocket.
package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/iptegra/nexus-api/internal/application/dto"
)

// Subscription canal de eventos de una conexión. C se cierra al desuscribir.
type Subscription struct {
	C         chan dto.RealtimeEvent
	companyID string
}

// Hub registro de suscripciones agrupadas por company.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	dropped atomic.Uint64
}

// NewHub crea un hub vacío.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registra una conexión de la company con un buffer de buf eventos.
func (h *Hub) Subscribe(companyID string, buf int) *Subscription {
	if buf <= 0 {
		buf = 16
	}
	s := &Subscription{C: make(chan dto.RealtimeEvent, buf), companyID: companyID}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[companyID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[companyID] = set
	}
	set[s] = struct{}{}
	return s
}

// Unsubscribe quita la suscripción y cierra su canal. Idempotente.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.companyID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.C)
	if len(set) == 0 {
		delete(h.subs, s.companyID)
	}
}

// Broadcast entrega el evento solo a las conexiones de su company.
// Nunca bloquea: si el buffer de una conexión está lleno el evento se descarta para ella.
// Devuelve cuántas conexiones lo recibieron.
func (h *Hub) Broadcast(ev dto.RealtimeEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for s := range h.subs[ev.CompanyID] {
		select {
		case s.C <- ev:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}
	return delivered
}

// Connections número de conexiones de la company.
func (h *Hub) Connections(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[companyID])
}

// Dropped eventos descartados por buffers llenos desde el arranque.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

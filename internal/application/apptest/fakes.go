package apptest

import (
	"context"
	"sync"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// RecordingPublisher guarda los eventos publicados. Err simula un broker caído.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []dto.RealtimeEvent
	Err    error
}

var _ ports.EventPublisher = (*RecordingPublisher)(nil)

func (p *RecordingPublisher) Publish(_ context.Context, ev dto.RealtimeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, ev)
	return nil
}

// Events copia de lo publicado.
func (p *RecordingPublisher) Events() []dto.RealtimeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.RealtimeEvent(nil), p.events...)
}

// Types solo los nombres, en orden.
func (p *RecordingPublisher) Types() []string {
	var out []string
	for _, ev := range p.Events() {
		out = append(out, ev.Type)
	}
	return out
}

// MemoryPermissionCache ports.PermissionCache en memoria. Err simula Redis caído.
type MemoryPermissionCache struct {
	mu   sync.Mutex
	sets map[string]permission.Set
	Err  error
}

var _ ports.PermissionCache = (*MemoryPermissionCache)(nil)

// NewMemoryPermissionCache caché vacía.
func NewMemoryPermissionCache() *MemoryPermissionCache {
	return &MemoryPermissionCache{sets: make(map[string]permission.Set)}
}

func (c *MemoryPermissionCache) Get(_ context.Context, companyID, role string) (permission.Set, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	set, ok := c.sets[companyID+"/"+role]
	if !ok {
		return nil, false, nil
	}
	return set.Clone(), true, nil
}

func (c *MemoryPermissionCache) Set(_ context.Context, companyID, role string, set permission.Set) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.sets[companyID+"/"+role] = set.Clone()
	return nil
}

func (c *MemoryPermissionCache) Invalidate(_ context.Context, companyID, role string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.sets, companyID+"/"+role)
	return nil
}

// Actor construye un actor de prueba en la company dada.
func Actor(companyID, userID string, role permission.Role, keys ...permission.Key) permission.Actor {
	return permission.Actor{
		UserID:      userID,
		CompanyID:   companyID,
		Role:        role,
		Permissions: permission.SetOf(keys...),
	}
}

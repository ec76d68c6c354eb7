// Package clock abstrae la hora actual para que el seguimiento de tiempo
// sea determinista en tests. Producción inyecta Real(); los tests, NewManual().
package clock

import (
	"sync"
	"time"
)

// Clock devuelve la hora actual.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Real devuelve el reloj del sistema (UTC).
func Real() Clock { return realClock{} }

// Manual es un reloj que solo avanza cuando el test lo pide.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual crea un reloj manual detenido en start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now devuelve la hora fijada.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance adelanta el reloj d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set fija la hora.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

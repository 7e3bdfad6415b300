package audiocore

import "sync"

// Locked serializes access to a SourcePool for callers that drive it from
// more than one goroutine. Listener and buffer calls share the same context
// and must go through Do.
type Locked struct {
	mu   sync.Mutex
	pool *SourcePool
}

// NewLocked wraps pool. The pool must not be used directly afterwards.
func NewLocked(pool *SourcePool) *Locked {
	return &Locked{pool: pool}
}

// Do runs fn while holding the lock
func (l *Locked) Do(fn func(p *SourcePool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.pool)
}

// PlaySound is the locked form of SourcePool.PlaySound
func (l *Locked) PlaySound(buf *SoundBuffer, position, velocity Vec3, looping bool, priority Priority) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.PlaySound(buf, position, velocity, looping, priority)
}

// Play is the locked form of SourcePool.Play
func (l *Locked) Play(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pool.Play(h)
}

// Pause is the locked form of SourcePool.Pause
func (l *Locked) Pause(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pool.Pause(h)
}

// Stop is the locked form of SourcePool.Stop
func (l *Locked) Stop(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pool.Stop(h)
}

// Rewind is the locked form of SourcePool.Rewind
func (l *Locked) Rewind(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pool.Rewind(h)
}

// State is the locked form of SourcePool.State
func (l *Locked) State(h Handle) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.State(h)
}

// IsActive is the locked form of SourcePool.IsActive
func (l *Locked) IsActive(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.IsActive(h)
}

// SetPosition is the locked form of SourcePool.SetPosition
func (l *Locked) SetPosition(h Handle, position Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pool.SetPosition(h, position)
}

// Update is the locked form of SourcePool.Update
func (l *Locked) Update() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Update()
}

// StopAll is the locked form of SourcePool.StopAll
func (l *Locked) StopAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pool.StopAll()
}

// Stats is the locked form of SourcePool.Stats
func (l *Locked) Stats() PoolStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Stats()
}

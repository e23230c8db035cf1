// Package keypool manages the ordered set of model API credentials and rotates
// between them when a credential runs out of quota.
package keypool

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoCredentialsConfigured is returned when the pool holds no usable credential.
var ErrNoCredentialsConfigured = errors.New("no API keys configured")

// Credential is an opaque API token for the model service.
type Credential string

// Lease is the credential handed out for one attempt, along with the cursor
// position it was read from.
type Lease struct {
	Credential Credential
	Index      int
}

// Pool is the contract the retry layer depends on.
type Pool interface {
	// Current returns the credential at the cursor.
	Current() (Lease, error)
	// Rotate advances the cursor circularly. It returns false when there is no
	// alternative credential to rotate to.
	Rotate() bool
	// RotateFrom advances the cursor only if it still points at index.
	RotateFrom(index int) bool
	// Size returns the number of credentials in the pool.
	Size() int
}

// RotateHook is invoked after the cursor moves.
type RotateHook func(from, to int)

// Option configures a RotatingPool.
type Option func(*RotatingPool)

// WithRotateHook registers a hook called after each successful rotation.
func WithRotateHook(hook RotateHook) Option {
	return func(p *RotatingPool) {
		p.onRotate = hook
	}
}

// RotatingPool is the process-wide credential pool. The cursor is guarded by a
// mutex so concurrent requests never advance past the same credential twice.
type RotatingPool struct {
	mu       sync.Mutex
	keys     []Credential
	cursor   int
	onRotate RotateHook
}

// New creates a pool from an ordered list of keys. Blank entries are dropped.
func New(keys []string, opts ...Option) *RotatingPool {
	p := &RotatingPool{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		p.keys = append(p.keys, Credential(k))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the credential the cursor points at.
func (p *RotatingPool) Current() (Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		return Lease{}, ErrNoCredentialsConfigured
	}
	return Lease{Credential: p.keys[p.cursor], Index: p.cursor}, nil
}

// Rotate advances the cursor to the next credential, wrapping around.
func (p *RotatingPool) Rotate() bool {
	p.mu.Lock()
	if len(p.keys) <= 1 {
		p.mu.Unlock()
		return false
	}
	from := p.cursor
	p.cursor = (p.cursor + 1) % len(p.keys)
	to := p.cursor
	hook := p.onRotate
	p.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
	return true
}

// RotateFrom advances the cursor if it still equals index. When another caller
// has already moved the cursor away from index, the credential the caller saw
// is no longer current, so it reports success without moving again.
func (p *RotatingPool) RotateFrom(index int) bool {
	p.mu.Lock()
	if len(p.keys) <= 1 {
		p.mu.Unlock()
		return false
	}
	if p.cursor != index {
		p.mu.Unlock()
		return true
	}
	from := p.cursor
	p.cursor = (p.cursor + 1) % len(p.keys)
	to := p.cursor
	hook := p.onRotate
	p.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
	return true
}

// Size returns the number of credentials.
func (p *RotatingPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Index returns the cursor position.
func (p *RotatingPool) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Reset moves the cursor back to the first credential.
func (p *RotatingPool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = 0
}

// Mask renders a credential for logs without exposing it.
func Mask(c Credential) string {
	s := string(c)
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "…" + s[len(s)-3:]
}

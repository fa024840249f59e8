package settings

import (
	"fmt"
	"sync"
)

// Keys for the settings the output subsystem reads.
const (
	KeyMaxChannelHistory = "output.maxChannelHistory"
)

// Provider holds runtime-mutable settings. Reads are live: consumers see a
// changed value on their next read without re-registration.
type Provider struct {
	mu       sync.RWMutex
	values   map[string]int
	defaults map[string]int
}

// NewProvider creates a provider seeded with the given history bound.
func NewProvider(maxChannelHistory int) *Provider {
	defaults := map[string]int{
		KeyMaxChannelHistory: maxChannelHistory,
	}
	values := make(map[string]int, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	return &Provider{values: values, defaults: defaults}
}

// MaxChannelHistory returns the current per-channel line-history bound.
func (p *Provider) MaxChannelHistory() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[KeyMaxChannelHistory]
}

// Get returns the current value for key.
func (p *Provider) Get(key string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok
}

// Set updates the value for a known key.
func (p *Provider) Set(key string, value int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.values[key]; !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}
	p.values[key] = value
	return nil
}

// Reset restores a setting to its default value.
func (p *Provider) Reset(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	def, ok := p.defaults[key]
	if !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}
	p.values[key] = def
	return nil
}

// List returns a copy of all settings.
func (p *Provider) List() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]int, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

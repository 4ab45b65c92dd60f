package ratelimit

import (
	"sync"
	"time"
)

// Policy is one key's admission rule. The zero Policy is unconfigured and
// allows everything.
type Policy struct {
	Limit  int           // max requests per window
	Window time.Duration // trailing window length
}

// Configured reports whether p actually limits anything.
func (p Policy) Configured() bool {
	return p.Limit > 0 && p.Window > 0
}

// PolicySet maps rate-limit keys to policies, typically one per provider
// endpoint. Lookup on an unknown key returns the zero Policy, so unknown
// endpoints pass through unlimited.
type PolicySet struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewPolicySet creates a policy set, optionally seeded from policies.
func NewPolicySet(policies map[string]Policy) *PolicySet {
	s := &PolicySet{policies: make(map[string]Policy, len(policies))}
	for k, p := range policies {
		s.policies[k] = p
	}
	return s
}

// Set installs or replaces the policy for key.
func (s *PolicySet) Set(key string, p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[key] = p
}

// Lookup returns key's policy, or the zero Policy when none is configured.
func (s *PolicySet) Lookup(key string) Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policies[key]
}

// Remove deletes key's policy.
func (s *PolicySet) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, key)
}

// Len returns the number of configured policies.
func (s *PolicySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.policies)
}

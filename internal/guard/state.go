// Package guard suppresses the host page's native submission pathway
// while a mediation cycle is in flight. One State value is owned by the
// orchestrator; interceptors only ever read it through accessors, so
// the single-active-cycle invariant is checkable in isolation.
package guard

import "sync"

// State is the suppression state for one mediation pipeline: a global
// block flag, a forwarding (re-entrancy) flag, and a one-shot
// pass-through for the pipeline's own programmatic submission.
type State struct {
	mu         sync.Mutex
	blocked    bool
	forwarding bool
	allowOnce  bool
}

// NewState returns an unblocked, idle state.
func NewState() *State { return &State{} }

// SetBlocked turns native-submission suppression on or off.
func (s *State) SetBlocked(b bool) {
	s.mu.Lock()
	s.blocked = b
	s.mu.Unlock()
}

// Blocked reports whether native submission is currently suppressed.
func (s *State) Blocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked
}

// TryBegin atomically claims the pipeline for a new cycle: it fails if
// a cycle is already forwarding or suppression is already on, otherwise
// it sets both flags in one step. Claiming before any asynchronous work
// is what keeps a fast repeated trigger from starting a second cycle.
func (s *State) TryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forwarding || s.blocked {
		return false
	}
	s.forwarding = true
	s.blocked = true
	return true
}

// End releases the claim and all suppression. Every cycle exit path
// must land here.
func (s *State) End() {
	s.mu.Lock()
	s.forwarding = false
	s.blocked = false
	s.allowOnce = false
	s.mu.Unlock()
}

// Forwarding reports whether a cycle is in flight.
func (s *State) Forwarding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forwarding
}

// ArmPassThrough grants exactly one native-pathway pass, releasing the
// block for the pipeline's own programmatic submission.
func (s *State) ArmPassThrough() {
	s.mu.Lock()
	s.allowOnce = true
	s.blocked = false
	s.mu.Unlock()
}

// ConsumePassThrough spends the one-shot pass if armed. Suppression is
// re-armed only while a cycle is still forwarding; a pass granted to
// the user's own manual send (binary cycles) leaves the pipeline idle
// and unblocked afterwards.
func (s *State) ConsumePassThrough() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allowOnce {
		return false
	}
	s.allowOnce = false
	s.blocked = s.forwarding
	return true
}

// EndForUserSend closes the cycle but leaves a one-shot pass armed, so
// the user's own next send gesture reaches the host natively. Used
// when a binary attachment makes automatic submission unsafe.
func (s *State) EndForUserSend() {
	s.mu.Lock()
	s.forwarding = false
	s.blocked = false
	s.allowOnce = true
	s.mu.Unlock()
}

// PassThroughPending reports whether a one-shot pass is armed.
func (s *State) PassThroughPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allowOnce
}

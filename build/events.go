/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package build

import "context"

// EventKind classifies session events.
type EventKind int

const (
	// EventBuild fires when a node starts compiling.
	EventBuild EventKind = iota
	// EventChanged fires when an artifact is rewritten after the initial
	// scan has completed.
	EventChanged
	// EventReady fires when the last in-flight compilation finishes and no
	// scan is running.
	EventReady
)

func (k EventKind) String() string {
	switch k {
	case EventBuild:
		return "build"
	case EventChanged:
		return "changed"
	case EventReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers. Node is nil for EventReady.
type Event struct {
	Kind EventKind
	Node *Node
}

// State is the readiness of a session.
type State int

const (
	StateScanning State = iota
	StateBuilding
	StateReady
)

func (st State) String() string {
	switch st {
	case StateScanning:
		return "scanning"
	case StateBuilding:
		return "building"
	default:
		return "ready"
	}
}

// Subscribe registers fn for session events and returns a function that
// removes it. fn runs on the goroutine that caused the event.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Session) emit(e Event) {
	s.obsMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// State returns the current readiness.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.scanning:
		return StateScanning
	case s.building > 0:
		return StateBuilding
	default:
		return StateReady
	}
}

// WaitReady blocks until the session is ready or ctx is done.
func (s *Session) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) begin(n *Node) {
	s.mu.Lock()
	s.building++
	if s.idleClosed {
		s.idle = make(chan struct{})
		s.idleClosed = false
	}
	s.mu.Unlock()
	s.emit(Event{Kind: EventBuild, Node: n})
}

func (s *Session) end() {
	s.mu.Lock()
	s.building--
	ready := s.settleLocked()
	s.mu.Unlock()
	if ready {
		s.emit(Event{Kind: EventReady})
	}
}

func (s *Session) finishScan() {
	s.mu.Lock()
	s.scanning = false
	ready := s.settleLocked()
	s.mu.Unlock()
	if ready {
		s.emit(Event{Kind: EventReady})
	}
}

// settleLocked closes the idle channel when nothing is in flight.
func (s *Session) settleLocked() bool {
	if s.scanning || s.building > 0 || s.idleClosed {
		return false
	}
	close(s.idle)
	s.idleClosed = true
	return true
}

// changed reports a rewritten artifact once the initial scan is over.
func (s *Session) changed(n *Node) {
	s.mu.Lock()
	scanning := s.scanning
	s.mu.Unlock()
	if !scanning {
		s.emit(Event{Kind: EventChanged, Node: n})
	}
}

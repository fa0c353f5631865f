// Package cruntime holds the client-side claim runtime: an in-memory
// projection of one active drop map (territories, settings, eligibility and
// current occupants) plus the transition rules for claim requests. It is the
// single source the renderer and the UI read from; it is mutated only from
// successful backend round trips.
package cruntime

import (
	"log"
	"sync"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// ChangeCallback fires after every store rebuild or accepted transition.
type ChangeCallback func()

// Store is the claim-state projection for one active map. All fields are
// rebuilt wholesale from fetch responses; there is no incremental patching, so
// a dropped or reordered response can never leave a half-applied state behind.
type Store struct {
	mu sync.RWMutex

	settings    *typedef.DropMapSettings
	territories []*typedef.Territory
	byID        map[string]*typedef.Territory

	// Derived indices, rebuilt together with the territory list.
	claimsByUser map[string][]*typedef.Territory
	occupancy    map[string]int
	eligible     map[string]bool

	// Generation guards against out-of-order response application: a fetch
	// started for an older settings instance carries a stale generation and
	// its result is discarded on arrival.
	generation uint64
	settingsID string

	onChange ChangeCallback
}

// NewStore creates an empty store with no active map.
func NewStore() *Store {
	return &Store{
		byID:         make(map[string]*typedef.Territory),
		claimsByUser: make(map[string][]*typedef.Territory),
		occupancy:    make(map[string]int),
		eligible:     make(map[string]bool),
	}
}

// SetChangeCallback registers the redraw trigger invoked after mutations.
func (s *Store) SetChangeCallback(cb ChangeCallback) {
	s.mu.Lock()
	s.onChange = cb
	s.mu.Unlock()
}

// BeginFetch records the settings instance a fetch is being issued for and
// returns the generation token the response must present to Apply.
func (s *Store) BeginFetch(settingsID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settingsID != s.settingsID {
		s.settingsID = settingsID
		s.generation++
	}
	return s.generation
}

// Apply replaces the whole projection with a fetched snapshot. Responses
// carrying a stale generation (the active map changed while the request was in
// flight) are rejected with ErrStaleResponse and leave the store untouched.
func (s *Store) Apply(generation uint64, settings *typedef.DropMapSettings, territories []*typedef.Territory, eligibility []typedef.EligiblePlayer) error {
	s.mu.Lock()

	if generation != s.generation {
		s.mu.Unlock()
		log.Printf("[STORE] Dropping stale fetch result (gen %d, current %d)", generation, s.generation)
		return typedef.ErrStaleResponse
	}

	s.settings = settings
	s.territories = territories
	s.rebuildIndicesLocked()

	s.eligible = make(map[string]bool, len(eligibility))
	for _, e := range eligibility {
		s.eligible[e.UserID] = true
	}

	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// rebuildIndicesLocked derives byID, claimsByUser and occupancy from the
// territory list. Caller holds the write lock.
func (s *Store) rebuildIndicesLocked() {
	s.byID = make(map[string]*typedef.Territory, len(s.territories))
	s.claimsByUser = make(map[string][]*typedef.Territory)
	s.occupancy = make(map[string]int, len(s.territories))

	for _, t := range s.territories {
		if t == nil {
			continue
		}
		s.byID[t.ID] = t
		s.occupancy[t.ID] = len(t.Claims)
		for _, c := range t.Claims {
			s.claimsByUser[c.UserID] = append(s.claimsByUser[c.UserID], t)
		}
	}
}

// Settings returns the active settings instance, or nil before the first fetch.
func (s *Store) Settings() *typedef.DropMapSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Territories returns the current territory list. Callers treat the slice and
// the territories as read-only.
func (s *Store) Territories() []*typedef.Territory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*typedef.Territory, len(s.territories))
	copy(out, s.territories)
	return out
}

// Territory looks a territory up by id.
func (s *Store) Territory(id string) *typedef.Territory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// Occupancy returns the current claim count of a territory.
func (s *Store) Occupancy(territoryID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.occupancy[territoryID]
}

// ClaimsByUser returns the territories the user currently occupies on this
// map. Steady state is at most one entry.
func (s *Store) ClaimsByUser(userID string) []*typedef.Territory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*typedef.Territory, len(s.claimsByUser[userID]))
	copy(out, s.claimsByUser[userID])
	return out
}

// IsEligible reports whether the user is on the active eligibility list.
func (s *Store) IsEligible(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eligible[userID]
}

// OccupantOf reports whether the user already holds a slot on the territory.
func (s *Store) OccupantOf(territoryID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.byID[territoryID]
	if t == nil {
		return false
	}
	for _, c := range t.Claims {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// Snapshot copies the projection for serialization (local snapshot file,
// websocket mirror). Territories are deep-copied so the caller can marshal
// without holding the store lock.
func (s *Store) Snapshot() ([]*typedef.Territory, *typedef.DropMapSettings) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	territories := make([]*typedef.Territory, 0, len(s.territories))
	for _, t := range s.territories {
		if t == nil {
			continue
		}
		dup := *t
		dup.Points = append([]typedef.Point(nil), t.Points...)
		dup.Claims = append([]typedef.Claim(nil), t.Claims...)
		territories = append(territories, &dup)
	}

	var settings *typedef.DropMapSettings
	if s.settings != nil {
		dup := *s.settings
		settings = &dup
	}
	return territories, settings
}

// notifyAfter invokes the change callback outside the lock. Caller must hold
// the write lock and is responsible for releasing it; the callback itself runs
// after the lock is dropped.
func (s *Store) notifyAfter(unlock func()) {
	cb := s.onChange
	unlock()
	if cb != nil {
		cb()
	}
}

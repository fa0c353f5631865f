package cruntime

import (
	"log"
	"time"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// Machine evaluates claim transitions against a Store and applies the local
// projection updates after the backend confirms them. Evaluation is optimistic:
// the backend re-validates every transition, and a losing race comes back as a
// benign rejection that the UI reconciles with a refetch.
type Machine struct {
	store *Store
}

// NewMachine wires a machine to the store it reads and mutates.
func NewMachine(store *Store) *Machine {
	return &Machine{store: store}
}

// effectiveCap is the occupancy limit actually enforced for a territory: the
// territory's own limit, further tightened by the settings-level cap when one
// is configured.
func effectiveCap(t *typedef.Territory, settings *typedef.DropMapSettings) int {
	limit := t.MaxOccupants
	if limit < 1 {
		limit = 1
	}
	if settings != nil && settings.MaxPlayersPerSpot > 0 && settings.MaxPlayersPerSpot < limit {
		limit = settings.MaxPlayersPerSpot
	}
	return limit
}

// Evaluate runs the claim gate for a user clicking a territory, in order:
// lock, eligibility, reclaim policy, occupancy. It does not mutate the store;
// the caller performs the network round trip and then commits.
func (m *Machine) Evaluate(territoryID, userID string, isAdmin bool) typedef.ClaimResult {
	settings := m.store.Settings()
	if settings == nil {
		// Fail closed before the first settings fetch lands.
		return typedef.ClaimResult{Rejection: typedef.RejectNotEligible}
	}

	if settings.IsLocked && !isAdmin {
		return typedef.ClaimResult{Rejection: typedef.RejectMapLocked}
	}

	if !isAdmin && !m.store.IsEligible(userID) {
		return typedef.ClaimResult{Rejection: typedef.RejectNotEligible}
	}

	target := m.store.Territory(territoryID)
	if target == nil || !target.IsActive {
		return typedef.ClaimResult{Rejection: typedef.RejectValidation}
	}

	// Re-clicking an occupied slot is an idempotent success.
	if m.store.OccupantOf(territoryID, userID) {
		return typedef.ClaimResult{Claimed: territoryID, NoOp: true}
	}

	held := m.store.ClaimsByUser(userID)
	var released string
	if len(held) > 0 {
		if !settings.AllowReclaim {
			return typedef.ClaimResult{Rejection: typedef.RejectReclaimDisallowed}
		}
		// Reclaim implicitly vacates the prior spot; the store invariant of
		// one active claim per user holds after commit.
		released = held[0].ID
	}

	if m.store.Occupancy(territoryID) >= effectiveCap(target, settings) {
		return typedef.ClaimResult{Rejection: typedef.RejectTerritoryFull}
	}

	return typedef.ClaimResult{Claimed: territoryID, Released: released}
}

// EvaluateAdminAssign checks an admin override assignment. Lock, eligibility
// and reclaim gates are bypassed; the occupancy cap still applies unless force
// is set.
func (m *Machine) EvaluateAdminAssign(territoryID, userID string, force bool) typedef.ClaimResult {
	target := m.store.Territory(territoryID)
	if target == nil {
		return typedef.ClaimResult{Rejection: typedef.RejectValidation}
	}

	if m.store.OccupantOf(territoryID, userID) {
		return typedef.ClaimResult{Claimed: territoryID, NoOp: true}
	}

	if !force && m.store.Occupancy(territoryID) >= effectiveCap(target, m.store.Settings()) {
		return typedef.ClaimResult{Rejection: typedef.RejectTerritoryFull}
	}

	held := m.store.ClaimsByUser(userID)
	var released string
	if len(held) > 0 {
		released = held[0].ID
	}
	return typedef.ClaimResult{Claimed: territoryID, Released: released}
}

// Commit applies a confirmed claim to the local projection: every prior claim
// of the user on this map is released, then the new claim is inserted. NoOp
// results leave the store untouched.
func (m *Machine) Commit(result typedef.ClaimResult, claim typedef.Claim) {
	if !result.OK() || result.NoOp {
		return
	}

	s := m.store
	s.mu.Lock()

	m.releaseAllLocked(claim.UserID)

	target := s.byID[result.Claimed]
	if target == nil {
		s.mu.Unlock()
		log.Printf("[CLAIM] Commit dropped, territory %s vanished from projection", result.Claimed)
		return
	}
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = time.Now()
	}
	claim.TerritoryID = target.ID
	target.Claims = append(target.Claims, claim)
	s.occupancy[target.ID] = len(target.Claims)
	s.claimsByUser[claim.UserID] = []*typedef.Territory{target}

	s.notifyAfter(s.mu.Unlock)
}

// Remove drops one user's claim from one territory after the backend confirmed
// the removal (unclaim or admin remove).
func (m *Machine) Remove(territoryID, userID string) {
	s := m.store
	s.mu.Lock()

	target := s.byID[territoryID]
	if target == nil {
		s.mu.Unlock()
		return
	}
	kept := target.Claims[:0]
	for _, c := range target.Claims {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	target.Claims = kept
	s.occupancy[target.ID] = len(target.Claims)

	remaining := s.claimsByUser[userID][:0]
	for _, t := range s.claimsByUser[userID] {
		if t.ID != territoryID {
			remaining = append(remaining, t)
		}
	}
	if len(remaining) == 0 {
		delete(s.claimsByUser, userID)
	} else {
		s.claimsByUser[userID] = remaining
	}

	s.notifyAfter(s.mu.Unlock)
}

// ReleaseAll removes every claim the user holds across the map.
func (m *Machine) ReleaseAll(userID string) {
	s := m.store
	s.mu.Lock()
	m.releaseAllLocked(userID)
	s.notifyAfter(s.mu.Unlock)
}

func (m *Machine) releaseAllLocked(userID string) {
	s := m.store
	for _, t := range s.claimsByUser[userID] {
		kept := t.Claims[:0]
		for _, c := range t.Claims {
			if c.UserID != userID {
				kept = append(kept, c)
			}
		}
		t.Claims = kept
		s.occupancy[t.ID] = len(t.Claims)
	}
	delete(s.claimsByUser, userID)
}

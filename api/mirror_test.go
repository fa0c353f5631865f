package api

import (
	"testing"
	"time"

	"github.com/Eltensy/newvictoryweb-sub000/cruntime"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

func mirrorOverSeededStore(t *testing.T) *Mirror {
	t.Helper()
	store := cruntime.NewStore()
	settings := &typedef.DropMapSettings{
		ID: "s1", TemplateID: "tpl-1", Mode: typedef.ModeTournament, CustomName: "Finals",
	}
	territories := []*typedef.Territory{
		{
			ID: "a", Name: "Lagoon", MaxOccupants: 2, IsActive: true,
			Points: []typedef.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 100}},
			Claims: []typedef.Claim{
				{TerritoryID: "a", UserID: "alice", DisplayName: "alice", ClaimedAt: time.Now()},
			},
		},
	}
	if err := store.Apply(store.BeginFetch("s1"), settings, territories, nil); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return NewMirror(store)
}

func TestBuildStateIncludesClaimsAndShapes(t *testing.T) {
	m := mirrorOverSeededStore(t)

	state := m.buildState(true, true)
	if state.SettingsID != "s1" || state.MapName != "Finals" {
		t.Errorf("settings header = %q / %q", state.SettingsID, state.MapName)
	}
	if len(state.Territories) != 1 {
		t.Fatalf("territories = %d, want 1", len(state.Territories))
	}
	safe := state.Territories[0]
	if len(safe.Points) != 3 {
		t.Errorf("points = %d, want 3", len(safe.Points))
	}
	if len(safe.Claims) != 1 || safe.Claims[0].UserID != "alice" {
		t.Errorf("claims = %+v", safe.Claims)
	}
	if state.TotalClaims != 1 {
		t.Errorf("TotalClaims = %d, want 1", state.TotalClaims)
	}
}

func TestBuildStateOmitsClaimsAndShapesOnRequest(t *testing.T) {
	m := mirrorOverSeededStore(t)

	state := m.buildState(false, false)
	safe := state.Territories[0]
	if safe.Points != nil {
		t.Errorf("points leaked with shapes excluded: %+v", safe.Points)
	}
	if safe.Claims != nil {
		t.Errorf("claims leaked with claims excluded: %+v", safe.Claims)
	}
	// Aggregate occupancy stays visible either way.
	if safe.Occupancy != 1 || state.TotalClaims != 1 {
		t.Errorf("occupancy = %d, TotalClaims = %d, want 1/1", safe.Occupancy, state.TotalClaims)
	}
}

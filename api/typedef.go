package api

import (
	"time"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// WebSocket message types for the local state mirror
type MessageType string

const (
	// Outgoing message types (mirror to overlay client)
	MessageTypeState MessageType = "state"
	MessageTypeError MessageType = "error"
	MessageTypeAck   MessageType = "ack"

	// Incoming message types (overlay client to mirror)
	MessageTypeGetState   MessageType = "get_state"
	MessageTypeSetOptions MessageType = "set_options"
)

// Base WebSocket message structure
type WSMessage struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"` // For correlating responses
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientOptions controls what a mirror client receives in state pushes.
type ClientOptions struct {
	IncludeClaims bool `json:"include_claims"`
	IncludeShapes bool `json:"include_shapes"`
}

// StateData is the claim-state snapshot pushed to mirror clients. Territory
// geometry is optional so lightweight overlays only showing occupancy counts
// do not pay for polygon payloads.
type StateData struct {
	SettingsID       string                `json:"settings_id"`
	MapName          string                `json:"map_name,omitempty"`
	Mode             typedef.MapMode       `json:"mode,omitempty"`
	IsLocked         bool                  `json:"is_locked"`
	TotalTerritories int                   `json:"total_territories"`
	TotalClaims      int                   `json:"total_claims"`
	Territories      []*TerritoryStateSafe `json:"territories,omitempty"`
}

// TerritoryStateSafe is the flattened, cycle-free territory view serialized to
// mirror clients.
type TerritoryStateSafe struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Color        string          `json:"color"`
	MaxOccupants int             `json:"max_occupants"`
	Occupancy    int             `json:"occupancy"`
	Points       []typedef.Point `json:"points,omitempty"`
	Claims       []ClaimSafe     `json:"claims,omitempty"`
}

// ClaimSafe mirrors one occupant of a territory.
type ClaimSafe struct {
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	TeamID       string    `json:"team_id,omitempty"`
	IsTeamLeader bool      `json:"is_team_leader,omitempty"`
	ClaimedAt    time.Time `json:"claimed_at"`
}

// Incoming message payloads

type SetOptionsData struct {
	IncludeClaims *bool `json:"include_claims,omitempty"`
	IncludeShapes *bool `json:"include_shapes,omitempty"`
}

// Backend wire types (REST)

// claimRequest is the body of POST /api/dropmap/claim.
type claimRequest struct {
	TerritoryID     string `json:"territoryId"`
	ReplaceExisting bool   `json:"replaceExisting"`
}

// adminClaimRequest is the body of the admin assign/remove endpoints.
type adminClaimRequest struct {
	TerritoryID string `json:"territoryId"`
	UserID      string `json:"userId"`
	Force       bool   `json:"force,omitempty"`
}

// shapeAttachRequest associates a created shape with a template.
type shapeAttachRequest struct {
	ShapeID      string `json:"shapeId"`
	MaxOccupants int    `json:"maxOccupants"`
}

// territoryPatch carries the editable territory fields; nil fields are left
// untouched by the backend.
type territoryPatch struct {
	Name         *string `json:"name,omitempty"`
	Color        *string `json:"color,omitempty"`
	Description  *string `json:"description,omitempty"`
	MaxOccupants *int    `json:"maxOccupants,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// errorResponse is the backend's uniform failure envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// territoriesResponse wraps GET territories.
type territoriesResponse struct {
	Territories []*typedef.Territory `json:"territories"`
}

// eligibilityResponse wraps GET eligibility.
type eligibilityResponse struct {
	Players []typedef.EligiblePlayer `json:"players"`
}

// inviteCodesResponse wraps GET invite codes.
type inviteCodesResponse struct {
	Codes []typedef.InviteCode `json:"codes"`
}

// publicMapResponse wraps the unauthenticated read-only mirror of a map.
type publicMapResponse struct {
	Settings    *typedef.DropMapSettings `json:"settings"`
	TeamMode    string                   `json:"teamMode,omitempty"`
	Territories []*typedef.Territory     `json:"territories,omitempty"`
}

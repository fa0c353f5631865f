package typedef

import (
	"errors"
	"time"
)

// Canonical map frame. All territory points and viewport math are expressed in
// this fixed square coordinate space regardless of the background image size.
const (
	FrameWidth  float64 = 1000
	FrameHeight float64 = 1000
)

var (
	ErrShapeNameEmpty  = errors.New("shape name cannot be empty")
	ErrTooFewPoints    = errors.New("shape needs at least 3 points")
	ErrNoCredential    = errors.New("no bearer credential available")
	ErrStaleResponse   = errors.New("response belongs to a map that is no longer active")
	ErrSettingsUnknown = errors.New("drop map settings not loaded")
)

// Point is a coordinate in the canonical map frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box in map space.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// MapMode distinguishes tournament instances from open practice maps.
type MapMode string

const (
	ModeTournament MapMode = "tournament"
	ModePractice   MapMode = "practice"
)

// TeamMode is the tournament team size, used to pad team labels on the map.
type TeamMode int8

const (
	TeamModeUnknown TeamMode = iota
	TeamModeSolo
	TeamModeDuo
	TeamModeTrio
	TeamModeSquad
)

// Size returns the number of players per team, or 0 when unknown.
func (tm TeamMode) Size() int {
	switch tm {
	case TeamModeSolo:
		return 1
	case TeamModeDuo:
		return 2
	case TeamModeTrio:
		return 3
	case TeamModeSquad:
		return 4
	default:
		return 0
	}
}

// ParseTeamMode maps the backend's team mode string to a TeamMode.
func ParseTeamMode(s string) TeamMode {
	switch s {
	case "solo":
		return TeamModeSolo
	case "duo":
		return TeamModeDuo
	case "trio":
		return TeamModeTrio
	case "squad":
		return TeamModeSquad
	default:
		return TeamModeUnknown
	}
}

// Territory is a claimable polygonal zone on the drop map.
type Territory struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Points       []Point `json:"points"` // map-space, >= 3 in valid shapes
	Color        string  `json:"color"`  // #rrggbb
	MaxOccupants int     `json:"maxOccupants"`
	TemplateID   string  `json:"templateId"`
	IsActive     bool    `json:"isActive"`
	Description  string  `json:"description,omitempty"`

	Claims []Claim `json:"claims,omitempty"`
}

// Claim binds one user, optionally as part of a team, to one territory.
type Claim struct {
	TerritoryID  string    `json:"territoryId"`
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	TeamID       string    `json:"teamId,omitempty"`
	IsTeamLeader bool      `json:"isTeamLeader,omitempty"`
	ClaimedAt    time.Time `json:"claimedAt"`
}

// DropMapSettings is the per-tournament (or practice) configuration instance of
// a template: lock state, reclaim policy and occupancy limits.
type DropMapSettings struct {
	ID                string   `json:"id"`
	TemplateID        string   `json:"templateId"`
	TournamentID      string   `json:"tournamentId,omitempty"`
	Mode              MapMode  `json:"mode"`
	AllowReclaim      bool     `json:"allowReclaim"`
	IsLocked          bool     `json:"isLocked"`
	MaxPlayersPerSpot int      `json:"maxPlayersPerSpot"`
	MaxContestedSpots int      `json:"maxContestedSpots"`
	CustomName        string   `json:"customName,omitempty"`
	TeamMode          TeamMode `json:"-"`
}

// EligiblePlayer gates which users may claim on a given settings instance.
type EligiblePlayer struct {
	SettingsID  string    `json:"settingsId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Source      string    `json:"source"` // manual | tournament | invite
	AddedAt     time.Time `json:"addedAt"`
}

// InviteCode is a single-use token binding a display name to eligibility on one
// settings instance.
type InviteCode struct {
	Code        string     `json:"code"`
	SettingsID  string     `json:"settingsId"`
	DisplayName string     `json:"displayName,omitempty"`
	UsedBy      string     `json:"usedBy,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Expired reports whether the code can no longer be redeemed.
func (ic InviteCode) Expired(now time.Time) bool {
	return ic.ExpiresAt != nil && now.After(*ic.ExpiresAt)
}

// Shape is an authored polygon before it is attached to a template.
type Shape struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
}

package app

import (
	"os"
	"strings"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// Session carries the bearer credential and the identity the backend resolved
// for it. Without a credential every authenticated operation fails closed
// before any request is made.
type Session struct {
	Token       string
	UserID      string
	DisplayName string
	TeamID      string
	IsAdmin     bool
}

// SessionFromEnv reads the credential and identity from the environment. The
// variables are normally provided through the .env file next to the binary.
func SessionFromEnv() *Session {
	return &Session{
		Token:       strings.TrimSpace(os.Getenv("DROPMAP_TOKEN")),
		UserID:      strings.TrimSpace(os.Getenv("DROPMAP_USER_ID")),
		DisplayName: strings.TrimSpace(os.Getenv("DROPMAP_DISPLAY_NAME")),
		TeamID:      strings.TrimSpace(os.Getenv("DROPMAP_TEAM_ID")),
		IsAdmin:     os.Getenv("DROPMAP_ADMIN") == "1",
	}
}

// HasCredential reports whether authenticated calls can be attempted.
func (s *Session) HasCredential() bool {
	return s != nil && s.Token != ""
}

// Claim builds the local claim record committed after the backend accepts.
func (s *Session) Claim(territoryID string, isLeader bool) typedef.Claim {
	name := s.DisplayName
	if name == "" {
		name = s.UserID
	}
	return typedef.Claim{
		TerritoryID:  territoryID,
		UserID:       s.UserID,
		DisplayName:  name,
		TeamID:       s.TeamID,
		IsTeamLeader: isLeader,
	}
}

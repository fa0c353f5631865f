package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// ClaimError is a backend claim rejection mapped onto the client taxonomy.
// Benign rejections (full spot, lost race) are suppressed by the toast layer.
type ClaimError struct {
	Rejection typedef.ClaimRejection
	Message   string
}

func (e *ClaimError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Rejection.String()
}

// Client talks to the contest backend's drop map endpoints. The bearer
// credential is opaque; when none is present every authenticated call fails
// closed with ErrNoCredential before touching the network.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a backend client. token may be empty for public-only use.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// HasCredential reports whether authenticated endpoints can be called.
func (c *Client) HasCredential() bool {
	return c.token != ""
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, body, out interface{}) error {
	if authed && c.token == "" {
		return typedef.ErrNoCredential
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ClaimError{Rejection: typedef.RejectNetworkFailure, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError maps the backend failure envelope to the claim taxonomy. Unknown
// codes fall through as NetworkFailure so they surface the generic retry notice
// rather than disappearing.
func decodeError(resp *http.Response) error {
	var envelope errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &envelope)

	code := strings.ToLower(envelope.Code)
	if code == "" {
		code = strings.ToLower(strings.TrimSpace(envelope.Error))
	}

	rejection := typedef.RejectNetworkFailure
	switch {
	case strings.Contains(code, "locked"):
		rejection = typedef.RejectMapLocked
	case strings.Contains(code, "eligible") || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		rejection = typedef.RejectNotEligible
	case strings.Contains(code, "reclaim"):
		rejection = typedef.RejectReclaimDisallowed
	case strings.Contains(code, "full"):
		rejection = typedef.RejectTerritoryFull
	case strings.Contains(code, "already") || strings.Contains(code, "claimed"):
		rejection = typedef.RejectAlreadyClaimed
	case resp.StatusCode == http.StatusBadRequest:
		rejection = typedef.RejectValidation
	}

	msg := envelope.Error
	if msg == "" {
		msg = fmt.Sprintf("backend returned %s", resp.Status)
	}
	return &ClaimError{Rejection: rejection, Message: msg}
}

// FetchTerritories loads the territory list (with embedded claims) for a
// template.
func (c *Client) FetchTerritories(ctx context.Context, templateID string) ([]*typedef.Territory, error) {
	var out territoriesResponse
	path := "/api/dropmap/territories?templateId=" + url.QueryEscape(templateID)
	if err := c.do(ctx, http.MethodGet, path, true, nil, &out); err != nil {
		return nil, err
	}
	return out.Territories, nil
}

// FetchSettings loads one drop map settings instance.
func (c *Client) FetchSettings(ctx context.Context, settingsID string) (*typedef.DropMapSettings, error) {
	var out struct {
		Settings *typedef.DropMapSettings `json:"settings"`
		TeamMode string                   `json:"teamMode,omitempty"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/dropmap/settings/"+url.PathEscape(settingsID), true, nil, &out); err != nil {
		return nil, err
	}
	if out.Settings == nil {
		return nil, typedef.ErrSettingsUnknown
	}
	out.Settings.TeamMode = typedef.ParseTeamMode(out.TeamMode)
	return out.Settings, nil
}

// FetchEligibility loads the eligibility list of a settings instance.
func (c *Client) FetchEligibility(ctx context.Context, settingsID string) ([]typedef.EligiblePlayer, error) {
	var out eligibilityResponse
	path := "/api/dropmap/settings/" + url.PathEscape(settingsID) + "/eligibility"
	if err := c.do(ctx, http.MethodGet, path, true, nil, &out); err != nil {
		return nil, err
	}
	return out.Players, nil
}

// Claim requests a territory for the authenticated user. replaceExisting
// mirrors the allow-reclaim flow: the backend releases the prior claim in the
// same transaction.
func (c *Client) Claim(ctx context.Context, territoryID string, replaceExisting bool) error {
	return c.do(ctx, http.MethodPost, "/api/dropmap/claim", true,
		claimRequest{TerritoryID: territoryID, ReplaceExisting: replaceExisting}, nil)
}

// Unclaim releases the authenticated user's claim on a territory.
func (c *Client) Unclaim(ctx context.Context, territoryID string) error {
	return c.do(ctx, http.MethodPost, "/api/dropmap/unclaim", true,
		claimRequest{TerritoryID: territoryID}, nil)
}

// AdminAssign places a user into a territory, bypassing lock and eligibility.
func (c *Client) AdminAssign(ctx context.Context, territoryID, userID string, force bool) error {
	return c.do(ctx, http.MethodPost, "/api/dropmap/admin-assign", true,
		adminClaimRequest{TerritoryID: territoryID, UserID: userID, Force: force}, nil)
}

// AdminRemove removes a user's claim from a territory.
func (c *Client) AdminRemove(ctx context.Context, territoryID, userID string) error {
	return c.do(ctx, http.MethodPost, "/api/dropmap/admin-remove", true,
		adminClaimRequest{TerritoryID: territoryID, UserID: userID}, nil)
}

// SetLocked toggles the lock state of a settings instance.
func (c *Client) SetLocked(ctx context.Context, settingsID string, locked bool) error {
	body := map[string]bool{"isLocked": locked}
	return c.do(ctx, http.MethodPut, "/api/dropmap/settings/"+url.PathEscape(settingsID), true, body, nil)
}

// UpdateSettings persists edited settings fields.
func (c *Client) UpdateSettings(ctx context.Context, settings typedef.DropMapSettings) error {
	return c.do(ctx, http.MethodPut, "/api/dropmap/settings/"+url.PathEscape(settings.ID), true, settings, nil)
}

// DeleteSettings deletes a settings instance; the backend cascades the
// eligibility list and invite codes.
func (c *Client) DeleteSettings(ctx context.Context, settingsID string) error {
	return c.do(ctx, http.MethodDelete, "/api/dropmap/settings/"+url.PathEscape(settingsID), true, nil, nil)
}

// AddEligiblePlayer appends a user to the eligibility list.
func (c *Client) AddEligiblePlayer(ctx context.Context, settingsID, userID, displayName, source string) error {
	body := typedef.EligiblePlayer{SettingsID: settingsID, UserID: userID, DisplayName: displayName, Source: source}
	path := "/api/dropmap/settings/" + url.PathEscape(settingsID) + "/eligibility"
	return c.do(ctx, http.MethodPost, path, true, body, nil)
}

// RemoveEligiblePlayer drops a user from the eligibility list.
func (c *Client) RemoveEligiblePlayer(ctx context.Context, settingsID, userID string) error {
	path := "/api/dropmap/settings/" + url.PathEscape(settingsID) + "/eligibility/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, true, nil, nil)
}

// CreateInviteCode mints a single-use invite token for one settings instance.
// The token is generated client-side so the admin can hand it out even if the
// response is lost; the backend treats the code as the primary key.
func (c *Client) CreateInviteCode(ctx context.Context, settingsID, displayName string, expiresAt *time.Time) (*typedef.InviteCode, error) {
	code := typedef.InviteCode{
		Code:        uuid.NewString(),
		SettingsID:  settingsID,
		DisplayName: displayName,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	}
	path := "/api/dropmap/settings/" + url.PathEscape(settingsID) + "/invite-codes"
	if err := c.do(ctx, http.MethodPost, path, true, code, nil); err != nil {
		return nil, err
	}
	return &code, nil
}

// ListInviteCodes returns the invite codes of a settings instance.
func (c *Client) ListInviteCodes(ctx context.Context, settingsID string) ([]typedef.InviteCode, error) {
	var out inviteCodesResponse
	path := "/api/dropmap/settings/" + url.PathEscape(settingsID) + "/invite-codes"
	if err := c.do(ctx, http.MethodGet, path, true, nil, &out); err != nil {
		return nil, err
	}
	return out.Codes, nil
}

// DeleteInviteCode revokes an unredeemed invite code.
func (c *Client) DeleteInviteCode(ctx context.Context, settingsID, code string) error {
	path := "/api/dropmap/settings/" + url.PathEscape(settingsID) + "/invite-codes/" + url.PathEscape(code)
	return c.do(ctx, http.MethodDelete, path, true, nil, nil)
}

// CreateShape persists an authored polygon. The returned shape carries the
// backend-assigned id used by AttachShape.
func (c *Client) CreateShape(ctx context.Context, shape typedef.Shape) (*typedef.Shape, error) {
	var out struct {
		Shape *typedef.Shape `json:"shape"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/dropmap/shapes", true, shape, &out); err != nil {
		return nil, err
	}
	if out.Shape == nil {
		// Some backend versions echo nothing; fall back to the submitted shape.
		return &shape, nil
	}
	return out.Shape, nil
}

// AttachShape associates a created shape with a template, with a
// per-association occupancy limit. Together with CreateShape this is the
// two-step save of the authoring tool.
func (c *Client) AttachShape(ctx context.Context, templateID, shapeID string, maxOccupants int) error {
	path := "/api/dropmap/templates/" + url.PathEscape(templateID) + "/shapes"
	return c.do(ctx, http.MethodPost, path, true, shapeAttachRequest{ShapeID: shapeID, MaxOccupants: maxOccupants}, nil)
}

// UpdateTerritory edits territory metadata without re-drawing its shape.
func (c *Client) UpdateTerritory(ctx context.Context, territoryID string, name, color, description *string, maxOccupants *int, isActive *bool) error {
	patch := territoryPatch{Name: name, Color: color, Description: description, MaxOccupants: maxOccupants, IsActive: isActive}
	return c.do(ctx, http.MethodPut, "/api/dropmap/territories/"+url.PathEscape(territoryID), true, patch, nil)
}

// DeleteTerritory removes a territory from its template.
func (c *Client) DeleteTerritory(ctx context.Context, territoryID string) error {
	return c.do(ctx, http.MethodDelete, "/api/dropmap/territories/"+url.PathEscape(territoryID), true, nil, nil)
}

// FetchPublicMap loads the unauthenticated read-only mirror of a map. Viewers
// get geometry and claim state but no claim or admin capability.
func (c *Client) FetchPublicMap(ctx context.Context, mapID string) (*typedef.DropMapSettings, []*typedef.Territory, error) {
	var out publicMapResponse
	if err := c.do(ctx, http.MethodGet, "/api/maps/"+url.PathEscape(mapID)+"/public", false, nil, &out); err != nil {
		return nil, nil, err
	}
	if out.Settings == nil {
		return nil, nil, typedef.ErrSettingsUnknown
	}
	out.Settings.TeamMode = typedef.ParseTeamMode(out.TeamMode)

	territories := out.Territories
	if territories == nil {
		var tout territoriesResponse
		if err := c.do(ctx, http.MethodGet, "/api/maps/"+url.PathEscape(mapID)+"/territories/public", false, nil, &tout); err != nil {
			return nil, nil, err
		}
		territories = tout.Territories
	}

	log.Printf("[API] Public map %s: %d territories", mapID, len(territories))
	return out.Settings, territories, nil
}

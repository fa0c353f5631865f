package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

func TestFetchTerritoriesSendsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/dropmap/territories" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("templateId") != "tpl-1" {
			t.Errorf("templateId = %q", r.URL.Query().Get("templateId"))
		}
		json.NewEncoder(w).Encode(territoriesResponse{Territories: []*typedef.Territory{
			{ID: "a", Name: "Spot A", MaxOccupants: 1, Points: []typedef.Point{{}, {X: 1}, {Y: 1}}},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token")
	territories, err := c.FetchTerritories(context.Background(), "tpl-1")
	if err != nil {
		t.Fatalf("FetchTerritories: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(territories) != 1 || territories[0].ID != "a" {
		t.Fatalf("territories = %+v", territories)
	}
}

func TestAuthedCallsFailClosedWithoutCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the network without a credential")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.FetchTerritories(context.Background(), "tpl-1"); !errors.Is(err, typedef.ErrNoCredential) {
		t.Fatalf("err = %v, want ErrNoCredential", err)
	}
	if err := c.Claim(context.Background(), "a", false); !errors.Is(err, typedef.ErrNoCredential) {
		t.Fatalf("Claim err = %v, want ErrNoCredential", err)
	}
}

func TestPublicMapNeedsNoCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("public endpoint must not carry a credential")
		}
		switch r.URL.Path {
		case "/api/maps/m-1/public":
			json.NewEncoder(w).Encode(publicMapResponse{
				Settings: &typedef.DropMapSettings{ID: "m-1", Mode: typedef.ModeTournament},
				TeamMode: "duo",
			})
		case "/api/maps/m-1/territories/public":
			json.NewEncoder(w).Encode(territoriesResponse{Territories: []*typedef.Territory{{ID: "a"}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	settings, territories, err := c.FetchPublicMap(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("FetchPublicMap: %v", err)
	}
	if settings.TeamMode != typedef.TeamModeDuo {
		t.Errorf("TeamMode = %v, want duo", settings.TeamMode)
	}
	if len(territories) != 1 {
		t.Errorf("territories = %d, want 1", len(territories))
	}
}

func TestClaimErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   errorResponse
		want   typedef.ClaimRejection
		benign bool
	}{
		{"locked", http.StatusConflict, errorResponse{Code: "map_locked", Error: "map is locked"}, typedef.RejectMapLocked, false},
		{"not eligible", http.StatusForbidden, errorResponse{Error: "user not eligible"}, typedef.RejectNotEligible, false},
		{"reclaim", http.StatusConflict, errorResponse{Code: "reclaim_disallowed"}, typedef.RejectReclaimDisallowed, false},
		{"full", http.StatusConflict, errorResponse{Code: "territory_full"}, typedef.RejectTerritoryFull, true},
		{"lost race", http.StatusConflict, errorResponse{Code: "already_claimed"}, typedef.RejectAlreadyClaimed, true},
		{"validation", http.StatusBadRequest, errorResponse{Error: "bad polygon"}, typedef.RejectValidation, false},
		{"server blew up", http.StatusInternalServerError, errorResponse{}, typedef.RejectNetworkFailure, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "token")
			err := c.Claim(context.Background(), "a", false)
			var claimErr *ClaimError
			if !errors.As(err, &claimErr) {
				t.Fatalf("err = %v, want *ClaimError", err)
			}
			if claimErr.Rejection != tc.want {
				t.Errorf("rejection = %v, want %v", claimErr.Rejection, tc.want)
			}
			if claimErr.Rejection.Benign() != tc.benign {
				t.Errorf("Benign() = %v, want %v", claimErr.Rejection.Benign(), tc.benign)
			}
		})
	}
}

func TestNetworkFailureIsClaimError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "token") // nothing listens here
	err := c.Claim(context.Background(), "a", false)
	var claimErr *ClaimError
	if !errors.As(err, &claimErr) || claimErr.Rejection != typedef.RejectNetworkFailure {
		t.Fatalf("err = %v, want NetworkFailure ClaimError", err)
	}
}

func TestCreateInviteCodeMintsToken(t *testing.T) {
	var received typedef.InviteCode
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	code, err := c.CreateInviteCode(context.Background(), "settings-1", "GuestPlayer", nil)
	if err != nil {
		t.Fatalf("CreateInviteCode: %v", err)
	}
	if code.Code == "" || code.Code != received.Code {
		t.Errorf("minted code %q not echoed to backend (%q)", code.Code, received.Code)
	}
	if received.SettingsID != "settings-1" || received.DisplayName != "GuestPlayer" {
		t.Errorf("payload = %+v", received)
	}
}

func TestAttachShapeTwoStepSave(t *testing.T) {
	step := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dropmap/shapes":
			step++
			json.NewEncoder(w).Encode(map[string]*typedef.Shape{"shape": {ID: "shape-9", Name: "Lagoon"}})
		case "/api/dropmap/templates/tpl-1/shapes":
			step++
			var req shapeAttachRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.ShapeID != "shape-9" || req.MaxOccupants != 2 {
				t.Errorf("attach request = %+v", req)
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	shape, err := c.CreateShape(context.Background(), typedef.Shape{Name: "Lagoon", Points: []typedef.Point{{}, {X: 1}, {Y: 1}}})
	if err != nil {
		t.Fatalf("CreateShape: %v", err)
	}
	if err := c.AttachShape(context.Background(), "tpl-1", shape.ID, 2); err != nil {
		t.Fatalf("AttachShape: %v", err)
	}
	if step != 2 {
		t.Fatalf("expected two round trips, got %d", step)
	}
}

// The admin endpoints share the same envelope handling, so one recording
// server covers the lot: each call must hit its path with the right verb and
// body.
func TestAdminEndpointsSendExpectedRequests(t *testing.T) {
	var (
		gotMethod, gotPath string
		gotBody            map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		if r.URL.Path == "/api/dropmap/settings/s1/invite-codes" && r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(inviteCodesResponse{Codes: []typedef.InviteCode{{Code: "c1", SettingsID: "s1"}}})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token")
	ctx := context.Background()

	if err := c.AdminAssign(ctx, "terr-1", "bob", true); err != nil {
		t.Fatalf("AdminAssign: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/dropmap/admin-assign" {
		t.Errorf("AdminAssign request = %s %s", gotMethod, gotPath)
	}
	if gotBody["territoryId"] != "terr-1" || gotBody["userId"] != "bob" || gotBody["force"] != true {
		t.Errorf("AdminAssign body = %v", gotBody)
	}

	if err := c.SetLocked(ctx, "s1", true); err != nil {
		t.Fatalf("SetLocked: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/dropmap/settings/s1" {
		t.Errorf("SetLocked request = %s %s", gotMethod, gotPath)
	}
	if gotBody["isLocked"] != true {
		t.Errorf("SetLocked body = %v", gotBody)
	}

	if err := c.UpdateSettings(ctx, typedef.DropMapSettings{ID: "s1", AllowReclaim: true}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/dropmap/settings/s1" {
		t.Errorf("UpdateSettings request = %s %s", gotMethod, gotPath)
	}
	if gotBody["allowReclaim"] != true {
		t.Errorf("UpdateSettings body = %v", gotBody)
	}

	if err := c.DeleteSettings(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSettings: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/dropmap/settings/s1" {
		t.Errorf("DeleteSettings request = %s %s", gotMethod, gotPath)
	}

	if err := c.AddEligiblePlayer(ctx, "s1", "bob", "Bob", "manual"); err != nil {
		t.Fatalf("AddEligiblePlayer: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/dropmap/settings/s1/eligibility" {
		t.Errorf("AddEligiblePlayer request = %s %s", gotMethod, gotPath)
	}
	if gotBody["userId"] != "bob" || gotBody["source"] != "manual" {
		t.Errorf("AddEligiblePlayer body = %v", gotBody)
	}

	if err := c.RemoveEligiblePlayer(ctx, "s1", "bob"); err != nil {
		t.Fatalf("RemoveEligiblePlayer: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/dropmap/settings/s1/eligibility/bob" {
		t.Errorf("RemoveEligiblePlayer request = %s %s", gotMethod, gotPath)
	}

	codes, err := c.ListInviteCodes(ctx, "s1")
	if err != nil {
		t.Fatalf("ListInviteCodes: %v", err)
	}
	if len(codes) != 1 || codes[0].Code != "c1" {
		t.Errorf("codes = %+v", codes)
	}

	if err := c.DeleteInviteCode(ctx, "s1", "c1"); err != nil {
		t.Fatalf("DeleteInviteCode: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/dropmap/settings/s1/invite-codes/c1" {
		t.Errorf("DeleteInviteCode request = %s %s", gotMethod, gotPath)
	}

	name := "Renamed"
	occupants := 3
	if err := c.UpdateTerritory(ctx, "terr-1", &name, nil, nil, &occupants, nil); err != nil {
		t.Fatalf("UpdateTerritory: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/dropmap/territories/terr-1" {
		t.Errorf("UpdateTerritory request = %s %s", gotMethod, gotPath)
	}
	if gotBody["name"] != "Renamed" || gotBody["maxOccupants"] != float64(3) {
		t.Errorf("UpdateTerritory body = %v", gotBody)
	}
	if _, present := gotBody["color"]; present {
		t.Errorf("nil patch field serialized: %v", gotBody)
	}
}

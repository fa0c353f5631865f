package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Eltensy/newvictoryweb-sub000/alg"
	"github.com/Eltensy/newvictoryweb-sub000/api"
	"github.com/Eltensy/newvictoryweb-sub000/cruntime"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

const (
	dragThreshold   = 5.0
	wheelZoomFactor = 1.1
	doubleClickGap  = 350 * time.Millisecond
	claimTimeout    = 10 * time.Second
)

// MapView owns the interactive map: pan, zoom, hit testing, the claim flow and
// the authoring overlay. One claim request is in flight at most; further
// clicks are ignored until it settles.
type MapView struct {
	vp        *Viewport
	store     *cruntime.Store
	machine   *cruntime.Machine
	client    *api.Client
	session   *Session
	toasts    *ToastManager
	authoring *AuthoringTool

	binds typedef.Keybinds

	selectedID string
	hoveredID  string

	dragging   bool
	dragMoved  bool
	dragLastX  float64
	dragLastY  float64
	pressX     float64
	pressY     float64
	lastClick  time.Time
	lastClickX float64
	lastClickY float64

	editingName bool

	claimBusy bool
	results   chan func()

	// onDirty asks the poll loop for an immediate refetch.
	onDirty func()
}

// NewMapView wires the view to its collaborators. The store and machine are
// injected rather than reached through package state so tests can run views
// side by side.
func NewMapView(vp *Viewport, store *cruntime.Store, machine *cruntime.Machine,
	client *api.Client, session *Session, toasts *ToastManager, authoring *AuthoringTool) *MapView {
	return &MapView{
		vp:        vp,
		store:     store,
		machine:   machine,
		client:    client,
		session:   session,
		toasts:    toasts,
		authoring: authoring,
		binds:     typedef.DefaultKeybinds(),
		results:   make(chan func(), 8),
	}
}

// SetKeybinds installs the user's shortcut configuration.
func (mv *MapView) SetKeybinds(binds typedef.Keybinds) {
	typedef.NormalizeKeybinds(&binds)
	mv.binds = binds
}

// SetDirtyCallback registers the refetch trigger fired after a committed claim.
func (mv *MapView) SetDirtyCallback(fn func()) { mv.onDirty = fn }

// SelectedID returns the currently selected territory, or "".
func (mv *MapView) SelectedID() string { return mv.selectedID }

// HoveredID returns the territory under the cursor, or "".
func (mv *MapView) HoveredID() string { return mv.hoveredID }

// Update processes one tick of input. deltaTime is in seconds.
func (mv *MapView) Update(deltaTime float64) {
	mv.drainResults()
	mv.vp.Update(deltaTime)

	cx, cy := ebiten.CursorPosition()
	fx, fy := float64(cx), float64(cy)

	mv.handleWheel(fx, fy)
	mv.handleMouse(fx, fy)
	mv.handleKeys()
	mv.hoveredID = mv.hitTest(fx, fy)
}

func (mv *MapView) drainResults() {
	for {
		select {
		case fn := <-mv.results:
			fn()
		default:
			return
		}
	}
}

func (mv *MapView) handleWheel(cursorX, cursorY float64) {
	_, dy := ebiten.Wheel()
	if dy == 0 {
		return
	}
	factor := wheelZoomFactor
	if dy < 0 {
		factor = 1 / wheelZoomFactor
	}
	mv.vp.ZoomAt(cursorX, cursorY, factor)
}

func (mv *MapView) handleMouse(cursorX, cursorY float64) {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mv.dragging = true
		mv.dragMoved = false
		mv.dragLastX, mv.dragLastY = cursorX, cursorY
		mv.pressX, mv.pressY = cursorX, cursorY
		return
	}

	if mv.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		dx := cursorX - mv.dragLastX
		dy := cursorY - mv.dragLastY
		if mv.dragMoved || math.Hypot(cursorX-mv.pressX, cursorY-mv.pressY) > dragThreshold {
			mv.dragMoved = true
			mv.vp.PanBy(dx, dy)
		}
		mv.dragLastX, mv.dragLastY = cursorX, cursorY
		return
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		wasDrag := mv.dragMoved
		mv.dragging = false
		mv.dragMoved = false
		if wasDrag {
			return
		}
		mv.handleClick(cursorX, cursorY)
	}
}

func (mv *MapView) handleClick(cursorX, cursorY float64) {
	now := time.Now()
	isDouble := now.Sub(mv.lastClick) < doubleClickGap &&
		math.Hypot(cursorX-mv.lastClickX, cursorY-mv.lastClickY) < dragThreshold
	mv.lastClick = now
	mv.lastClickX, mv.lastClickY = cursorX, cursorY

	if mv.authoring != nil && mv.authoring.Active() {
		mv.authoring.AddPointAt(cursorX, cursorY, mv.vp)
		return
	}

	id := mv.hitTest(cursorX, cursorY)
	if id == "" {
		mv.selectedID = ""
		return
	}
	mv.selectedID = id

	if isDouble {
		mv.zoomToTerritory(id)
		return
	}
	mv.requestClaim(id)
}

// zoomToTerritory centers the territory and animates to a scale where it fills
// roughly a third of the frame.
func (mv *MapView) zoomToTerritory(id string) {
	t := mv.store.Territory(id)
	if t == nil {
		return
	}
	mv.vp.AnimateTo(alg.Centroid(t.Points), alg.SuggestedScale(t.Points))
}

// hitTest returns the topmost active territory containing the screen point.
func (mv *MapView) hitTest(screenX, screenY float64) string {
	p := mv.vp.ScreenToMap(screenX, screenY)

	territories := mv.store.Territories()
	for i := len(territories) - 1; i >= 0; i-- {
		t := territories[i]
		if t == nil || !t.IsActive || len(t.Points) < 3 {
			continue
		}
		if alg.PointInPolygon(p, t.Points) {
			return t.ID
		}
	}
	return ""
}

// requestClaim runs the local gate first; only an approved claim produces a
// network request. The backend remains authoritative, so a committed local
// claim is followed by a refetch.
func (mv *MapView) requestClaim(territoryID string) {
	if mv.claimBusy {
		return
	}

	result := mv.machine.Evaluate(territoryID, mv.session.UserID, mv.session.IsAdmin)
	if result.NoOp {
		return
	}
	if !result.OK() {
		mv.toasts.NotifyClaimFailure(&api.ClaimError{
			Rejection: result.Rejection,
			Message:   result.Rejection.String(),
		})
		return
	}

	mv.claimBusy = true
	replace := result.Released != ""
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()
		err := mv.client.Claim(ctx, territoryID, replace)

		mv.results <- func() {
			mv.claimBusy = false
			if err != nil {
				log.Printf("[CLAIM] Claim of %s rejected: %v", territoryID, err)
				mv.toasts.NotifyClaimFailure(err)
				return
			}
			mv.machine.Commit(result, mv.session.Claim(territoryID, true))
			if mv.onDirty != nil {
				mv.onDirty()
			}
		}
	}()
}

// requestUnclaim releases the user's current spot.
func (mv *MapView) requestUnclaim() {
	if mv.claimBusy {
		return
	}
	held := mv.store.ClaimsByUser(mv.session.UserID)
	if len(held) == 0 {
		return
	}
	territoryID := held[0].ID

	mv.claimBusy = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()
		err := mv.client.Unclaim(ctx, territoryID)

		mv.results <- func() {
			mv.claimBusy = false
			if err != nil {
				mv.toasts.NotifyClaimFailure(err)
				return
			}
			mv.machine.Remove(territoryID, mv.session.UserID)
			if mv.onDirty != nil {
				mv.onDirty()
			}
		}
	}()
}

// adminRemoveSelected clears every claim on the selected territory.
func (mv *MapView) adminRemoveSelected() {
	if !mv.session.IsAdmin || mv.selectedID == "" || mv.claimBusy {
		return
	}
	t := mv.store.Territory(mv.selectedID)
	if t == nil || len(t.Claims) == 0 {
		return
	}
	territoryID := t.ID
	userID := t.Claims[0].UserID

	mv.claimBusy = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()
		err := mv.client.AdminRemove(ctx, territoryID, userID)

		mv.results <- func() {
			mv.claimBusy = false
			if err != nil {
				mv.toasts.NotifyClaimFailure(err)
				return
			}
			mv.machine.Remove(territoryID, userID)
			if mv.onDirty != nil {
				mv.onDirty()
			}
		}
	}()
}

// toggleMapLock flips the lock flag on the active settings. The next refetch
// carries the new flag back into the local projection.
func (mv *MapView) toggleMapLock() {
	if !mv.session.IsAdmin || mv.claimBusy {
		return
	}
	settings := mv.store.Settings()
	if settings == nil {
		return
	}
	settingsID := settings.ID
	locked := !settings.IsLocked

	mv.claimBusy = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()
		err := mv.client.SetLocked(ctx, settingsID, locked)

		mv.results <- func() {
			mv.claimBusy = false
			if err != nil {
				mv.toasts.ShowError("Changing the map lock failed, please try again")
				return
			}
			if locked {
				mv.toasts.ShowInfo("Map locked")
			} else {
				mv.toasts.ShowInfo("Map unlocked")
			}
			if mv.onDirty != nil {
				mv.onDirty()
			}
		}
	}()
}

// pruneInviteCodes revokes every invite code past its expiry so the list the
// admin hands out stays redeemable.
func (mv *MapView) pruneInviteCodes() {
	if !mv.session.IsAdmin || mv.claimBusy {
		return
	}
	settings := mv.store.Settings()
	if settings == nil {
		return
	}
	settingsID := settings.ID

	mv.claimBusy = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()

		pruned := 0
		codes, err := mv.client.ListInviteCodes(ctx, settingsID)
		if err == nil {
			now := time.Now()
			for _, ic := range codes {
				if !ic.Expired(now) {
					continue
				}
				if delErr := mv.client.DeleteInviteCode(ctx, settingsID, ic.Code); delErr != nil {
					err = delErr
					break
				}
				pruned++
			}
		}

		mv.results <- func() {
			mv.claimBusy = false
			if err != nil {
				mv.toasts.ShowError("Pruning invite codes failed, please try again")
				return
			}
			mv.toasts.ShowInfo(fmt.Sprintf("Revoked %d expired invite codes", pruned))
		}
	}()
}

// EditingName reports whether keystrokes currently feed the territory name.
func (mv *MapView) EditingName() bool { return mv.editingName }

// handleNameEntry routes all keyboard input into the territory name buffer
// until Enter, Tab or Escape ends the entry.
func (mv *MapView) handleNameEntry() {
	for _, r := range ebiten.AppendInputChars(nil) {
		if r >= ' ' && r != 127 {
			mv.authoring.SetName(mv.authoring.Name() + string(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		if name := []rune(mv.authoring.Name()); len(name) > 0 {
			mv.authoring.SetName(string(name[:len(name)-1]))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) ||
		inpututil.IsKeyJustPressed(ebiten.KeyTab) ||
		inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		mv.editingName = false
	}
}

func (mv *MapView) handleKeys() {
	if mv.authoring != nil && mv.authoring.Active() && mv.editingName {
		mv.handleNameEntry()
		return
	}
	if mv.authoring != nil && mv.authoring.Active() && inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		mv.editingName = true
		return
	}

	if bindingJustPressed(mv.binds.ResetView) {
		mv.vp.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if mv.authoring != nil && mv.authoring.Active() {
			mv.authoring.Toggle()
		} else {
			mv.selectedID = ""
		}
	}
	if mv.authoring != nil && bindingJustPressed(mv.binds.AuthoringToggle) && mv.session.IsAdmin {
		mv.authoring.Toggle()
		if mv.authoring.Active() {
			mv.toasts.ShowInfo("Authoring mode: click to add points, Tab to name, " +
				mv.binds.UndoPoint + " to undo, " + mv.binds.SaveShape + " to save")
		}
	}

	if mv.authoring == nil || !mv.authoring.Active() {
		if bindingJustPressed(mv.binds.Unclaim) {
			mv.requestUnclaim()
		}
		if bindingJustPressed(mv.binds.RemoveClaim) {
			mv.adminRemoveSelected()
		}
		if mv.session.IsAdmin && ebiten.IsKeyPressed(ebiten.KeyControl) {
			if inpututil.IsKeyJustPressed(ebiten.KeyL) {
				mv.toggleMapLock()
			}
			if inpututil.IsKeyJustPressed(ebiten.KeyI) {
				mv.pruneInviteCodes()
			}
		}
		return
	}

	if bindingJustPressed(mv.binds.UndoPoint) {
		mv.authoring.UndoPoint()
	}
	if bindingJustPressed(mv.binds.ClearDraft) {
		mv.authoring.Clear()
	}
	if bindingJustPressed(mv.binds.SaveShape) {
		mv.saveAuthoring()
	}
	if bindingJustPressed(mv.binds.RemoveClaim) {
		mv.deleteSelectedTerritory()
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		if inpututil.IsKeyJustPressed(ebiten.KeyC) {
			if err := mv.authoring.CopyToClipboard(); err == nil {
				mv.toasts.ShowInfo("Shape copied to clipboard")
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyV) {
			if err := mv.authoring.PasteFromClipboard(); err != nil {
				mv.toasts.ShowWarning("Clipboard does not hold a valid shape")
			}
		}
	}
}

// deleteSelectedTerritory removes the selected territory from the template.
// Only reachable in authoring mode.
func (mv *MapView) deleteSelectedTerritory() {
	if !mv.session.IsAdmin || mv.selectedID == "" || mv.claimBusy {
		return
	}
	territoryID := mv.selectedID

	mv.claimBusy = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()
		err := mv.client.DeleteTerritory(ctx, territoryID)

		mv.results <- func() {
			mv.claimBusy = false
			if err != nil {
				mv.toasts.ShowError("Deleting the territory failed, please try again")
				return
			}
			mv.selectedID = ""
			mv.toasts.ShowInfo("Territory deleted")
			if mv.onDirty != nil {
				mv.onDirty()
			}
		}
	}()
}

func (mv *MapView) saveAuthoring() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()
		err := mv.authoring.Save(ctx)

		mv.results <- func() {
			switch {
			case err == nil:
				mv.toasts.ShowInfo("Territory saved")
				if mv.onDirty != nil {
					mv.onDirty()
				}
			case err == typedef.ErrShapeNameEmpty:
				mv.toasts.ShowWarning("Name the territory before saving")
			case err == typedef.ErrTooFewPoints:
				mv.toasts.ShowWarning("A territory needs at least 3 points")
			default:
				mv.toasts.ShowError("Saving the territory failed, please try again")
			}
		}
	}()
}

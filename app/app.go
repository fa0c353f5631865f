package app

import (
	"context"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Eltensy/newvictoryweb-sub000/api"
	"github.com/Eltensy/newvictoryweb-sub000/cruntime"
	"github.com/Eltensy/newvictoryweb-sub000/storage"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

const defaultPollInterval = 5 * time.Second

// Config selects which map the session is attached to and how it renders.
type Config struct {
	// SettingsID picks the drop map instance to poll. Required unless
	// PublicMapID is set.
	SettingsID string
	// TemplateID is a fallback for territory queries when the settings
	// instance does not name one.
	TemplateID string
	// PublicMapID switches to the unauthenticated read-only view.
	PublicMapID string

	PollInterval   time.Duration
	UseRaster      bool
	BackgroundPath string
	MirrorAddr     string
}

// Game is the ebiten application root. The poll loop runs on its own
// goroutine; everything it learns enters the frame through the store.
type Game struct {
	cfg     Config
	session *Session
	client  *api.Client

	store     *cruntime.Store
	machine   *cruntime.Machine
	vp        *Viewport
	mapView   *MapView
	toasts    *ToastManager
	authoring *AuthoringTool
	overlay   *DebugOverlay
	mirror    *api.Mirror
	binds     typedef.Keybinds

	vectorTarget *VectorTarget
	rasterTarget *RasterTarget

	dirty      chan struct{}
	lastTick   time.Time
	wasFocused bool

	// Last drawn view state, for raster cache invalidation.
	lastScale           float64
	lastOffsetX         float64
	lastOffsetY         float64
	lastSelected        string
	lastAuthoringPoints int
	screenW, screenH    int
}

// NewGame assembles the application. It does not touch the network; call
// Start before RunGame to begin polling.
func NewGame(client *api.Client, session *Session, cfg Config) *Game {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	store := cruntime.NewStore()
	machine := cruntime.NewMachine(store)
	toasts := NewToastManager()
	vp := NewViewport()

	var background *ebiten.Image
	if cfg.BackgroundPath != "" {
		img, _, err := ebitenutil.NewImageFromFile(cfg.BackgroundPath)
		if err != nil {
			log.Printf("[APP] Background %s failed to load: %v", cfg.BackgroundPath, err)
		} else {
			background = img
		}
	}

	g := &Game{
		cfg:          cfg,
		session:      session,
		client:       client,
		store:        store,
		machine:      machine,
		vp:           vp,
		toasts:       toasts,
		overlay:      NewDebugOverlay(),
		vectorTarget: NewVectorTarget(background),
		dirty:        make(chan struct{}, 1),
		lastTick:     time.Now(),
	}
	if cfg.UseRaster {
		g.rasterTarget = NewRasterTarget(background)
	}
	if session.IsAdmin {
		g.authoring = NewAuthoringTool(client, cfg.TemplateID)
	}
	if cfg.MirrorAddr != "" {
		g.mirror = api.NewMirror(store)
	}

	store.SetChangeCallback(func() {
		if g.rasterTarget != nil {
			g.rasterTarget.Invalidate()
		}
		if g.mirror != nil {
			g.mirror.Publish()
		}
	})

	g.mapView = NewMapView(vp, store, machine, client, session, toasts, g.authoring)
	g.mapView.SetDirtyCallback(g.markDirty)

	g.binds = storage.LoadKeybinds()
	g.mapView.SetKeybinds(g.binds)

	g.restoreSnapshot()
	return g
}

// Start launches the poll loop and, when configured, the local state mirror.
func (g *Game) Start() {
	if g.mirror != nil {
		go func() {
			if err := g.mirror.Serve(g.cfg.MirrorAddr); err != nil {
				log.Printf("[APP] State mirror stopped: %v", err)
			}
		}()
	}
	go g.pollLoop()
}

// markDirty asks the poll loop for an immediate refetch. Coalesces when one
// is already queued.
func (g *Game) markDirty() {
	select {
	case g.dirty <- struct{}{}:
	default:
	}
}

// restoreSnapshot renders the last session's state until the first fetch
// lands.
func (g *Game) restoreSnapshot() {
	snap, err := storage.LoadSnapshot()
	if err != nil || snap == nil {
		return
	}
	gen := g.store.BeginFetch(g.settingsKey())
	if err := g.store.Apply(gen, snap.Settings, snap.Territories, nil); err != nil {
		log.Printf("[APP] Snapshot restore rejected: %v", err)
		return
	}
	log.Printf("[APP] Restored snapshot from %s (%d territories)",
		snap.Timestamp.Format(time.RFC3339), len(snap.Territories))
}

func (g *Game) settingsKey() string {
	if g.cfg.PublicMapID != "" && !g.session.HasCredential() {
		return g.cfg.PublicMapID
	}
	return g.cfg.SettingsID
}

func (g *Game) pollLoop() {
	g.fetchOnce()
	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-g.dirty:
		}
		g.fetchOnce()
	}
}

// fetchOnce pulls the authoritative state and applies it wholesale. The
// generation is taken before the request goes out, so a response from before
// a map switch can never overwrite the new map.
func (g *Game) fetchOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
	defer cancel()

	gen := g.store.BeginFetch(g.settingsKey())

	var (
		settings    *typedef.DropMapSettings
		territories []*typedef.Territory
		eligibility []typedef.EligiblePlayer
		err         error
	)

	if g.cfg.PublicMapID != "" && !g.session.HasCredential() {
		settings, territories, err = g.client.FetchPublicMap(ctx, g.cfg.PublicMapID)
		if err != nil {
			log.Printf("[APP] Public map fetch failed, keeping last state: %v", err)
			return
		}
	} else {
		settings, err = g.client.FetchSettings(ctx, g.cfg.SettingsID)
		if err != nil {
			log.Printf("[APP] Settings fetch failed, keeping last state: %v", err)
			return
		}
		templateID := settings.TemplateID
		if templateID == "" {
			templateID = g.cfg.TemplateID
		}
		territories, err = g.client.FetchTerritories(ctx, templateID)
		if err != nil {
			log.Printf("[APP] Territory fetch failed, keeping last state: %v", err)
			return
		}
		eligibility, err = g.client.FetchEligibility(ctx, g.cfg.SettingsID)
		if err != nil {
			// The map still renders without the list; claims fail closed.
			log.Printf("[APP] Eligibility fetch failed: %v", err)
		}
	}

	if err := g.store.Apply(gen, settings, territories, eligibility); err != nil {
		log.Printf("[APP] Fetch discarded: %v", err)
		return
	}
	// Persist the store's own copy, not the fetched slice: the UI goroutine
	// mutates claim slices on commit while this marshal would still be reading
	// them.
	snapTerritories, snapSettings := g.store.Snapshot()
	if err := storage.SaveSnapshot(snapSettings, snapTerritories); err != nil {
		log.Printf("[APP] Snapshot save failed: %v", err)
	}
}

// Update advances one tick: input, animations, toast expiry.
func (g *Game) Update() error {
	now := time.Now()
	dt := now.Sub(g.lastTick).Seconds()
	g.lastTick = now
	if dt > 0.25 {
		dt = 0.25
	}

	if bindingJustPressed(g.binds.DebugOverlay) {
		g.overlay.Toggle()
	}

	// Refetch right away when the window regains focus; the poll interval is
	// too slow after minutes in the background.
	focused := ebiten.IsFocused()
	if focused && !g.wasFocused {
		g.markDirty()
	}
	g.wasFocused = focused

	g.mapView.Update(dt)
	g.toasts.Update()
	g.overlay.Update()
	return nil
}

// Draw renders the frame through the configured strategy, then the overlays,
// which always draw directly to the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	settings := g.store.Settings()
	territories := g.store.Territories()

	if g.rasterTarget != nil {
		g.invalidateRasterIfViewChanged()
		if g.rasterTarget.BeginFrame(screen) {
			RenderMap(g.rasterTarget, territories, settings, g.vp, g.mapView.SelectedID())
		}
		g.rasterTarget.EndFrame()
	} else {
		g.vectorTarget.SetDestination(screen)
		RenderMap(g.vectorTarget, territories, settings, g.vp, g.mapView.SelectedID())
	}

	g.drawAuthoringPreview(screen)
	g.toasts.Draw(screen)

	claims := 0
	for _, t := range territories {
		claims += len(t.Claims)
	}
	g.overlay.Draw(screen, g.vp, len(territories), claims)
}

// invalidateRasterIfViewChanged compares the view state against the last
// frame; any pan, zoom or selection change forces a redraw of the cache.
func (g *Game) invalidateRasterIfViewChanged() {
	offX, offY := g.vp.Offset()
	points := 0
	if g.authoring != nil {
		points = len(g.authoring.Points())
	}
	if g.vp.Scale() != g.lastScale || offX != g.lastOffsetX || offY != g.lastOffsetY ||
		g.mapView.SelectedID() != g.lastSelected || points != g.lastAuthoringPoints {
		g.rasterTarget.Invalidate()
	}
	g.lastScale = g.vp.Scale()
	g.lastOffsetX = offX
	g.lastOffsetY = offY
	g.lastSelected = g.mapView.SelectedID()
	g.lastAuthoringPoints = points
}

// drawAuthoringPreview outlines the in-progress polygon and its vertices.
func (g *Game) drawAuthoringPreview(screen *ebiten.Image) {
	if g.authoring == nil || !g.authoring.Active() {
		return
	}
	points := g.authoring.Points()
	accent := color.RGBA{255, 200, 60, 255}

	for i := range points {
		x1, y1 := g.vp.MapToScreen(points[i])
		if i > 0 {
			x0, y0 := g.vp.MapToScreen(points[i-1])
			vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 2, accent, true)
		}
		vector.DrawFilledCircle(screen, float32(x1), float32(y1), 4, accent, true)
	}
	if len(points) >= 3 {
		x0, y0 := g.vp.MapToScreen(points[len(points)-1])
		x1, y1 := g.vp.MapToScreen(points[0])
		faded := accent
		faded.A = 120
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, faded, true)
	}

	caption := "Name: " + g.authoring.Name()
	if g.mapView.EditingName() {
		caption += "_"
	}
	text.Draw(screen, caption, labelFace, 12, 24, accent)
}

// Layout reports the drawable size and keeps the viewport's centering math
// current.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.screenW || outsideHeight != g.screenH {
		g.screenW = outsideWidth
		g.screenH = outsideHeight
		g.vp.SetScreenSize(outsideWidth, outsideHeight)
		if g.rasterTarget != nil {
			g.rasterTarget.Invalidate()
		}
	}
	return outsideWidth, outsideHeight
}

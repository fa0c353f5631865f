package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"

	"github.com/Eltensy/newvictoryweb-sub000/api"
	"github.com/Eltensy/newvictoryweb-sub000/app"
	"github.com/Eltensy/newvictoryweb-sub000/storage"
)

func main() {
	// .env next to the binary carries the credential and identity.
	if err := godotenv.Load(); err == nil {
		log.Println("[MAIN] Loaded environment from .env")
	}

	var (
		apiURL     string
		settingsID string
		templateID string
		publicMap  string
		background string
		mirrorAddr string
		pollSecs   int
		useRaster  bool
	)
	flag.StringVar(&apiURL, "api", envOr("DROPMAP_API_URL", "http://localhost:5000"), "Backend base URL")
	flag.StringVar(&settingsID, "settings", os.Getenv("DROPMAP_SETTINGS_ID"), "Drop map settings id to join")
	flag.StringVar(&settingsID, "s", os.Getenv("DROPMAP_SETTINGS_ID"), "Drop map settings id to join (shorthand)")
	flag.StringVar(&templateID, "template", os.Getenv("DROPMAP_TEMPLATE_ID"), "Territory template id fallback")
	flag.StringVar(&publicMap, "public", "", "Public map id for the read-only spectator view")
	flag.StringVar(&background, "bg", "assets/map.png", "Map background image")
	flag.StringVar(&mirrorAddr, "mirror", "", "Serve the read-only state mirror on this address (e.g. :42069)")
	flag.IntVar(&pollSecs, "poll", 5, "Poll interval in seconds")
	flag.BoolVar(&useRaster, "raster", false, "Use the cached raster renderer")
	flag.Parse()

	// Positional public map id so a shared link can be passed straight through.
	if publicMap == "" && settingsID == "" {
		if args := flag.Args(); len(args) > 0 {
			publicMap = args[0]
		}
	}

	session := app.SessionFromEnv()
	if settingsID == "" && publicMap == "" {
		fmt.Fprintln(os.Stderr, "either -settings or -public is required")
		os.Exit(2)
	}
	if publicMap == "" && !session.HasCredential() {
		fmt.Fprintln(os.Stderr, "DROPMAP_TOKEN is not set; only -public mode works without a credential")
		os.Exit(2)
	}

	lockPath := storage.DataFile(".dropmap.lock")
	_, lockOwned, cleanupLock, err := prepareLock(lockPath)
	if err != nil {
		log.Printf("[MAIN] Lock file error: %v", err)
		os.Exit(1)
	}
	defer cleanupLock()
	if !lockOwned {
		log.Printf("[MAIN] Another instance appears to be running (lock at %s)", lockPath)
	}

	client := api.NewClient(apiURL, session.Token)
	game := app.NewGame(client, session, app.Config{
		SettingsID:     settingsID,
		TemplateID:     templateID,
		PublicMapID:    publicMap,
		PollInterval:   time.Duration(pollSecs) * time.Second,
		UseRaster:      useRaster,
		BackgroundPath: background,
		MirrorAddr:     mirrorAddr,
	})
	game.Start()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Println("[MAIN] Received shutdown signal, cleaning up")
		cleanupLock()
		os.Exit(0)
	}()

	ebiten.SetWindowTitle("Drop Map Studio")
	ebiten.SetTPS(ebiten.SyncWithFPS)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 800)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatalf("[MAIN] %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func prepareLock(lockPath string) (*os.File, bool, func(), error) {
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	owned := true
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			owned = false
			lockFile, err = os.OpenFile(lockPath, os.O_WRONLY, 0o644)
			if err != nil {
				return nil, false, nil, err
			}
		} else {
			return nil, false, nil, err
		}
	}

	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			if lockFile != nil {
				_ = lockFile.Close()
			}
			if owned {
				os.Remove(lockPath)
			}
		})
	}

	return lockFile, owned, cleanup, nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ayusman/handfield/internal/app"
	"github.com/ayusman/handfield/internal/field"
	"github.com/ayusman/handfield/internal/server"
	"github.com/ayusman/handfield/internal/store"
	"github.com/ayusman/handfield/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	particles := flag.Int("particles", 0, "particle count (0 = default)")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Handfield - Hand Gesture Particle Visualizer")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dataDir := filepath.Join(homeDir, ".handfield")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "handfield.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Start the gesture pipeline and particle field
	application, err := app.New(app.Config{
		CameraID:  *cameraID,
		Particles: *particles,
	})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	restoreFieldSettings(st, application.Field())

	if err := application.Start(); err != nil {
		log.Printf("Pipeline not started (%v); field runs without gesture input", err)
	}
	defer application.Stop()

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure and start server
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Field:     application.Field(),
		Camera:    application.Camera(),
		Tracker:   application,
	})

	fmt.Printf("Starting server on %s\n", *addr)
	go func() {
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *noTray {
		select {}
	}

	runTray(application, *addr)
}

// runTray blocks in the system tray loop until the user quits.
func runTray(application *app.App, addr string) {
	t := tray.New()
	t.SetPattern(application.Field().Pattern())

	t.OnToggle(func(enabled bool) {
		application.SetEnabled(enabled)
	})
	t.OnVisualizer(func() {
		openBrowser("http://localhost" + addr)
	})
	t.OnQuit(func() {
		application.Stop()
	})

	t.Run()
}

// restoreFieldSettings applies the persisted pattern and color from the
// last session, if any.
func restoreFieldSettings(st *store.Store, f *field.Field) {
	if pattern, err := st.Settings().Get(store.SettingPattern); err == nil {
		if err := f.SetPattern(pattern); err != nil {
			log.Printf("Ignoring saved pattern %q: %v", pattern, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to load saved pattern: %v", err)
	}

	if color, err := st.Settings().Get(store.SettingColor); err == nil {
		if err := f.SetColor(color); err != nil {
			log.Printf("Ignoring saved color %q: %v", color, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to load saved color: %v", err)
	}
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handfield/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handfield", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

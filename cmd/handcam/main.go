package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/handcam/internal/app"
	"github.com/ayusman/handcam/internal/capture"
	"github.com/ayusman/handcam/internal/config"
	"github.com/ayusman/handcam/internal/recognizer"
	"github.com/ayusman/handcam/internal/server"
	"github.com/ayusman/handcam/internal/store"
	"github.com/ayusman/handcam/internal/tray"
)

func main() {
	fmt.Println("Handcam - Hand Gesture Overlay")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	recCfg := recognizer.DefaultConfig()
	recCfg.ScriptPath = cfg.ScriptPath

	a := app.New(app.Config{
		Store:           st,
		Devices:         capture.Devices{Front: cfg.FrontCamera, Rear: cfg.RearCamera},
		Orientation:     cfg.Orientation,
		Screen:          cfg.Screen,
		FPS:             cfg.FPS,
		ViewportWidth:   cfg.ViewportWidth,
		ChangeThreshold: cfg.ChangeThreshold,
		Recognizer:      recCfg,
	})
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The recognizer loads in the background; capture requests fail with
	// 503 until it is ready.
	go func() {
		if err := a.LoadRecognizer(ctx); err != nil {
			log.Printf("Gesture recognizer failed to load: %v", err)
			return
		}
		log.Println("Gesture recognizer ready")
	}()

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:     webDir,
		Store:         st,
		Capture:       a,
		DefaultFacing: cfg.Facing,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if cfg.Tray {
		runTray(a, cfg)
		return
	}

	a.OnGesture(func(name string) {
		if name != "" {
			log.Printf("Gesture: %s", name)
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")
}

// runTray blocks running the system tray until Quit is chosen.
func runTray(a *app.App, cfg *config.Config) {
	t := tray.New()

	t.OnToggle(func(capturing bool) error {
		if !capturing {
			return a.StopCapture()
		}
		_, err := a.StartCapture(a.PreferredFacing(cfg.Facing))
		return err
	})
	t.OnViewer(func() {
		openBrowser(viewerURL(cfg.Addr))
	})
	t.OnQuit(func() {
		fmt.Println("Shutting down...")
	})
	// Captures started or stopped over HTTP must show up in the menu too.
	a.OnCaptureChange(t.SetCapturing)
	a.OnGesture(t.SetLastGesture)

	t.Run()
}

func viewerURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

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

// findWebDir searches for the viewer directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	// Check relative paths from current working directory
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

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}

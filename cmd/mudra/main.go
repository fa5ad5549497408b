package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to the JSON config file")
	video := flag.String("video", "", "video file to load at startup")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	fmt.Println("mudra - Gesture Controlled Playback")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *video != "" {
		cfg.Playback.VideoPath = *video
	}
	if *noTray {
		cfg.Tray = false
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir(cfg.DataDir)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	a := app.New(app.Config{Settings: cfg, Store: st})

	watcher, err := a.WatchConfig(*configPath)
	if err != nil {
		log.Printf("[config] hot reload disabled: %v", err)
	}

	if err := a.Start(); err != nil {
		st.Close()
		log.Fatalf("Failed to start: %v", err)
	}

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			log.Println("Shutting down")
			if watcher != nil {
				watcher.Stop()
			}
			a.Stop()
			st.Close()
		})
	}

	if cfg.Server.StaticDir != "" {
		fmt.Printf("Serving static files from: %s\n", cfg.Server.StaticDir)
	}
	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		App:       a,
		Store:     st,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			shutdown()
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if !cfg.Tray {
		<-sigCh
		shutdown()
		return
	}

	t := tray.New(a)
	t.OnOpenUI(func() { openBrowser(uiURL(cfg.Server.Addr)) })
	t.OnQuit(shutdown)
	go func() {
		<-sigCh
		t.Quit()
	}()

	// The tray owns the main thread until it quits.
	t.Run()
	shutdown()
}

// uiURL turns a listen address into a browsable URL.
func uiURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
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

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
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

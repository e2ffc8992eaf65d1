package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/bebas/internal/app"
	"github.com/ayusman/bebas/internal/config"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/server"
	"github.com/ayusman/bebas/internal/store"
	"github.com/ayusman/bebas/internal/telemetry"
	"github.com/ayusman/bebas/internal/tray"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", filepath.Join(config.DataDir(), "config.yaml"), "path to the YAML config file")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	mock := flag.Bool("mock", false, "use blank frames and the mock detector")
	withTray := flag.Bool("tray", false, "show a system tray icon")
	quiet := flag.Bool("quiet", false, "do not print recognised signs")
	traceFile := flag.String("trace", "", "export pipeline spans to this file, overrides trace.file")
	flag.Parse()

	color.New(color.Bold).Println("Bebas - sign language practice")

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		lgr.Logger.Warn("error loading .env file", lgr.Err(err))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		lgr.Logger.Error("load config", lgr.Err(err))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *mock {
		cfg.Camera.Mock = true
		cfg.Detector.Backend = "mock"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir()
	}
	if *traceFile != "" {
		cfg.Trace.Enabled = true
		cfg.Trace.File = *traceFile
	}

	logCloser := lgr.Init(lgr.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		JSON:       cfg.Log.JSON,
	})
	defer logCloser.Close()

	tp, err := telemetry.New(cfg.Trace)
	if err != nil {
		lgr.Logger.Error("set up tracing", lgr.Err(err))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			lgr.Logger.Warn("flush spans", lgr.Err(err))
		}
	}()
	if tp.Enabled() {
		lgr.Logger.Info("exporting pipeline spans", slog.String("file", cfg.Trace.File))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		lgr.Logger.Error("create data directory", lgr.Err(err))
		os.Exit(1)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		lgr.Logger.Error("open store", slog.String("path", cfg.Store.Path), lgr.Err(err))
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var observers []pipeline.Observer
	if !*quiet {
		observers = append(observers, newConsole(os.Stdout))
	}

	var t *tray.Tray
	if *withTray {
		t = tray.New()
		observers = append(observers, t)
	}

	a, err := app.New(app.Options{Config: cfg, Store: st, Observers: observers, Tracer: tp.Tracer()})
	if err != nil {
		lgr.Logger.Error("create app", lgr.Err(err))
		os.Exit(1)
	}
	defer a.Close()

	if cfg.Server.StaticDir != "" {
		lgr.Logger.Info("serving static files", slog.String("dir", cfg.Server.StaticDir))
	}

	if t == nil {
		if err := serve(ctx, a, cfg.Server.Addr); err != nil {
			lgr.Logger.Error("bebas stopped", lgr.Err(err))
			os.Exit(1)
		}
		return
	}

	t.OnToggle(func(enabled bool) {
		if err := a.SetEnabled(enabled); err != nil {
			lgr.Logger.Warn("toggle capture", lgr.Err(err))
		}
	})
	t.OnOpen(func() { openBrowser(browserURL(cfg.Server.Addr)) })
	t.OnQuit(stop)

	go func() {
		if err := serve(ctx, a, cfg.Server.Addr); err != nil {
			lgr.Logger.Error("bebas stopped", lgr.Err(err))
		}
		t.Quit()
	}()
	t.Run()
}

// loadConfig reads path when it exists. A missing file means defaults.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Load("")
	}
	return config.Load(path)
}

// serve runs the pipeline and the HTTP server until ctx ends or either fails.
func serve(ctx context.Context, a *app.App, addr string) error {
	srv := server.New(a.ServerConfig())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Run(ctx)
	})
	g.Go(func() error {
		lgr.Logger.Info("starting server", slog.String("addr", addr))
		return srv.ListenAndServe(ctx, addr)
	})
	return g.Wait()
}

func browserURL(addr string) string {
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
		lgr.Logger.Warn("open browser", slog.String("url", url), lgr.Err(err))
		fmt.Println("Open", url)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.bebas/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(config.DataDir(), "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

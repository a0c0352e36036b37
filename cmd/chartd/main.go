package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/summit-enterprise/stock-pro-sub000/internal/api"
	"github.com/summit-enterprise/stock-pro-sub000/internal/config"
	"github.com/summit-enterprise/stock-pro-sub000/internal/datacache"
	"github.com/summit-enterprise/stock-pro-sub000/internal/engine"
	"github.com/summit-enterprise/stock-pro-sub000/internal/feed"
	"github.com/summit-enterprise/stock-pro-sub000/internal/layout"
	"github.com/summit-enterprise/stock-pro-sub000/internal/netutil"
	"github.com/summit-enterprise/stock-pro-sub000/internal/pane"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render/cdp"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render/rendertest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("chartd config loaded",
		"bind_addr", cfg.BindAddr(),
		"cache_ttl_minutes", cfg.CacheTTLMinutes,
		"refresh_cron", cfg.RefreshCron,
		"default_symbol", cfg.DefaultSymbol,
		"default_range", cfg.DefaultRange,
		"render_cdp", cfg.RenderCDP,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr(), netutil.FallbackAddrs(cfg.BindAddress, cfg.BindPort, 4), cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr(), "error", err)
		os.Exit(1)
	}

	symbolMap, err := cfg.SymbolMap()
	if err != nil {
		slog.Error("failed to load symbol map", "file", cfg.SymbolMapFile, "error", err)
		os.Exit(1)
	}
	fetcher := feed.NewYahooFetcher(symbolMap)
	if cfg.FeedBaseURL != "" {
		fetcher.BaseURL = cfg.FeedBaseURL
	}
	cache := datacache.New(fetcher, datacache.WithTTL(time.Duration(cfg.CacheTTLMinutes)*time.Minute))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		cache.Refresh(ctx)
	}); err != nil {
		slog.Error("invalid refresh cron expression", "cron", cfg.RefreshCron, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	surface, containers, closeSurface, err := buildSurface(cfg)
	if err != nil {
		slog.Error("failed to build render surface", "error", err)
		os.Exit(1)
	}
	defer closeSurface()

	eng := engine.New(cache, surface, containers, pane.NewRegistry())
	defer eng.Unmount()

	if cfg.DefaultSymbol != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if err := eng.Mount(ctx, cfg.DefaultSymbol); err != nil {
			slog.Warn("initial mount failed", "symbol", cfg.DefaultSymbol, "error", err)
		} else if err := eng.SetRange(ctx, cfg.DefaultRange); err != nil {
			slog.Warn("initial range failed", "range", cfg.DefaultRange, "error", err)
		}
		cancel()
	}

	store, err := layout.NewStore(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open layout store", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: bindAddr, Handler: api.NewServer(eng, store)}

	go func() {
		slog.Info("chartd listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("chartd server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("chartd shutdown failed", "error", err)
	}
}

// buildSurface picks the render backend. With CDP enabled panes live on a
// real browser page; otherwise the in-memory surface serves data-only
// deployments where nobody looks at pixels.
func buildSurface(cfg *config.Config) (render.Surface, engine.ContainerProvider, func(), error) {
	if cfg.RenderCDP {
		client, err := cdp.Connect(context.Background(), cfg.GetCDPURL(), cfg.CDPPageURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return client, client.Container, client.Close, nil
	}

	surface := rendertest.NewSurface()
	var mu sync.Mutex
	containers := make(map[string]*rendertest.Container)
	provide := func(name string) render.Container {
		mu.Lock()
		defer mu.Unlock()
		if c, ok := containers[name]; ok {
			return c
		}
		c := rendertest.NewContainer(name, render.Layout{Width: 1200, Height: 600, Opacity: 1})
		containers[name] = c
		return c
	}
	return surface, provide, func() {}, nil
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}

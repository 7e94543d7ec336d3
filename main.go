package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/logger"

	"github.com/tarkov-database/mbtileserver/config"
	"github.com/tarkov-database/mbtileserver/controller"
	"github.com/tarkov-database/mbtileserver/core/discovery"
	"github.com/tarkov-database/mbtileserver/core/registry"
	"github.com/tarkov-database/mbtileserver/core/reload"
	"github.com/tarkov-database/mbtileserver/middleware/hostcheck"
	"github.com/tarkov-database/mbtileserver/route"
)

func main() {
	fmt.Printf("Starting up Tarkov Database TileServer\n\n")

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	defLog := logger.Init("default", cfg.Verbose, false, io.Discard)
	defer defLog.Close()

	ctx := context.Background()

	snap, err := discovery.Discover(ctx, cfg.Directory, cfg.PoolSize)
	if err != nil {
		logger.Fatalf("initial tileset discovery failed: %v", err)
	}
	logger.Infof("loaded %d tileset(s) from %s", len(snap), cfg.Directory)

	reg := registry.New(snap)
	coord := reload.New(reg, cfg.Directory, cfg.PoolSize)

	go coord.Run(ctx, cfg.ReloadInterval, cfg.AllowReloadSignal, !cfg.DisableWatcher)

	c := &controller.Controller{
		Registry:       reg,
		Reloader:       coord,
		DisablePreview: cfg.DisablePreview,
		AllowReloadAPI: cfg.AllowReloadAPI,
	}

	policy := hostcheck.Policy{
		AllowedHosts: cfg.AllowedHosts,
		Headers:      cfg.Headers,
	}

	r := route.Load(c, policy)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Errorf("HTTP server error: %s", err)
		os.Exit(1)
	}
}

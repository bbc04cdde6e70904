package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/xhad/muffin/pkg/metrics"
	"github.com/xhad/muffin/server"
)

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	m := metrics.NewMetrics()
	chef, err := newChef(ctx, cfg, m, indexProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}
	defer chef.Index.Close()

	s, err := server.NewWSServer(server.Config{
		Addr:        cfg.Server.Addr,
		Title:       cfg.UI.Title,
		ShowSources: cfg.UI.ShowSources,
		Metrics:     cfg.Server.Metrics,
	}, chef, m)
	if err != nil {
		return errors.Wrap(err, "failed to initialize server")
	}

	return s.ListenAndServe(ctx)
}

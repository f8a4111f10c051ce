package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-loi-dashboard/pkg/export"
)

type exportCmd struct {
	metricsFlags `embed:""`

	Output  string `short:"o" type:"path" default:"dashboard.xlsx" help:"Workbook to write."`
	Locale  string `default:"th" help:"Locale for widget and metric names."`
	Refresh bool   `help:"Fetch metric values once before exporting."`
}

func (c *exportCmd) Run(ctx context.Context, g *globalFlags) error {
	file, err := loadFileConfig(g.Config)
	if err != nil {
		return err
	}
	s, err := resolve(*g, serveFlags{metricsFlags: c.metricsFlags, NoSeed: true}, file)
	if err != nil {
		return err
	}
	log, err := newLogger(s.LogLevel, s.Production)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	d, closeStore, err := buildDashboard(ctx, s, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore(context.Background()) }()

	if c.Refresh && d.Poller != nil {
		if err := d.Poller.PollOnce(ctx); err != nil {
			log.Warn("metric refresh incomplete", zap.Error(err))
		}
	}

	out, err := os.Create(c.Output) //nolint:gosec
	if err != nil {
		return fmt.Errorf("loidash: create %s: %w", c.Output, err)
	}
	if err := export.Write(out, d.Store, export.Options{Registry: d.Registry, Catalog: d.Catalog, Locale: c.Locale}); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("loidash: close %s: %w", c.Output, err)
	}
	fmt.Fprintf(os.Stdout, "✓ Exported %s\n", c.Output)
	return nil
}

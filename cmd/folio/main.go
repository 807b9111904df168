// Command folio converts recognized bulletins, flyers and newsletters
// into mobile layout plans.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/folio/internal/adapters/driving/cli"
	"github.com/custodia-labs/folio/internal/core/services"
	"github.com/custodia-labs/folio/internal/logger"
	"github.com/custodia-labs/folio/internal/normalisers"
	"github.com/custodia-labs/folio/internal/normalisers/html"
	"github.com/custodia-labs/folio/internal/normalisers/jsondoc"
	"github.com/custodia-labs/folio/internal/normalisers/markdown"
	"github.com/custodia-labs/folio/internal/normalisers/yamldoc"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	settingsService := services.NewSettingsService(openConfig(""))
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading settings: %v\n", err)
		return err
	}

	st := openStorage(ctx, settings)
	defer st.close()

	registry := normalisers.NewRegistry(html.New())
	registry.Register(jsondoc.New())
	registry.Register(yamldoc.New())
	registry.Register(markdown.New())

	cli.SetVersion(version)
	cli.SetServices(
		services.NewConversionService(st.patterns, st.blocklist, st.issues, registry, *settings),
		services.NewLearningService(st.patterns, st.blocklist, st.issues),
		settingsService,
	)

	err = cli.Execute(ctx)
	if err != nil {
		logger.Debug("command failed: %v", err)
	}
	return err
}

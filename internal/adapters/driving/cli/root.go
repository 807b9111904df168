// Package cli provides the folio command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Service instances injected by main.
var (
	conversionService driving.ConversionService
	learningService   driving.LearningService
	settingsService   driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Turn recognized bulletins and flyers into mobile layouts",
	Long: `Folio converts recognizer output for church bulletins, election flyers
and newsletters into validated, mobile-ready layout plans.

Each conversion parses table rows and free text into structured fields,
merges pages, checks the result for hallucinated or missing content and
picks a layout. Outcomes feed a pattern store so layouts improve over time.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline stages to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices injects the driving ports used by commands.
// Learning and settings may be nil; the commands that need them report
// that they are not configured.
func SetServices(
	conversion driving.ConversionService,
	learning driving.LearningService,
	settings driving.SettingsService,
) {
	conversionService = conversion
	learningService = learning
	settingsService = settings
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as watch and mcp serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

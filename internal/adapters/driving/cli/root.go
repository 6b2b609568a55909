// Package cli provides the command-line interface for the Redline CLI.
// Commands drive the core services through the driving ports.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
	"github.com/custodia-labs/redline-cli/internal/core/services"
	"github.com/custodia-labs/redline-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
	dataDir   string

	configStore driven.ConfigStore
	tuning      = domain.DefaultTuning()
)

var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "Re-anchor and apply reviewed contract edits to documents",
	Long: `Redline locates reviewed excerpt text in a live document and applies
the proposed edits as tracked changes, even after the document has drifted
from the text the review was produced against.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return err
		}
		configStore = store
		tuning = services.TuningFromConfig(configStore)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.redline)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for session storage (default ~/.redline/data)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/monodeploy/cli/internal/output"
)

var (
	// Global flags
	cwdFlag        string
	configFlag     string
	verboseFlag    bool
	timestampsFlag bool
)

// NewRootCmd creates the root command for the monodeploy CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "monodeploy",
		Short: "Monorepo release automation",
		Long: `monodeploy automates versioned publication of the interdependent
packages in a monorepo: it analyzes the changes since a baseline revision,
computes semantic version bumps (propagating to dependents), updates
manifests and the changelog, publishes archives to the registry, and records
the release as annotated tags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logCfg := output.LogConfig{Verbose: verboseFlag}
			if cmd.Flags().Changed("timestamps") {
				logCfg.Timestamps = output.BoolPtr(timestampsFlag)
			}
			output.SetupLogging(logCfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cwdFlag, "cwd", ".", "Workspace root")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file (default: monodeploy.config.yaml in the workspace root)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", false, "Show timestamps in log output")

	rootCmd.AddCommand(NewReleaseCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

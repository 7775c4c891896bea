package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for logocluster.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logocluster",
		Short: "Group websites by near-identical logos",
		Long: `logocluster discovers the logo of each website in a list, hashes it with a
difference hash and groups websites whose logos are within a small Hamming
distance of each other.

Results are stored in a local SQLite database so an interrupted scan can be
resumed and stored logos can be regrouped with other parameters.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewGroupCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

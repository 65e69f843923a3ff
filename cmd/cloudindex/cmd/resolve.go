package cmd

import (
	"fmt"

	"github.com/Jumpaku/go-cloudindex"
	"github.com/Jumpaku/go-cloudindex/config"
	"github.com/spf13/cobra"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a folder path to its folder ID",
	Long: `Resolve walks root.path folder by folder and prints the ID of the
folder it names, without indexing anything.`,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().String("root", "", "ID of the folder the path starts from")
	resolveCmd.Flags().String("root-path", "", "Folder path to resolve")
}

func runResolve(cmd *cobra.Command, args []string) error {
	bindSnapshotFlags(cmd)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Root.Path == "" {
		return fmt.Errorf("root.path is required for resolve: %w", cloudindex.ErrInvalidConfig)
	}

	_, rootID, err := buildBackend(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rootID)
	return nil
}

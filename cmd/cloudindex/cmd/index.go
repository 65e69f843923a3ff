package cmd

import (
	"github.com/Jumpaku/go-cloudindex/config"
	"github.com/Jumpaku/go-cloudindex/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a folder tree and collect sharable links",
	Long: `Index walks the configured folder tree, collects a sharable link for
every entry, and writes the snapshot to <out-dir>/<root name>_index.<ext>.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().String("root", "", "ID of the folder to index")
	indexCmd.Flags().String("root-name", "", "Display name overriding the folder's own name")
	indexCmd.Flags().String("root-path", "", "Folder path resolved below --root (Drive) or from the account root (Dropbox)")
	indexCmd.Flags().String("format", "csv", "Output format (csv, json, sqlite)")
	indexCmd.Flags().String("out-dir", "", "Directory for the output file (default \"indexes\")")
	indexCmd.Flags().String("out", "", "Exact output file path, overriding --out-dir")
	indexCmd.Flags().Bool("share", false, "Request fresh links even for entries that already carry one")
	indexCmd.Flags().String("share-role", "reader", "Permission role granted through created links")
	indexCmd.Flags().Int64("page-size", 1000, "Entries per listing page")
	indexCmd.Flags().Int("max-depth", 0, "Maximum folder depth, 0 for unlimited")
}

func runIndex(cmd *cobra.Command, args []string) error {
	bindSnapshotFlags(cmd)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, rootID, err := buildBackend(ctx, cfg, true)
	if err != nil {
		return err
	}

	idx, err := newIndexer(backend, cfg, false).BuildIndex(ctx, rootID, cfg.Root.FolderName)
	if err != nil {
		return err
	}

	path := artifactPath(cfg, format, idx.RootName, output.KindIndex, "indexes")
	if err := output.Write(idx, format, path); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"entries": idx.Len(),
		"path":    path,
	}).Info("index written")
	return nil
}

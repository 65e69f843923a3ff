package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Jumpaku/go-cloudindex"
	"github.com/Jumpaku/go-cloudindex/config"
	"github.com/Jumpaku/go-cloudindex/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Snapshot a folder tree's structure without requesting links",
	Long: `Tree walks the configured folder tree without creating or reading any
sharable links, writes the snapshot to <out-dir>/<root name>_directory.<ext>,
and prints the tree to stdout.`,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().String("root", "", "ID of the folder to walk")
	treeCmd.Flags().String("root-name", "", "Display name overriding the folder's own name")
	treeCmd.Flags().String("root-path", "", "Folder path resolved below --root (Drive) or from the account root (Dropbox)")
	treeCmd.Flags().String("format", "csv", "Output format (csv, json, sqlite)")
	treeCmd.Flags().String("out-dir", "", "Directory for the output file (default \"directories\")")
	treeCmd.Flags().String("out", "", "Exact output file path, overriding --out-dir")
	treeCmd.Flags().Int64("page-size", 1000, "Entries per listing page")
	treeCmd.Flags().Int("max-depth", 0, "Maximum folder depth, 0 for unlimited")
}

func runTree(cmd *cobra.Command, args []string) error {
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
	backend, rootID, err := buildBackend(ctx, cfg, false)
	if err != nil {
		return err
	}

	idx, err := newIndexer(backend, cfg, true).BuildIndex(ctx, rootID, cfg.Root.FolderName)
	if err != nil {
		return err
	}

	path := artifactPath(cfg, format, idx.RootName, output.KindDirectory, "directories")
	if format == output.FormatCSV {
		err = output.WriteDirectoryCSV(idx, path)
	} else {
		err = output.Write(idx, format, path)
	}
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"entries": idx.Len(),
		"path":    path,
	}).Info("directory written")

	printTree(cmd.OutOrStdout(), idx)
	return nil
}

func printTree(out io.Writer, idx *cloudindex.Index) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	root := idx.Root()
	fmt.Fprintf(w, "%s/\t%s\n", root.Name, root.ID)
	printSubtree(w, idx, root.ID, "")
	w.Flush()
	fmt.Fprintf(out, "\n%d entries\n", idx.Len())
}

func printSubtree(w io.Writer, idx *cloudindex.Index, parent cloudindex.FileID, prefix string) {
	children := idx.Children(parent)
	for i, c := range children {
		connector, childPrefix := "|-- ", prefix+"|   "
		if i == len(children)-1 {
			connector, childPrefix = "`-- ", prefix+"    "
		}
		name := c.Name
		if c.IsFolder() {
			name += "/"
		}
		fmt.Fprintf(w, "%s%s%s\t%s\n", prefix, connector, name, c.ID)
		if c.IsFolder() {
			printSubtree(w, idx, c.ID, childPrefix)
		}
	}
}

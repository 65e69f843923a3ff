package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Jumpaku/go-cloudindex"
	"github.com/Jumpaku/go-cloudindex/config"
	"github.com/Jumpaku/go-cloudindex/drive"
	"github.com/Jumpaku/go-cloudindex/dropbox"
	"github.com/Jumpaku/go-cloudindex/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// bindSnapshotFlags binds the active command's flags to their viper keys.
// Binding at run time keeps sibling commands with equally named flags from
// capturing the keys for each other.
func bindSnapshotFlags(cmd *cobra.Command) {
	bind := func(key, name string) {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
	bind("root.folder_id", "root")
	bind("root.folder_name", "root-name")
	bind("root.path", "root-path")
	bind("output.format", "format")
	bind("output.dir", "out-dir")
	bind("output.file", "out")
	bind("index.share", "share")
	bind("index.share_role", "share-role")
	bind("index.page_size", "page-size")
	bind("index.max_depth", "max-depth")
}

// buildBackend constructs the configured vendor backend and resolves the
// root folder ID, walking root.path below the configured root if one is set.
// sharing selects credentials scoped for permission grants.
func buildBackend(ctx context.Context, cfg *config.Config, sharing bool) (cloudindex.Backend, cloudindex.FileID, error) {
	switch cfg.Backend {
	case config.BackendDrive:
		return buildDriveBackend(ctx, cfg, sharing)
	case config.BackendDropbox:
		return buildDropboxBackend(ctx, cfg)
	}
	return nil, "", fmt.Errorf("unknown backend '%s': %w", cfg.Backend, cloudindex.ErrInvalidConfig)
}

func buildDriveBackend(ctx context.Context, cfg *config.Config, sharing bool) (cloudindex.Backend, cloudindex.FileID, error) {
	role, err := drive.ParseRole(cfg.Index.ShareRole)
	if err != nil {
		return nil, "", err
	}
	service, err := drive.NewService(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile, drive.Scope(sharing))
	if err != nil {
		return nil, "", err
	}
	backend := drive.New(service, drive.Options{
		PageSize: cfg.Index.PageSize,
		Link:     drive.LinkPolicy{Role: role},
	})

	rootID := cloudindex.FileID(cfg.Root.FolderID)
	if cfg.Root.Path != "" {
		rootID, err = backend.ResolveFolderPath(ctx, rootID, cfg.Root.Path)
		if err != nil {
			return nil, "", err
		}
	}
	return backend, rootID, nil
}

func buildDropboxBackend(ctx context.Context, cfg *config.Config) (cloudindex.Backend, cloudindex.FileID, error) {
	client := dropbox.NewClient("", cfg.Dropbox.AccessToken)
	backend := dropbox.New(client, dropbox.Options{PageSize: uint32(cfg.Index.PageSize)})

	// Probe the token before touching any folder, so a bad credential
	// fails here rather than mid-walk.
	acct, err := backend.CurrentAccount(ctx)
	if err != nil {
		return nil, "", err
	}
	logger.WithField("account", acct.Email).Debug("dropbox access token verified")

	rootID := cloudindex.FileID(cfg.Root.FolderID)
	if cfg.Root.Path != "" {
		rootID, err = backend.ResolvePath(ctx, cfg.Root.Path)
		if err != nil {
			return nil, "", err
		}
	}
	return backend, rootID, nil
}

// newIndexer assembles the Indexer from the loaded configuration.
func newIndexer(backend cloudindex.Backend, cfg *config.Config, skipLinks bool) *cloudindex.Indexer {
	return cloudindex.New(backend, logger, cloudindex.Options{
		SkipLinks:  skipLinks,
		ForceShare: cfg.Index.Share,
		MaxDepth:   cfg.Index.MaxDepth,
		Retry: cloudindex.RetryPolicy{
			MaxAttempts: cfg.Index.MaxRetries,
			MaxSleep:    cloudindex.DefaultRetryPolicy.MaxSleep,
		},
	})
}

// artifactPath decides where the snapshot lands: output.file verbatim when
// set, otherwise output.dir (or the command's default directory) joined with
// the derived file name.
func artifactPath(cfg *config.Config, format output.Format, rootName, kind, defaultDir string) string {
	if cfg.Output.File != "" {
		return cfg.Output.File
	}
	dir := cfg.Output.Dir
	if dir == "" {
		dir = defaultDir
	}
	return filepath.Join(dir, output.FileName(rootName, kind, format))
}

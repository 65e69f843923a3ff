package drive

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jumpaku/go-cloudindex"
	driveapi "google.golang.org/api/drive/v3"
)

// ResolveFolderPath resolves a slash-separated folder path below rootID to
// the ID of the folder it names. An empty path (or "/") resolves to rootID
// itself. Every element must match exactly one non-trashed subfolder;
// missing elements report cloudindex.ErrNotFound, names matching several
// folders report cloudindex.ErrAmbiguousPath.
func (b *Backend) ResolveFolderPath(ctx context.Context, rootID cloudindex.FileID, path string) (cloudindex.FileID, error) {
	parts, err := splitFolderPath(path)
	if err != nil {
		return "", err
	}
	currentID := string(rootID)
	for _, part := range parts {
		folders, err := b.findFoldersByNameIn(ctx, currentID, part)
		if err != nil {
			return "", fmt.Errorf("failed to resolve '%s': %w", path, err)
		}
		if len(folders) == 0 {
			return "", fmt.Errorf("folder '%s' not found in '%s': %w", part, currentID, cloudindex.ErrNotFound)
		}
		if len(folders) > 1 {
			return "", fmt.Errorf("folder name '%s' matches %d folders in '%s': %w", part, len(folders), currentID, cloudindex.ErrAmbiguousPath)
		}
		currentID = folders[0].Id
	}
	return cloudindex.FileID(currentID), nil
}

func splitFolderPath(path string) (parts []string, err error) {
	for _, p := range strings.Split(path, "/") {
		if p == "." || p == ".." {
			return nil, fmt.Errorf("relative path components are not allowed: %w", cloudindex.ErrInvalidPath)
		}
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func (b *Backend) findFoldersByNameIn(ctx context.Context, parentID, name string) (folders []*driveapi.File, err error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(parentID), mimeTypeFolder)
	err = b.service.Files.List().
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Q(q).
		Fields(listFields).
		Pages(ctx, func(list *driveapi.FileList) error {
			folders = append(folders, list.Files...)
			return nil
		})
	if err != nil {
		return nil, mapError(fmt.Sprintf("failed to find folder '%s' in '%s'", name, parentID), err)
	}
	return folders, nil
}

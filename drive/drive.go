// Package drive reads Google Drive folder trees through the Drive v3 API.
package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jumpaku/go-cloudindex"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	mimeTypeFolder = "application/vnd.google-apps.folder"

	fileFields  = "id,name,mimeType,size,webViewLink,owners(displayName,emailAddress),createdTime,modifiedTime"
	listFields  = "nextPageToken,files(id,name,mimeType,size,webViewLink,owners(displayName,emailAddress),createdTime,modifiedTime)"
	permFields  = "id,type,domain,role,allowFileDiscovery"
	permsFields = "nextPageToken,permissions(id,type,domain,role,allowFileDiscovery)"
	linkFields  = "webViewLink"

	defaultPageSize = 1000
)

// Options tune a Backend.
type Options struct {
	// PageSize is the number of children requested per listing call,
	// capped by the API at 1000. Zero selects the default of 1000.
	PageSize int64
	// Link is the permission ensured before a sharable link is read.
	Link LinkPolicy
}

// Backend reads folder trees and manages sharable links on Google Drive.
// It implements cloudindex.Backend.
type Backend struct {
	service  *driveapi.Service
	pageSize int64
	link     LinkPolicy
}

// New creates a new Backend with the given drive service.
func New(service *driveapi.Service, opts Options) *Backend {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Link.Role == "" {
		opts.Link.Role = RoleReader
	}
	return &Backend{service: service, pageSize: opts.PageSize, link: opts.Link}
}

func (b *Backend) Name() string { return "drive" }

// Stat returns the entry for the file or folder with the given id.
func (b *Backend) Stat(ctx context.Context, id cloudindex.FileID) (cloudindex.Entry, error) {
	f, err := b.service.Files.Get(string(id)).
		SupportsAllDrives(true).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		return cloudindex.Entry{}, mapError(fmt.Sprintf("failed to get file '%s'", id), err)
	}
	return newEntry(f), nil
}

// ListChildren returns one page of the direct, non-trashed children of the
// folder with the given id. Pass the returned NextPageToken back in to
// fetch the following page.
func (b *Backend) ListChildren(ctx context.Context, id cloudindex.FileID, pageToken string) (cloudindex.Page, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(string(id)))
	call := b.service.Files.List().
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Q(q).
		Fields(listFields).
		PageSize(b.pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	list, err := call.Do()
	if err != nil {
		return cloudindex.Page{}, mapError(fmt.Sprintf("failed to list folder '%s'", id), err)
	}
	page := cloudindex.Page{NextPageToken: list.NextPageToken}
	for _, f := range list.Files {
		page.Entries = append(page.Entries, newEntry(f))
	}
	return page, nil
}

func newEntry(f *driveapi.File) cloudindex.Entry {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	e := cloudindex.Entry{
		ID:       cloudindex.FileID(f.Id),
		Name:     f.Name,
		Type:     cloudindex.EntryTypeFile,
		Link:     f.WebViewLink,
		Mime:     f.MimeType,
		Size:     f.Size,
		Created:  created,
		Modified: modified,
	}
	if f.MimeType == mimeTypeFolder {
		e.Type = cloudindex.EntryTypeFolder
		e.Size = 0
	}
	if len(f.Owners) > 0 {
		e.Owner = f.Owners[0].DisplayName
		if e.Owner == "" {
			e.Owner = f.Owners[0].EmailAddress
		}
	}
	return e
}

// mapError classifies a Drive API failure. Drive reports quota exhaustion
// either as 429 or as 403 with a rate-limit reason; a plain 403 means the
// file is inaccessible and is classified like a missing one.
func mapError(msg string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch {
		case gErr.Code == 401:
			return cloudindex.NewAuthError(msg, err)
		case gErr.Code == 429, gErr.Code == 403 && hasRateLimitReason(gErr):
			return cloudindex.NewRateLimitError(msg, err)
		case gErr.Code == 404, gErr.Code == 403:
			return cloudindex.NewNotFoundError(msg, err)
		}
	}
	return cloudindex.NewAPIError(msg, err)
}

func hasRateLimitReason(gErr *googleapi.Error) bool {
	for _, e := range gErr.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return s
}

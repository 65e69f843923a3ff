package drive

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jumpaku/go-cloudindex"
	driveapi "google.golang.org/api/drive/v3"
)

// Role is a Drive permission role.
type Role string

const (
	RoleOwner         Role = "owner"
	RoleOrganizer     Role = "organizer"
	RoleFileOrganizer Role = "fileOrganizer"
	RoleWriter        Role = "writer"
	RoleCommenter     Role = "commenter"
	RoleReader        Role = "reader"
)

const (
	granteeTypeDomain = "domain"
	granteeTypeAnyone = "anyone"
)

// ParseRole parses a permission role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	roles := []Role{RoleOwner, RoleOrganizer, RoleFileOrganizer, RoleWriter, RoleCommenter, RoleReader}
	for _, r := range roles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown permission role '%s': %w", s, cloudindex.ErrInvalidConfig)
}

// LinkPolicy describes the permission ensured on a file before its link is
// read. The zero value shares read-only with anyone holding the link.
type LinkPolicy struct {
	// Role granted through the link; defaults to RoleReader.
	Role Role
	// Domain restricts the grant to one domain instead of anyone.
	Domain string
	// AllowDiscovery lets the file surface in search results.
	AllowDiscovery bool
}

// ShareLink ensures the configured link permission on the file with the
// given id and returns its web view link. An existing grant for the same
// audience is updated in place, so repeated runs do not pile up grants.
func (b *Backend) ShareLink(ctx context.Context, id cloudindex.FileID) (string, error) {
	if err := b.ensurePermission(ctx, string(id)); err != nil {
		return "", err
	}
	f, err := b.service.Files.Get(string(id)).
		SupportsAllDrives(true).
		Fields(linkFields).
		Context(ctx).
		Do()
	if err != nil {
		return "", mapError(fmt.Sprintf("failed to read link of '%s'", id), err)
	}
	return f.WebViewLink, nil
}

func (b *Backend) ensurePermission(ctx context.Context, fileID string) error {
	perms, err := b.listPermissions(ctx, fileID)
	if err != nil {
		return err
	}
	for _, perm := range perms {
		if !b.granteeMatch(perm) {
			continue
		}
		if perm.Role == string(b.link.Role) && perm.AllowFileDiscovery == b.link.AllowDiscovery {
			return nil
		}
		perm.Role = string(b.link.Role)
		perm.AllowFileDiscovery = b.link.AllowDiscovery
		return b.updatePermission(ctx, fileID, perm)
	}
	return b.createPermission(ctx, fileID)
}

// granteeMatch reports whether an existing permission addresses the same
// audience as the link policy.
func (b *Backend) granteeMatch(perm *driveapi.Permission) bool {
	if b.link.Domain != "" {
		return perm.Type == granteeTypeDomain && perm.Domain == b.link.Domain
	}
	return perm.Type == granteeTypeAnyone
}

func (b *Backend) listPermissions(ctx context.Context, fileID string) (perms []*driveapi.Permission, err error) {
	err = b.service.Permissions.List(fileID).
		SupportsAllDrives(true).
		Fields(permsFields).
		Pages(ctx, func(list *driveapi.PermissionList) error {
			perms = append(perms, list.Permissions...)
			return nil
		})
	if err != nil {
		return nil, mapError(fmt.Sprintf("failed to list permissions of '%s'", fileID), err)
	}
	return perms, nil
}

func (b *Backend) updatePermission(ctx context.Context, fileID string, perm *driveapi.Permission) error {
	_, err := b.service.Permissions.Update(fileID, perm.Id, perm).
		SupportsAllDrives(true).
		Fields(permFields).
		Context(ctx).
		Do()
	if err != nil {
		return mapError(fmt.Sprintf("failed to share '%s'", fileID), err)
	}
	return nil
}

func (b *Backend) createPermission(ctx context.Context, fileID string) error {
	perm := &driveapi.Permission{
		Type:               granteeTypeAnyone,
		Role:               string(b.link.Role),
		AllowFileDiscovery: b.link.AllowDiscovery,
	}
	if b.link.Domain != "" {
		perm.Type = granteeTypeDomain
		perm.Domain = b.link.Domain
	}
	_, err := b.service.Permissions.Create(fileID, perm).
		SupportsAllDrives(true).
		Fields(permFields).
		Context(ctx).
		Do()
	if err != nil {
		return mapError(fmt.Sprintf("failed to share '%s'", fileID), err)
	}
	return nil
}

package cloudindex

import (
	"context"
)

// Page is one page of a folder listing. NextPageToken is empty on the last
// page; otherwise it is passed back to ListChildren to fetch the next page.
type Page struct {
	Entries       []Entry
	NextPageToken string
}

// Backend abstracts the two vendor calls the indexer needs: listing the
// children of a folder and obtaining a sharable link for an entry. Entries
// returned by ListChildren and Stat carry vendor metadata only; the Indexer
// assigns Parent and Path. The order of entries within a page is whatever
// the vendor returns.
type Backend interface {
	// Name identifies the vendor, e.g. "drive" or "dropbox".
	Name() string

	// Stat returns the entry for a single file or folder identifier.
	Stat(ctx context.Context, id FileID) (Entry, error)

	// ListChildren lists the direct children of a folder. Pass an empty
	// pageToken for the first page and the previous page's NextPageToken
	// afterwards.
	ListChildren(ctx context.Context, id FileID, pageToken string) (Page, error)

	// ShareLink returns a sharable link for the entry, creating one if the
	// vendor has not issued one yet.
	ShareLink(ctx context.Context, id FileID) (string, error)
}

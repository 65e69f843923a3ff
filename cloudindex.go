package cloudindex

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options tune one indexing run.
type Options struct {
	// SkipLinks walks the tree without requesting any sharable links;
	// entries keep whatever link the listing already carried.
	SkipLinks bool
	// ForceShare requests a link for every entry even when the listing
	// already carried one.
	ForceShare bool
	// MaxDepth bounds recursion below the root; 0 means unlimited.
	MaxDepth int
	// Retry bounds rate-limit retries; the zero value selects
	// DefaultRetryPolicy.
	Retry RetryPolicy
}

// Indexer walks a cloud-storage folder tree through a Backend and
// materializes the result as an Index. The traversal is depth-first,
// pre-order and single-threaded: one listing call per folder visited, one
// link call per entry that still needs one.
type Indexer struct {
	backend Backend
	logger  *logrus.Logger
	opts    Options
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates an Indexer over the given backend. A nil logger is replaced
// with a default one.
func New(backend Backend, logger *logrus.Logger, opts Options) *Indexer {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy
	}
	return &Indexer{
		backend: backend,
		logger:  logger,
		opts:    opts,
		sleep:   sleepContext,
	}
}

// BuildIndex enumerates every descendant of rootID, including the root
// folder itself, and returns the materialized Index. rootName overrides the
// vendor's name for the root entry and becomes the first element of every
// path; when empty the vendor name is used. The first non-retryable error
// aborts the walk and no Index is returned.
func (ix *Indexer) BuildIndex(ctx context.Context, rootID FileID, rootName string) (*Index, error) {
	root, err := ix.stat(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root folder '%s': %w", rootID, err)
	}
	if !root.IsFolder() {
		return nil, fmt.Errorf("root '%s' is not a folder: %w", rootID, ErrNotFound)
	}
	if rootName != "" {
		root.Name = rootName
	}
	root.Parent = ""
	root.Path = root.Name

	idx := NewIndex(uuid.New().String(), ix.backend.Name(), rootID, root.Name, time.Now().UTC())

	ix.logger.WithFields(logrus.Fields{
		"backend": ix.backend.Name(),
		"root":    string(rootID),
		"run_id":  idx.RunID,
	}).Info("indexing folder tree")

	if err := ix.ensureLink(ctx, &root); err != nil {
		return nil, fmt.Errorf("failed to obtain link for root '%s': %w", rootID, err)
	}
	if err := idx.Add(root); err != nil {
		return nil, err
	}
	if err := ix.walk(ctx, idx, root, 1); err != nil {
		return nil, err
	}

	ix.logger.WithFields(logrus.Fields{
		"entries": idx.Len(),
		"run_id":  idx.RunID,
	}).Info("indexing complete")
	return idx, nil
}

// walk lists the children of folder, appends them to idx and recurses into
// subfolders. depth is the depth of the children being listed, the root's
// children being at depth 1.
func (ix *Indexer) walk(ctx context.Context, idx *Index, folder Entry, depth int) error {
	if ix.opts.MaxDepth > 0 && depth > ix.opts.MaxDepth {
		return nil
	}

	var children []Entry
	pageToken := ""
	for {
		page, err := ix.listChildren(ctx, folder.ID, pageToken)
		if err != nil {
			return fmt.Errorf("failed to list folder '%s': %w", folder.ID, err)
		}
		children = append(children, page.Entries...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	ix.logger.WithFields(logrus.Fields{
		"folder":   folder.Path,
		"children": len(children),
	}).Debug("listed folder")

	for _, child := range children {
		child.Parent = folder.ID
		child.Path = path.Join(folder.Path, child.Name)
		if idx.Contains(child.ID) {
			ix.logger.WithFields(logrus.Fields{
				"id":   string(child.ID),
				"path": child.Path,
			}).Debug("skipping entry seen before")
			continue
		}
		if err := ix.ensureLink(ctx, &child); err != nil {
			return fmt.Errorf("failed to obtain link for '%s': %w", child.Path, err)
		}
		if err := idx.Add(child); err != nil {
			return err
		}
		if child.IsFolder() {
			if err := ix.walk(ctx, idx, child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureLink fills e.Link according to the sharing policy: never when
// SkipLinks is set, always when ForceShare is set, otherwise only when the
// listing did not already carry a link.
func (ix *Indexer) ensureLink(ctx context.Context, e *Entry) error {
	if ix.opts.SkipLinks {
		return nil
	}
	if e.Link != "" && !ix.opts.ForceShare {
		return nil
	}
	var link string
	err := ix.retry(ctx, func() error {
		var err error
		link, err = ix.backend.ShareLink(ctx, e.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.Link = link
	return nil
}

func (ix *Indexer) stat(ctx context.Context, id FileID) (Entry, error) {
	var e Entry
	err := ix.retry(ctx, func() error {
		var err error
		e, err = ix.backend.Stat(ctx, id)
		return err
	})
	return e, err
}

func (ix *Indexer) listChildren(ctx context.Context, id FileID, pageToken string) (Page, error) {
	var p Page
	err := ix.retry(ctx, func() error {
		var err error
		p, err = ix.backend.ListChildren(ctx, id, pageToken)
		return err
	})
	return p, err
}

// retry runs f, sleeping and retrying on rate-limit errors only, up to the
// policy's attempt budget. Every other error returns immediately.
func (ix *Indexer) retry(ctx context.Context, f func() error) error {
	policy := ix.opts.Retry
	for attempt := 0; ; attempt++ {
		err := f()
		if err == nil || !errors.Is(err, ErrRateLimited) {
			return err
		}
		if attempt+1 >= policy.MaxAttempts {
			return fmt.Errorf("retries exhausted after %d attempts: %w", policy.MaxAttempts, err)
		}
		d := policy.backoff(attempt)
		ix.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"sleep":   d.Round(time.Millisecond).String(),
		}).Warn("rate limited, backing off")
		if err := ix.sleep(ctx, d); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

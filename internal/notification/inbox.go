package notification

import (
	"context"
	"fmt"
)

// PostChecker reports whether a post still exists.
type PostChecker interface {
	PostExists(ctx context.Context, postID string) (bool, error)
}

// ClearMode selects how much of the ledger Clear resets.
type ClearMode string

const (
	// ClearAll empties the records and zeroes the count.
	ClearAll ClearMode = "clear"
	// ClearSeen only zeroes the count.
	ClearSeen ClearMode = "seen"
)

// Inbox serves a user's own view of their ledger.
type Inbox struct {
	ledgers     LedgerStore
	posts       PostChecker
	broadcaster Broadcaster
}

// NewInbox creates an Inbox
func NewInbox(ledgers LedgerStore, posts PostChecker, broadcaster Broadcaster) *Inbox {
	return &Inbox{ledgers: ledgers, posts: posts, broadcaster: broadcaster}
}

// List returns the ledger of userID after dropping records that point at
// deleted posts or carry no message. Friend records have no post and are kept.
func (i *Inbox) List(ctx context.Context, userID string) (*Ledger, error) {
	ledger, err := i.ledgers.LoadLedger(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger of %s: %w", userID, err)
	}

	exists := make(map[string]bool)
	for _, rec := range ledger.Records() {
		postID := rec.Source.PostID
		if rec.AlertType == AlertFriendRequest || postID == "" {
			continue
		}
		if _, seen := exists[postID]; seen {
			continue
		}
		ok, err := i.posts.PostExists(ctx, postID)
		if err != nil {
			return nil, fmt.Errorf("check post %s: %w", postID, err)
		}
		exists[postID] = ok
	}

	dropped := ledger.Prune(func(rec Record) bool {
		if rec.Message == "" {
			return false
		}
		if rec.AlertType == AlertFriendRequest {
			return true
		}
		return exists[rec.Source.PostID]
	})
	if dropped > 0 {
		if err := i.ledgers.SaveLedger(ctx, userID, ledger); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLedgerWriteFailed, userID, err)
		}
	}
	return ledger, nil
}

// Clear resets the ledger of userID according to mode. Any mode other than
// ClearAll is treated as ClearSeen.
func (i *Inbox) Clear(ctx context.Context, userID string, mode ClearMode) (*Ledger, error) {
	ledger, err := i.ledgers.LoadLedger(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger of %s: %w", userID, err)
	}

	if mode == ClearAll {
		ledger.MarkAllRead()
	} else {
		ledger.MarkSeen()
	}

	if err := i.ledgers.SaveLedger(ctx, userID, ledger); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLedgerWriteFailed, userID, err)
	}

	i.broadcaster.Publish(TopicNotification, Notice{RecipientIDs: []string{userID}, Action: ActionRemove})
	return ledger, nil
}

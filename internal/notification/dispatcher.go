package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/anonto42/nano-social/backend/pkg/metrics"
	"go.uber.org/zap"
)

// TopicNotification is the realtime topic announcing ledger changes.
const TopicNotification = "notification"

// EventKind names the domain event that may touch a ledger.
type EventKind string

const (
	EventPostLike     EventKind = "post_like"
	EventCommentLike  EventKind = "comment_like"
	EventReplyLike    EventKind = "reply_like"
	EventPostComment  EventKind = "post_comment"
	EventCommentReply EventKind = "comment_reply"
)

type rule struct {
	alert AlertType
	verb  Verb
}

var rules = map[EventKind]rule{
	EventPostLike:     {alert: AlertLike, verb: VerbLiked},
	EventCommentLike:  {alert: AlertLike, verb: VerbLiked},
	EventReplyLike:    {alert: AlertLike, verb: VerbLiked},
	EventPostComment:  {alert: AlertComment, verb: VerbCommentedOn},
	EventCommentReply: {alert: AlertComment, verb: VerbRepliedTo},
}

// SubjectRef locates the post, comment or reply an event acted on.
type SubjectRef struct {
	PostID    string
	CommentID string
	ReplyID   string
}

// Subject is the current aggregate view of the thing acted on: who owns it
// and which distinct users currently like it, comment on it or reply to it.
type Subject struct {
	Key     string
	OwnerID string
	PostID  string
	Content string
	Actors  []Actor
}

// SubjectLoader reads a subject with the actor list that matches kind.
// A missing subject is reported as ErrSubjectNotFound.
type SubjectLoader interface {
	LoadSubject(ctx context.Context, kind EventKind, ref SubjectRef) (*Subject, error)
}

// LedgerStore loads and saves whole ledgers. A missing user is reported as
// ErrRecipientNotFound.
type LedgerStore interface {
	LoadLedger(ctx context.Context, userID string) (*Ledger, error)
	SaveLedger(ctx context.Context, userID string, ledger *Ledger) error
}

// IdentityResolver looks up display information for a user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*Identity, error)
}

// Broadcaster pushes realtime events. Delivery is best effort.
type Broadcaster interface {
	Publish(topic string, payload any)
}

// Event is a like, comment or reply being added or removed.
type Event struct {
	Kind    EventKind
	Action  Action
	ActorID string
	Target  SubjectRef
}

// Outcome reports what Dispatch did.
type Outcome struct {
	RecipientID string
	Transition  Transition
	Suppressed  bool
}

// Notice is the payload published on TopicNotification.
type Notice struct {
	RecipientIDs []string  `json:"recipient_ids"`
	AlertType    AlertType `json:"alert_type"`
	Action       Action    `json:"action"`
}

// Dispatcher turns domain events into ledger upserts.
type Dispatcher struct {
	subjects    SubjectLoader
	ledgers     LedgerStore
	identities  IdentityResolver
	broadcaster Broadcaster
	now         func() time.Time
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(subjects SubjectLoader, ledgers LedgerStore, identities IdentityResolver, broadcaster Broadcaster) *Dispatcher {
	return &Dispatcher{
		subjects:    subjects,
		ledgers:     ledgers,
		identities:  identities,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Dispatch applies one event to the ledger of the subject's owner. Events
// where the actor owns the subject change nothing. The realtime notice is
// sent only after the ledger was saved.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	r, ok := rules[ev.Kind]
	if !ok || !ev.Action.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q/%q", ErrInvalidActionForAlertType, ev.Kind, ev.Action)
	}

	subject, err := d.subjects.LoadSubject(ctx, ev.Kind, ev.Target)
	if err != nil {
		return Outcome{}, fmt.Errorf("load %s subject: %w", ev.Kind, err)
	}

	out := Outcome{RecipientID: subject.OwnerID, Transition: TransitionNone}
	if subject.OwnerID == ev.ActorID {
		out.Suppressed = true
		metrics.Get().NotificationsSuppressed.WithLabelValues(string(ev.Kind)).Inc()
		return out, nil
	}

	actor, err := d.identities.ResolveIdentity(ctx, ev.ActorID)
	if err != nil {
		return out, fmt.Errorf("resolve actor %s: %w", ev.ActorID, err)
	}

	ledger, err := d.ledgers.LoadLedger(ctx, subject.OwnerID)
	if err != nil {
		return out, fmt.Errorf("load ledger of %s: %w", subject.OwnerID, err)
	}

	out.Transition = ledger.Upsert(UpsertInput{
		SubjectKey: subject.Key,
		AlertType:  r.alert,
		Verb:       r.verb,
		Source: Source{
			PostID:    subject.PostID,
			Content:   subject.Content,
			UserImage: actor.ProfileImage,
		},
		Actors: withoutUser(subject.Actors, subject.OwnerID),
		Action: ev.Action,
		Now:    d.now(),
	})
	if out.Transition == TransitionNone {
		return out, nil
	}

	if err := d.ledgers.SaveLedger(ctx, subject.OwnerID, ledger); err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrLedgerWriteFailed, subject.OwnerID, err)
	}

	metrics.Get().LedgerTransitions.WithLabelValues(string(r.alert), string(out.Transition)).Inc()
	logger.Log.Debug("Notification ledger updated",
		zap.String("recipient", subject.OwnerID),
		zap.String("actor", ev.ActorID),
		zap.String("kind", string(ev.Kind)),
		zap.String("transition", string(out.Transition)),
	)

	d.broadcaster.Publish(TopicNotification, Notice{
		RecipientIDs: []string{subject.OwnerID},
		AlertType:    r.alert,
		Action:       ev.Action,
	})
	return out, nil
}

// withoutUser drops the owner's own likes and comments from the actor list.
func withoutUser(actors []Actor, userID string) []Actor {
	out := make([]Actor, 0, len(actors))
	for _, a := range actors {
		if a.UserID != userID {
			out = append(out, a)
		}
	}
	return out
}

// FriendAccepted gives both users a single "now friends" record. Repeated
// calls for the same pair add nothing. It returns how many ledgers changed.
func (d *Dispatcher) FriendAccepted(ctx context.Context, userID, friendID string) (int, error) {
	user, err := d.identities.ResolveIdentity(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("resolve user %s: %w", userID, err)
	}
	friend, err := d.identities.ResolveIdentity(ctx, friendID)
	if err != nil {
		return 0, fmt.Errorf("resolve user %s: %w", friendID, err)
	}

	pairs := []struct {
		owner string
		other *Identity
	}{
		{owner: userID, other: friend},
		{owner: friendID, other: user},
	}

	now := d.now()
	var changed []string
	for _, p := range pairs {
		ledger, err := d.ledgers.LoadLedger(ctx, p.owner)
		if err != nil {
			return len(changed), fmt.Errorf("load ledger of %s: %w", p.owner, err)
		}
		if !ledger.AddFriend(*p.other, now) {
			continue
		}
		if err := d.ledgers.SaveLedger(ctx, p.owner, ledger); err != nil {
			return len(changed), fmt.Errorf("%w: %s: %w", ErrLedgerWriteFailed, p.owner, err)
		}
		metrics.Get().LedgerTransitions.WithLabelValues(string(AlertFriendRequest), string(TransitionCreated)).Inc()
		changed = append(changed, p.owner)
	}

	if len(changed) > 0 {
		d.broadcaster.Publish(TopicNotification, Notice{
			RecipientIDs: changed,
			AlertType:    AlertFriendRequest,
			Action:       ActionAdd,
		})
	}
	return len(changed), nil
}

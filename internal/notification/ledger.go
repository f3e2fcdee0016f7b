package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertType groups records into aggregation buckets.
type AlertType string

const (
	AlertLike          AlertType = "like"
	AlertComment       AlertType = "comment"
	AlertFriendRequest AlertType = "friend request"
)

// Source points a client back at the thing a record is about.
type Source struct {
	PostID    string `json:"post_id,omitempty" bson:"post_id,omitempty"`
	Content   string `json:"content,omitempty" bson:"content,omitempty"`
	UserImage string `json:"user_image,omitempty" bson:"user_image,omitempty"`
	FriendID  string `json:"friend_id,omitempty" bson:"friend_id,omitempty"`
}

// Record is one aggregated notification.
type Record struct {
	ID         string    `json:"id" bson:"id"`
	SubjectKey string    `json:"subject_key" bson:"subject_key"`
	AlertType  AlertType `json:"alert_type" bson:"alert_type"`
	Actors     []Actor   `json:"actors,omitempty" bson:"actors,omitempty"`
	Message    string    `json:"message" bson:"message"`
	Source     Source    `json:"source" bson:"source"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type recordKey struct {
	subject string
	alert   AlertType
}

func (r *Record) key() recordKey {
	return recordKey{subject: r.SubjectKey, alert: r.AlertType}
}

// Transition describes what an upsert did to the ledger.
type Transition string

const (
	TransitionNone    Transition = "none"
	TransitionCreated Transition = "created"
	TransitionUpdated Transition = "updated"
	TransitionRetired Transition = "retired"
)

// Ledger is a user's ordered set of records plus the unseen count. Records
// are kept newest change first; the index mirrors them by (subject, alert).
type Ledger struct {
	count   int
	records []*Record
	index   map[recordKey]*Record
}

// NewLedger rebuilds a ledger from its stored form. Duplicate keys keep the
// first (newest) occurrence and a negative count is clamped to zero.
func NewLedger(count int, records []Record) *Ledger {
	l := &Ledger{
		count:   max(count, 0),
		records: make([]*Record, 0, len(records)),
		index:   make(map[recordKey]*Record, len(records)),
	}
	for i := range records {
		rec := records[i]
		if _, dup := l.index[rec.key()]; dup {
			continue
		}
		l.records = append(l.records, &rec)
		l.index[rec.key()] = &rec
	}
	return l
}

// Count returns the number of unseen aggregates.
func (l *Ledger) Count() int {
	return l.count
}

// Len returns the number of records held.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the records in display order.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = *r
	}
	return out
}

// Find looks a record up by subject and alert type.
func (l *Ledger) Find(subjectKey string, alert AlertType) (Record, bool) {
	r, ok := l.index[recordKey{subject: subjectKey, alert: alert}]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// UpsertInput carries the current aggregate view of a subject.
type UpsertInput struct {
	SubjectKey string
	AlertType  AlertType
	Verb       Verb
	Source     Source
	Actors     []Actor
	Action     Action
	Now        time.Time
}

// Upsert merges the aggregate into the ledger. The unseen count follows the
// triggering action: +1 on add, -1 on remove, never below zero.
func (l *Ledger) Upsert(in UpsertInput) Transition {
	summary := Compose(in.Actors, len(in.Actors), in.Verb, in.Action)
	key := recordKey{subject: in.SubjectKey, alert: in.AlertType}

	if summary.Count <= 0 {
		if !summary.Retire {
			return TransitionNone
		}
		if _, ok := l.index[key]; !ok {
			return TransitionNone
		}
		l.detach(key)
		l.decrement()
		return TransitionRetired
	}

	actors := append([]Actor(nil), in.Actors...)
	rec, ok := l.index[key]
	transition := TransitionUpdated
	if ok {
		l.detach(key)
	} else {
		rec = &Record{
			ID:         uuid.NewString(),
			SubjectKey: in.SubjectKey,
			AlertType:  in.AlertType,
			CreatedAt:  in.Now,
		}
		transition = TransitionCreated
	}
	rec.Actors = actors
	rec.Message = summary.Message
	rec.Source = in.Source
	l.attachFront(rec)

	if in.Action == ActionAdd {
		l.count++
	} else {
		l.decrement()
	}
	return transition
}

// Identity is the display information of a user.
type Identity struct {
	UserID       string
	FirstName    string
	LastName     string
	ProfileImage string
}

// AddFriend records that the ledger owner and friend are now friends. It
// returns false and leaves the ledger alone when that record already exists.
func (l *Ledger) AddFriend(friend Identity, now time.Time) bool {
	key := recordKey{subject: friend.UserID, alert: AlertFriendRequest}
	if _, ok := l.index[key]; ok {
		return false
	}
	l.attachFront(&Record{
		ID:         uuid.NewString(),
		SubjectKey: friend.UserID,
		AlertType:  AlertFriendRequest,
		Actors:     []Actor{{UserID: friend.UserID, FirstName: friend.FirstName, LastName: friend.LastName}},
		Message:    fmt.Sprintf("You and %s %s are now friends", friend.FirstName, friend.LastName),
		Source:     Source{FriendID: friend.UserID, UserImage: friend.ProfileImage},
		CreatedAt:  now,
	})
	l.count++
	return true
}

// MarkAllRead drops every record and zeroes the count.
func (l *Ledger) MarkAllRead() {
	l.records = l.records[:0]
	l.index = make(map[recordKey]*Record)
	l.count = 0
}

// MarkSeen zeroes the count and keeps the records.
func (l *Ledger) MarkSeen() {
	l.count = 0
}

// Prune drops the records keep rejects and returns how many were dropped.
// The unseen count is left as is.
func (l *Ledger) Prune(keep func(Record) bool) int {
	kept := l.records[:0]
	dropped := 0
	for _, r := range l.records {
		if keep(*r) {
			kept = append(kept, r)
			continue
		}
		delete(l.index, r.key())
		dropped++
	}
	for i := len(kept); i < len(l.records); i++ {
		l.records[i] = nil
	}
	l.records = kept
	return dropped
}

func (l *Ledger) decrement() {
	if l.count > 0 {
		l.count--
	}
}

func (l *Ledger) attachFront(rec *Record) {
	if l.index == nil {
		l.index = make(map[recordKey]*Record)
	}
	l.records = append([]*Record{rec}, l.records...)
	l.index[rec.key()] = rec
}

func (l *Ledger) detach(key recordKey) {
	rec := l.index[key]
	delete(l.index, key)
	for i, r := range l.records {
		if r == rec {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return
		}
	}
}

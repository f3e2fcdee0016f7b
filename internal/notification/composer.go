// Package notification aggregates like, comment, reply and friend events into
// one record per (subject, alert type) in each user's notification ledger.
package notification

import "fmt"

// Verb is the action phrase rendered into a notification message.
type Verb string

const (
	VerbLiked       Verb = "liked"
	VerbCommentedOn Verb = "commented on"
	VerbRepliedTo   Verb = "replied to"
)

// Action is the direction of the event that triggered a ledger change.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionAdd || a == ActionRemove
}

// Actor is a user contributing to an aggregated notification.
type Actor struct {
	UserID    string `json:"user_id" bson:"user_id"`
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
}

func (a Actor) fullName() string {
	return a.FirstName + " " + a.LastName
}

// Summary is the rendered message for an aggregate and the number of actors
// it covers. Retire is set when a removal left nobody, so the record has to go.
type Summary struct {
	Message string
	Count   int
	Retire  bool
}

// Compose renders the notification sentence for actors. The two most recently
// merged actors (the last two entries) are named and the rest are counted.
// An empty aggregate yields no message; only a removal marks it for retirement.
func Compose(actors []Actor, count int, verb Verb, action Action) Summary {
	if count <= 0 || len(actors) == 0 {
		return Summary{Count: 0, Retire: action == ActionRemove}
	}
	if count > len(actors) {
		count = len(actors)
	}

	last := actors[len(actors)-1]
	switch {
	case count == 1:
		return Summary{
			Message: fmt.Sprintf("%s %s your post", actors[0].fullName(), verb),
			Count:   count,
		}
	case count == 2:
		secondLast := actors[len(actors)-2]
		return Summary{
			Message: fmt.Sprintf("%s and %s %s your post", last.fullName(), secondLast.fullName(), verb),
			Count:   count,
		}
	default:
		secondLast := actors[len(actors)-2]
		return Summary{
			Message: fmt.Sprintf("%s, %s and %d others %s your post", last.fullName(), secondLast.fullName(), count-2, verb),
			Count:   count,
		}
	}
}

package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func likeInput(subject string, action Action, who ...Actor) UpsertInput {
	return UpsertInput{
		SubjectKey: subject,
		AlertType:  AlertLike,
		Verb:       VerbLiked,
		Source:     Source{PostID: subject, Content: "hello"},
		Actors:     who,
		Action:     action,
		Now:        now,
	}
}

func TestLedgerDedupesBySubjectAndAlert(t *testing.T) {
	l := NewLedger(0, nil)
	amy, bo, cy := actors("Amy", "Lee")[0], actors("Bo", "Kim")[0], actors("Cy", "Ray")[0]

	assert.Equal(t, TransitionCreated, l.Upsert(likeInput("p1", ActionAdd, amy)))
	assert.Equal(t, TransitionUpdated, l.Upsert(likeInput("p1", ActionAdd, amy, bo)))
	assert.Equal(t, TransitionUpdated, l.Upsert(likeInput("p1", ActionAdd, amy, bo, cy)))

	require.Equal(t, 1, l.Len())
	rec, ok := l.Find("p1", AlertLike)
	require.True(t, ok)
	assert.Equal(t, "Cy Ray, Bo Kim and 1 others liked your post", rec.Message)
	assert.Len(t, rec.Actors, 3)
	assert.Equal(t, 3, l.Count())
}

func TestLedgerKeepsAlertTypesApart(t *testing.T) {
	l := NewLedger(0, nil)
	amy := actors("Amy", "Lee")

	l.Upsert(likeInput("p1", ActionAdd, amy...))
	l.Upsert(UpsertInput{SubjectKey: "p1", AlertType: AlertComment, Verb: VerbCommentedOn, Actors: amy, Action: ActionAdd, Now: now})

	assert.Equal(t, 2, l.Len())
	_, ok := l.Find("p1", AlertComment)
	assert.True(t, ok)
}

func TestLedgerCountSaturates(t *testing.T) {
	l := NewLedger(0, nil)
	amy, bo := actors("Amy", "Lee")[0], actors("Bo", "Kim")[0]

	l.Upsert(likeInput("p1", ActionAdd, amy))
	for i := 0; i < 5; i++ {
		l.Upsert(likeInput("p1", ActionRemove, bo))
		assert.GreaterOrEqual(t, l.Count(), 0)
	}
	assert.Equal(t, 0, l.Count())

	for i := 0; i < 3; i++ {
		l.Upsert(likeInput("p1", ActionRemove))
	}
	assert.Equal(t, 0, l.Count())
}

func TestLedgerRetiresRecordWhenActorsDropToZero(t *testing.T) {
	l := NewLedger(0, nil)
	amy := actors("Amy", "Lee")

	l.Upsert(likeInput("p1", ActionAdd, amy...))
	require.Equal(t, 1, l.Count())

	assert.Equal(t, TransitionRetired, l.Upsert(likeInput("p1", ActionRemove)))
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Count())
	_, ok := l.Find("p1", AlertLike)
	assert.False(t, ok)

	// nothing left to retire
	assert.Equal(t, TransitionNone, l.Upsert(likeInput("p1", ActionRemove)))
}

func TestLedgerAddWithoutActorsIsNoop(t *testing.T) {
	l := NewLedger(2, nil)
	assert.Equal(t, TransitionNone, l.Upsert(likeInput("p1", ActionAdd)))
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 2, l.Count())
}

func TestLedgerMovesUpdatedRecordToFront(t *testing.T) {
	l := NewLedger(0, nil)
	amy, bo := actors("Amy", "Lee")[0], actors("Bo", "Kim")[0]

	l.Upsert(likeInput("p1", ActionAdd, amy))
	l.Upsert(likeInput("p2", ActionAdd, amy))
	l.Upsert(likeInput("p3", ActionAdd, amy))
	assert.Equal(t, []string{"p3", "p2", "p1"}, subjects(l))

	l.Upsert(likeInput("p1", ActionAdd, amy, bo))
	assert.Equal(t, []string{"p1", "p3", "p2"}, subjects(l))

	l.Upsert(likeInput("p2", ActionRemove, bo))
	assert.Equal(t, []string{"p2", "p1", "p3"}, subjects(l))
}

func TestLedgerRefreshesSource(t *testing.T) {
	l := NewLedger(0, nil)
	amy := actors("Amy", "Lee")

	in := likeInput("p1", ActionAdd, amy...)
	l.Upsert(in)
	in.Source = Source{PostID: "p1", Content: "edited", UserImage: "img"}
	l.Upsert(in)

	rec, _ := l.Find("p1", AlertLike)
	assert.Equal(t, "edited", rec.Source.Content)
	assert.Equal(t, "img", rec.Source.UserImage)
	assert.Equal(t, now, rec.CreatedAt)
}

func TestLedgerMessageMatchesActorsAfterRemove(t *testing.T) {
	l := NewLedger(0, nil)
	amy, bo, cy := actors("Amy", "Lee")[0], actors("Bo", "Kim")[0], actors("Cy", "Ray")[0]

	l.Upsert(likeInput("p1", ActionAdd, amy, bo, cy))
	l.Upsert(likeInput("p1", ActionRemove, amy, cy))

	rec, _ := l.Find("p1", AlertLike)
	assert.Equal(t, "Cy Ray and Amy Lee liked your post", rec.Message)
}

func TestLedgerRemoveWithActorsLeftCreatesRecord(t *testing.T) {
	l := NewLedger(1, nil)
	amy := actors("Amy", "Lee")

	assert.Equal(t, TransitionCreated, l.Upsert(likeInput("p1", ActionRemove, amy...)))

	rec, ok := l.Find("p1", AlertLike)
	require.True(t, ok)
	assert.Equal(t, "Amy Lee liked your post", rec.Message)
	assert.Equal(t, 0, l.Count())
}

func TestLedgerAddFriend(t *testing.T) {
	l := NewLedger(0, nil)
	friend := Identity{UserID: "u2", FirstName: "Bo", LastName: "Kim", ProfileImage: "bo.png"}

	assert.True(t, l.AddFriend(friend, now))
	assert.False(t, l.AddFriend(friend, now))

	require.Equal(t, 1, l.Len())
	assert.Equal(t, 1, l.Count())
	rec, ok := l.Find("u2", AlertFriendRequest)
	require.True(t, ok)
	assert.Equal(t, "You and Bo Kim are now friends", rec.Message)
	assert.Equal(t, "u2", rec.Source.FriendID)
	assert.Equal(t, "bo.png", rec.Source.UserImage)
}

func TestLedgerMarkAllReadAndSeen(t *testing.T) {
	l := NewLedger(0, nil)
	amy := actors("Amy", "Lee")
	l.Upsert(likeInput("p1", ActionAdd, amy...))
	l.Upsert(likeInput("p2", ActionAdd, amy...))

	l.MarkSeen()
	assert.Equal(t, 0, l.Count())
	assert.Equal(t, 2, l.Len())

	l.MarkAllRead()
	assert.Equal(t, 0, l.Count())
	assert.Equal(t, 0, l.Len())
	_, ok := l.Find("p1", AlertLike)
	assert.False(t, ok)

	l.Upsert(likeInput("p1", ActionAdd, amy...))
	assert.Equal(t, 1, l.Len())
}

func TestLedgerPrune(t *testing.T) {
	l := NewLedger(0, nil)
	amy := actors("Amy", "Lee")
	l.Upsert(likeInput("p1", ActionAdd, amy...))
	l.Upsert(likeInput("p2", ActionAdd, amy...))
	l.Upsert(likeInput("p3", ActionAdd, amy...))

	dropped := l.Prune(func(r Record) bool { return r.SubjectKey != "p2" })

	assert.Equal(t, 1, dropped)
	assert.Equal(t, []string{"p3", "p1"}, subjects(l))
	_, ok := l.Find("p2", AlertLike)
	assert.False(t, ok)
	assert.Equal(t, 3, l.Count())
}

func TestNewLedgerRebuildsIndex(t *testing.T) {
	stored := []Record{
		{ID: "a", SubjectKey: "p1", AlertType: AlertLike, Message: "newer"},
		{ID: "b", SubjectKey: "p1", AlertType: AlertLike, Message: "older"},
		{ID: "c", SubjectKey: "p2", AlertType: AlertComment, Message: "comment"},
	}

	l := NewLedger(-3, stored)

	assert.Equal(t, 0, l.Count())
	assert.Equal(t, 2, l.Len())
	rec, ok := l.Find("p1", AlertLike)
	require.True(t, ok)
	assert.Equal(t, "a", rec.ID)
}

func subjects(l *Ledger) []string {
	var out []string
	for _, r := range l.Records() {
		out = append(out, r.SubjectKey)
	}
	return out
}

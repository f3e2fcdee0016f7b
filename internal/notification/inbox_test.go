package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubPosts map[string]bool

func (s stubPosts) PostExists(_ context.Context, postID string) (bool, error) {
	if postID == "broken" {
		return false, errors.New("timeout")
	}
	return s[postID], nil
}

func seededLedgers() *memLedgers {
	l := NewLedger(0, nil)
	amy := actors("Amy", "Lee")
	l.Upsert(likeInput("kept", ActionAdd, amy...))
	l.Upsert(likeInput("deleted", ActionAdd, amy...))
	l.AddFriend(Identity{UserID: "bo", FirstName: "Bo", LastName: "Kim"}, now)

	m := newMemLedgers()
	m.stored["owner"] = storedLedger{
		count: l.Count(),
		records: append(l.Records(), Record{
			ID: "blank", SubjectKey: "blank", AlertType: AlertComment, Source: Source{PostID: "kept"},
		}),
	}
	return m
}

func TestInboxListPrunesStaleRecords(t *testing.T) {
	ledgers := seededLedgers()
	inbox := NewInbox(ledgers, stubPosts{"kept": true}, &mockBroadcaster{})

	l, err := inbox.List(context.Background(), "owner")

	require.NoError(t, err)
	assert.Equal(t, []string{"bo", "kept"}, subjects(l))
	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 1, ledgers.saves)
	assert.Equal(t, 2, ledgers.ledger("owner").Len())
}

func TestInboxListWithoutStaleRecordsDoesNotSave(t *testing.T) {
	ledgers := newMemLedgers("owner")
	inbox := NewInbox(ledgers, stubPosts{}, &mockBroadcaster{})

	l, err := inbox.List(context.Background(), "owner")

	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, ledgers.saves)
}

func TestInboxListErrors(t *testing.T) {
	_, err := NewInbox(newMemLedgers(), stubPosts{}, &mockBroadcaster{}).List(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrRecipientNotFound)

	ledgers := newMemLedgers()
	ledgers.stored["owner"] = storedLedger{records: []Record{
		{ID: "x", SubjectKey: "x", AlertType: AlertLike, Message: "m", Source: Source{PostID: "broken"}},
	}}
	_, err = NewInbox(ledgers, stubPosts{}, &mockBroadcaster{}).List(context.Background(), "owner")
	assert.ErrorContains(t, err, "timeout")
}

func TestInboxClear(t *testing.T) {
	tests := []struct {
		mode        ClearMode
		wantRecords int
	}{
		{mode: ClearAll, wantRecords: 0},
		{mode: ClearSeen, wantRecords: 4},
		{mode: "", wantRecords: 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			ledgers := seededLedgers()
			bc := &mockBroadcaster{}
			bc.On("Publish", TopicNotification, mock.Anything).Once()

			l, err := NewInbox(ledgers, stubPosts{}, bc).Clear(context.Background(), "owner", tt.mode)

			require.NoError(t, err)
			assert.Equal(t, 0, l.Count())
			assert.Equal(t, tt.wantRecords, ledgers.ledger("owner").Len())
			assert.Equal(t, 0, ledgers.ledger("owner").Count())
			bc.AssertExpectations(t)
		})
	}
}

func TestInboxClearWriteFailure(t *testing.T) {
	ledgers := seededLedgers()
	ledgers.saveErr = errors.New("disk full")
	bc := &mockBroadcaster{}

	_, err := NewInbox(ledgers, stubPosts{}, bc).Clear(context.Background(), "owner", ClearAll)

	assert.ErrorIs(t, err, ErrLedgerWriteFailed)
	bc.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	assert.Equal(t, 3, ledgers.ledger("owner").Count())
}

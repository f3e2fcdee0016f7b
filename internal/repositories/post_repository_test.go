package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func TestMongoPostRepository_LoadSubject(t *testing.T) {
	amy, bo, cy, gone := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	postID, commentID, replyID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	post := models.Post{
		ID:      postID,
		Creator: "owner",
		Content: "hello world",
		Likes:   []string{bo.Hex(), amy.Hex(), gone.Hex()},
		Comments: []models.Comment{
			{
				ID: commentID, User: amy.Hex(), Content: "first!", Likes: []string{cy.Hex()},
				Replies: []models.Reply{
					{ID: replyID, User: bo.Hex(), Content: "second", Likes: []string{amy.Hex(), cy.Hex()}},
					{ID: primitive.NewObjectID(), User: cy.Hex(), Content: "third"},
					{ID: primitive.NewObjectID(), User: bo.Hex(), Content: "fourth"},
				},
			},
			{ID: primitive.NewObjectID(), User: cy.Hex(), Content: "nice"},
			{ID: primitive.NewObjectID(), User: amy.Hex(), Content: "again"},
		},
	}
	users := map[primitive.ObjectID]models.User{
		amy: {ID: amy, FirstName: "Amy", LastName: "Lee"},
		bo:  {ID: bo, FirstName: "Bo", LastName: "Kim"},
		cy:  {ID: cy, FirstName: "Cy", LastName: "Ray"},
	}

	tests := []struct {
		name       string
		kind       notification.EventKind
		ref        notification.SubjectRef
		wantKey    string
		wantOwner  string
		wantActors []primitive.ObjectID
	}{
		{
			name:       "post likes skip deleted users",
			kind:       notification.EventPostLike,
			ref:        notification.SubjectRef{PostID: postID.Hex()},
			wantKey:    postID.Hex(),
			wantOwner:  "owner",
			wantActors: []primitive.ObjectID{bo, amy},
		},
		{
			name:       "post comments are distinct commenters",
			kind:       notification.EventPostComment,
			ref:        notification.SubjectRef{PostID: postID.Hex()},
			wantKey:    postID.Hex(),
			wantOwner:  "owner",
			wantActors: []primitive.ObjectID{amy, cy},
		},
		{
			name:       "comment likes",
			kind:       notification.EventCommentLike,
			ref:        notification.SubjectRef{PostID: postID.Hex(), CommentID: commentID.Hex()},
			wantKey:    commentID.Hex(),
			wantOwner:  amy.Hex(),
			wantActors: []primitive.ObjectID{cy},
		},
		{
			name:       "comment replies are distinct repliers",
			kind:       notification.EventCommentReply,
			ref:        notification.SubjectRef{PostID: postID.Hex(), CommentID: commentID.Hex()},
			wantKey:    commentID.Hex(),
			wantOwner:  amy.Hex(),
			wantActors: []primitive.ObjectID{bo, cy},
		},
		{
			name:       "reply likes",
			kind:       notification.EventReplyLike,
			ref:        notification.SubjectRef{PostID: postID.Hex(), CommentID: commentID.Hex(), ReplyID: replyID.Hex()},
			wantKey:    replyID.Hex(),
			wantOwner:  bo.Hex(),
			wantActors: []primitive.ObjectID{amy, cy},
		},
	}

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
			// users come back in reverse order; the actor list must not
			var userDocs []bson.D
			for i := len(tt.wantActors) - 1; i >= 0; i-- {
				userDocs = append(userDocs, toDoc(t, users[tt.wantActors[i]]))
			}
			mt.AddMockResponses(
				mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, post)),
				mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDocs...),
			)
			repo := &MongoPostRepository{collection: mt.Coll, users: mt.Coll}

			subject, err := repo.LoadSubject(context.Background(), tt.kind, tt.ref)

			require.NoError(mt, err)
			assert.Equal(mt, tt.wantKey, subject.Key)
			assert.Equal(mt, tt.wantOwner, subject.OwnerID)
			assert.Equal(mt, postID.Hex(), subject.PostID)
			got := make([]string, 0, len(subject.Actors))
			for _, a := range subject.Actors {
				got = append(got, a.UserID)
			}
			want := make([]string, 0, len(tt.wantActors))
			for _, id := range tt.wantActors {
				want = append(want, id.Hex())
			}
			assert.Equal(mt, want, got)
			assert.Equal(mt, users[tt.wantActors[0]].FirstName, subject.Actors[0].FirstName)
		})
	}

	mt.Run("missing post", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := &MongoPostRepository{collection: mt.Coll, users: mt.Coll}

		_, err := repo.LoadSubject(context.Background(), notification.EventPostLike, notification.SubjectRef{PostID: postID.Hex()})
		assert.ErrorIs(mt, err, notification.ErrSubjectNotFound)
	})

	mt.Run("missing comment", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, post)))
		repo := &MongoPostRepository{collection: mt.Coll, users: mt.Coll}

		_, err := repo.LoadSubject(context.Background(), notification.EventCommentLike,
			notification.SubjectRef{PostID: postID.Hex(), CommentID: primitive.NewObjectID().Hex()})
		assert.ErrorIs(mt, err, notification.ErrSubjectNotFound)
	})

	mt.Run("malformed post id", func(mt *mtest.T) {
		repo := &MongoPostRepository{collection: mt.Coll, users: mt.Coll}

		_, err := repo.LoadSubject(context.Background(), notification.EventPostLike, notification.SubjectRef{PostID: "nope"})
		assert.ErrorIs(mt, err, notification.ErrSubjectNotFound)
	})

	mt.Run("no actors skips the user lookup", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		bare := models.Post{ID: postID, Creator: "owner", Content: "quiet"}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, bare)))
		repo := &MongoPostRepository{collection: mt.Coll, users: mt.Coll}

		subject, err := repo.LoadSubject(context.Background(), notification.EventPostLike, notification.SubjectRef{PostID: postID.Hex()})
		require.NoError(mt, err)
		assert.Empty(mt, subject.Actors)
	})
}

func TestMongoPostRepository_GetPostsByUserID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("public only", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		post := models.Post{ID: primitive.NewObjectID(), Creator: "owner", Privacy: models.PrivacyPublic}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(t, post)))
		repo := &MongoPostRepository{collection: mt.Coll, users: mt.Coll}

		posts, err := repo.GetPostsByUserID(context.Background(), "owner", true, 0, 20)

		require.NoError(mt, err)
		require.Len(mt, posts, 1)
		filter := mt.GetStartedEvent().Command.Lookup("filter").Document()
		assert.Equal(mt, "owner", filter.Lookup("creator").StringValue())
		assert.Equal(mt, models.PrivacyPublic, filter.Lookup("privacy").StringValue())
	})

	mt.Run("everything", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := &MongoPostRepository{collection: mt.Coll, users: mt.Coll}

		posts, err := repo.GetPostsByUserID(context.Background(), "owner", false, 0, 20)

		require.NoError(mt, err)
		assert.Empty(mt, posts)
		filter := mt.GetStartedEvent().Command.Lookup("filter").Document()
		_, err = filter.LookupErr("privacy")
		assert.Error(mt, err)
	})
}

package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find decodes driver types", func(mt *mtest.T) {
		ts := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
		first := mtest.CreateCursorResponse(1, "carelink.patients", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "id", Value: "p1"},
			{Key: "symptoms", Value: bson.A{"fever"}},
			{Key: "created_at", Value: primitive.NewDateTimeFromTime(ts)},
		})
		done := mtest.CreateCursorResponse(0, "carelink.patients", mtest.NextBatch)
		mt.AddMockResponses(first, done)

		rows, err := New(mt.DB).Find(context.Background(), "patients", store.Filter{"id": "p1"})
		require.NoError(mt, err)
		require.Len(mt, rows, 1)
		assert.NotContains(mt, rows[0], "_id")
		assert.Equal(mt, []any{"fever"}, rows[0]["symptoms"])
		assert.Equal(mt, ts, rows[0]["created_at"])
	})

	mt.Run("insert duplicate key is conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))
		_, err := New(mt.DB).Insert(context.Background(), "users", store.Row{"id": "u1"})
		assert.ErrorIs(mt, err, store.ErrConflict)
	})

	mt.Run("insert ok", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		row, err := New(mt.DB).Insert(context.Background(), "users", store.Row{"id": "u1", "username": "asha"})
		require.NoError(mt, err)
		assert.Equal(mt, "asha", row["username"])
	})

	mt.Run("update returns new document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "id", Value: "b1"},
			{Key: "status", Value: "occupied"},
		}}))
		row, err := New(mt.DB).Update(context.Background(), "beds", "b1", store.Row{"status": "occupied"})
		require.NoError(mt, err)
		assert.Equal(mt, "occupied", row["status"])
	})

	mt.Run("update unknown id is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		_, err := New(mt.DB).Update(context.Background(), "beds", "ghost", store.Row{"status": "x"})
		assert.ErrorIs(mt, err, store.ErrNotFound)
	})
}

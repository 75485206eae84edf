package watermark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const watermarkNS = "odoo_etl." + mongoCollection

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("missing document reads epoch", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, watermarkNS, mtest.FirstBatch))
		s := NewMongoStore(mt.Client, "odoo_etl", "")

		ts, err := s.Read(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, Epoch, ts)
	})

	mt.Run("stored document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, watermarkNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: DefaultKey},
			{Key: "value", Value: "2024-05-01 10:05:00"},
			{Key: "updated_at", Value: time.Date(2024, 5, 1, 10, 6, 0, 0, time.UTC)},
		}))
		s := NewMongoStore(mt.Client, "", "")

		ts, err := s.Read(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, "2024-05-01 10:05:00", ts)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, DefaultKey, started.Command.Lookup("filter", "_id").StringValue())
	})

	mt.Run("write upserts by key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		s := NewMongoStore(mt.Client, "odoo_etl", "nightly")

		require.NoError(mt, s.Write(ctx, "2024-05-01 10:05:00"))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		assert.Equal(mt, mongoCollection, started.Command.Lookup("update").StringValue())
		assert.Equal(mt, "majority", started.Command.Lookup("writeConcern", "w").StringValue())

		updates, err := started.Command.Lookup("updates").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, updates, 1)
		update := updates[0].Document()
		assert.Equal(mt, "nightly", update.Lookup("q", "_id").StringValue())
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, "2024-05-01 10:05:00", update.Lookup("u", "$set", "value").StringValue())
	})

	mt.Run("write validates before sending", func(mt *mtest.T) {
		s := NewMongoStore(mt.Client, "odoo_etl", "")

		assert.Error(mt, s.Write(ctx, "May 1st"))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized on odoo_etl",
		}))
		s := NewMongoStore(mt.Client, "odoo_etl", "")

		_, err := s.Read(ctx)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "mongo find watermark")
	})
}

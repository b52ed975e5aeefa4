package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

func TestMapMongoError(t *testing.T) {
	assert.NoError(t, mapMongoError("find", nil))

	err := mapMongoError("find classes", mongo.ErrNoDocuments)
	assert.True(t, errors.Is(err, appErrors.ErrNoRecord))

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	err = mapMongoError("insert teachers", dup)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateRecord))

	err = mapMongoError("insert students", fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	assert.True(t, errors.Is(err, appErrors.ErrStoreDown))

	err = mapMongoError("delete", mongo.ErrClientDisconnected)
	assert.True(t, errors.Is(err, appErrors.ErrStoreDown))

	err = mapMongoError("aggregate", errors.New("bad pipeline"))
	assert.False(t, errors.Is(err, appErrors.ErrStoreDown))
	assert.False(t, errors.Is(err, appErrors.ErrNoRecord))
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

// sentUpdate decodes the filter and update of the next update command the client sent.
func sentUpdate(mt *mtest.T) (bson.M, bson.M) {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, "update", evt.CommandName)
	stmt := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
	var filter, update bson.M
	require.NoError(mt, bson.Unmarshal(stmt.Lookup("q").Document(), &filter))
	require.NoError(mt, bson.Unmarshal(stmt.Lookup("u").Document(), &update))
	return filter, update
}

func TestBookRepositoryTakeCopyGuardsShelf(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("copy on shelf", func(mt *mtest.T) {
		repo := NewBookRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(updated(1))

		taken, err := repo.TakeCopy(context.Background(), "book-1")
		require.NoError(mt, err)
		assert.True(mt, taken)

		filter, update := sentUpdate(mt)
		assert.Equal(mt, "book-1", filter["_id"])
		assert.EqualValues(mt, 0, filter["availableCopies"].(bson.M)["$gt"])
		assert.EqualValues(mt, -1, update["$inc"].(bson.M)["availableCopies"])
	})

	mt.Run("shelf empty", func(mt *mtest.T) {
		repo := NewBookRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(updated(0))

		taken, err := repo.TakeCopy(context.Background(), "book-1")
		require.NoError(mt, err)
		assert.False(mt, taken)
	})
}

func TestBookRepositoryAdjustCopiesGuardsShrink(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("shrink needs free copies", func(mt *mtest.T) {
		repo := NewBookRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(updated(0))

		ok, err := repo.AdjustCopies(context.Background(), "book-1", -3)
		require.NoError(mt, err)
		assert.False(mt, ok)

		filter, update := sentUpdate(mt)
		assert.EqualValues(mt, 3, filter["availableCopies"].(bson.M)["$gte"])
		inc := update["$inc"].(bson.M)
		assert.EqualValues(mt, -3, inc["totalCopies"])
		assert.EqualValues(mt, -3, inc["availableCopies"])
	})

	mt.Run("grow is unconditional", func(mt *mtest.T) {
		repo := NewBookRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(updated(1))

		ok, err := repo.AdjustCopies(context.Background(), "book-1", 2)
		require.NoError(mt, err)
		assert.True(mt, ok)

		filter, update := sentUpdate(mt)
		assert.NotContains(mt, filter, "availableCopies")
		assert.EqualValues(mt, 2, update["$inc"].(bson.M)["totalCopies"])
	})

	mt.Run("store error", func(mt *mtest.T) {
		repo := NewBookRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad update"}))

		_, err := repo.AdjustCopies(context.Background(), "book-1", 1)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, appErrors.ErrNoRecord))
	})
}

func TestStudentRepositoryStripSubjectPullsBothLogs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("strip", func(mt *mtest.T) {
		var observed []string
		repo := NewStudentRepository(NewStore(mt.DB, func(label string, _ time.Duration) {
			observed = append(observed, label)
		}))
		mt.AddMockResponses(updated(2))

		n, err := repo.StripSubject(context.Background(), "math")
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)

		filter, update := sentUpdate(mt)
		or := filter["$or"].(bson.A)
		require.Len(mt, or, 2)
		assert.Contains(mt, or, bson.M{"examResult.subName": "math"})
		assert.Contains(mt, or, bson.M{"attendance.subName": "math"})
		pull := update["$pull"].(bson.M)
		assert.Equal(mt, bson.M{"subName": "math"}, pull["examResult"])
		assert.Equal(mt, bson.M{"subName": "math"}, pull["attendance"])
		assert.Equal(mt, []string{"students.update_many"}, observed)
	})
}

func TestParentRepositoryDetachFromOthersSkipsOwner(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("detach", func(mt *mtest.T) {
		repo := NewParentRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(updated(1))

		n, err := repo.DetachFromOthers(context.Background(), "p-new", []string{"st1"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)

		filter, update := sentUpdate(mt)
		assert.Equal(mt, bson.M{"$ne": "p-new"}, filter["_id"])
		assert.Equal(mt, bson.M{"$in": bson.A{"st1"}}, filter["children"])
		assert.Equal(mt, bson.M{"children": bson.M{"$in": bson.A{"st1"}}}, update["$pull"])
	})

	mt.Run("no children sends nothing", func(mt *mtest.T) {
		repo := NewParentRepository(NewStore(mt.DB, nil))
		n, err := repo.DetachFromOthers(context.Background(), "p-new", nil)
		require.NoError(mt, err)
		assert.Zero(mt, n)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestBookRepositoryFindMissingIsNoRecord(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewBookRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+collBooks, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "ghost")
		assert.True(mt, errors.Is(err, appErrors.ErrNoRecord))
	})

	mt.Run("duplicate isbn", func(mt *mtest.T) {
		repo := NewBookRepository(NewStore(mt.DB, nil))
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key"}))

		err := repo.Create(context.Background(), &models.Book{ID: "b1", ISBN: "978-0441013593"})
		assert.True(mt, errors.Is(err, appErrors.ErrDuplicateRecord))
	})
}
